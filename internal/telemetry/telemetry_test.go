package telemetry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ser/app/internal/telemetry"
)

type captureEmitter struct {
	events []telemetry.Event
}

func (c *captureEmitter) Emit(ev telemetry.Event) {
	c.events = append(c.events, ev)
}

func TestMultiFansOut(t *testing.T) {
	a := &captureEmitter{}
	b := &captureEmitter{}
	multi := telemetry.Multi{a, b}

	ev := telemetry.Event{
		Type:          telemetry.EventPartnerJoined,
		ParticipantID: "user_1",
		PartnerID:     "user_2",
		At:            time.Now(),
	}
	multi.Emit(ev)

	if assert.Len(t, a.events, 1) {
		assert.Equal(t, ev, a.events[0])
	}
	assert.Len(t, b.events, 1)
}

func TestNopIsSilent(t *testing.T) {
	// Nothing to observe; just must not panic.
	telemetry.Nop{}.Emit(telemetry.Event{Type: telemetry.EventSessionStart})
}
