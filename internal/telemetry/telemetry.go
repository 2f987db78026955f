// Package telemetry emits session lifecycle events to interested sinks.
// Delivery is best-effort: a sink that blocks or fails must never stall the
// session state machine, so emitters swallow their own errors.
package telemetry

import (
	"time"

	"github.com/rs/zerolog"
)

// Event types produced by the session controller.
const (
	EventSessionStart  = "session_start"
	EventPartnerJoined = "partner_joined"
	EventSessionEnd    = "session_end"
)

// Event is one lifecycle occurrence.
type Event struct {
	Type           string
	ParticipantID  string
	PartnerID      string
	At             time.Time
	SessionSeconds int
}

// Emitter receives lifecycle events. Implementations must not block.
type Emitter interface {
	Emit(Event)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Emit(Event) {}

// LogEmitter writes events as structured log lines.
type LogEmitter struct {
	Log zerolog.Logger
}

func (l LogEmitter) Emit(ev Event) {
	entry := l.Log.Info().
		Str("event", ev.Type).
		Str("participant_id", ev.ParticipantID).
		Time("at", ev.At)
	if ev.PartnerID != "" {
		entry = entry.Str("partner_id", ev.PartnerID)
	}
	if ev.Type == EventSessionEnd {
		entry = entry.Int("session_seconds", ev.SessionSeconds)
	}
	entry.Msg("session event")
}

// Multi fans an event out to several emitters.
type Multi []Emitter

func (m Multi) Emit(ev Event) {
	for _, e := range m {
		e.Emit(ev)
	}
}
