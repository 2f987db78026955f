package poller

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNextDelayDoublesUpToCap(t *testing.T) {
	base := 2 * time.Second
	s := NewScheduler("test", base, nil, zerolog.Nop())

	assert.Equal(t, base, s.nextDelay(0))
	assert.Equal(t, base, s.nextDelay(1))
	assert.Equal(t, 2*base, s.nextDelay(2))
	assert.Equal(t, 4*base, s.nextDelay(3))
	assert.Equal(t, 8*base, s.nextDelay(4))
	assert.Equal(t, 8*base, s.nextDelay(5))
}

func TestNextDelayStaysBoundedDuringLongOutage(t *testing.T) {
	base := 2 * time.Second
	s := NewScheduler("test", base, nil, zerolog.Nop())

	// Failure counts past the shift width must not wrap the delay to zero.
	for _, failures := range []int{10, 62, 63, 64, 65, 100, 1 << 20} {
		d := s.nextDelay(failures)
		assert.Greater(t, d, time.Duration(0), "failures=%d", failures)
		assert.LessOrEqual(t, d, backoffMax*base, "failures=%d", failures)
	}
}
