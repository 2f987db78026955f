// Package poller drives the periodic refresh loops: the 2 s session-status
// poll while a chat view is open against the remote backend, and the 10 s
// combined reconnect-requests + met-users refresh while an authenticated,
// non-preview participant exists. Each scheduler owns its lifetime through a
// context it cancels itself; a tick is armed only after the previous one
// completes, so slow polls never pile up.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ser/app/internal/chatapi"
)

const (
	// SessionPollInterval is the session-status poll period.
	SessionPollInterval = 2000 * time.Millisecond
	// RefreshInterval is the reconnect/met-users refresh period.
	RefreshInterval = 10000 * time.Millisecond

	// backoffMax caps the failure backoff at 8x the base interval.
	backoffMax = 8
	// unavailableThreshold is how many consecutive failures are tolerated
	// before the scheduler reports the backend as unavailable.
	unavailableThreshold = 5
)

// Task is one poll tick. A non-nil error counts toward the backoff; a nil
// error resets it.
type Task func(ctx context.Context) error

// Scheduler runs a Task on a fixed interval with bounded exponential backoff
// on repeated failures.
type Scheduler struct {
	// OnUnavailable, when set, is invoked once per outage after the
	// failure threshold is crossed, with ErrBackendUnavailable wrapping
	// the last tick error.
	OnUnavailable func(error)

	name     string
	interval time.Duration
	task     Task
	log      zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewScheduler builds a scheduler; Start actually launches it.
func NewScheduler(name string, interval time.Duration, task Task, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
		log:      log,
	}
}

// Start launches the loop under a child of parent. Calling Start on a
// running scheduler is a no-op; the owning view restarts it explicitly after
// Stop when its context changes.
func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	go s.run(ctx)
}

// Stop cancels the owned context and waits for the loop to exit, so no tick
// can fire after Stop returns. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.running = false
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	failures := 0
	reported := false
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		err := s.task(ctx)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			failures++
			s.log.Warn().Err(err).Str("poller", s.name).Int("consecutive_failures", failures).Msg("poll tick failed")
			if failures >= unavailableThreshold && !reported {
				reported = true
				if s.OnUnavailable != nil {
					s.OnUnavailable(errors.Join(chatapi.ErrBackendUnavailable, err))
				}
			}
		} else {
			if failures > 0 {
				s.log.Info().Str("poller", s.name).Msg("poll recovered")
			}
			failures = 0
			reported = false
		}

		timer.Reset(s.nextDelay(failures))
	}
}

// nextDelay doubles the base interval per consecutive failure, capped at
// backoffMax times the base.
func (s *Scheduler) nextDelay(failures int) time.Duration {
	if failures == 0 {
		return s.interval
	}
	// Clamp before shifting: large failure streaks would overflow the shift.
	if failures > 4 {
		return s.interval * backoffMax
	}
	return s.interval * time.Duration(1<<(failures-1))
}
