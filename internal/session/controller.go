// Package session owns the client-side pairing state machine: none → waiting
// → connected → none. The controller is the single writer of session state;
// asynchronous results (poll answers, late responses) are tagged with the
// generation they were issued under and dropped when a newer lifetime has
// started, so End always wins races.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ser/app/internal/chatapi"
	"ser/app/internal/telemetry"
)

// EncounterRecorder stores a finished encounter. Implemented by the
// met-users registry; declared here to keep the dependency one-way.
type EncounterRecorder interface {
	RecordEncounter(partner chatapi.Partner, duration time.Duration)
}

// Controller drives one participant's session lifecycle against a
// ChatBackend. All mutations go through the internal mutex; callers observe
// state via Snapshot.
type Controller struct {
	// Clock is injectable for tests. Defaults to time.Now.
	Clock func() time.Time

	backend  chatapi.ChatBackend
	recorder EncounterRecorder
	events   telemetry.Emitter
	log      zerolog.Logger

	mu          sync.Mutex
	participant *chatapi.Participant
	state       chatapi.SessionState
	partner     *chatapi.Partner
	generation  uint64
	startedAt   time.Time
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	State      chatapi.SessionState
	Partner    *chatapi.Partner
	Generation uint64
}

// NewController wires the state machine. recorder may be nil when no history
// should be kept; events may be nil for silence.
func NewController(backend chatapi.ChatBackend, recorder EncounterRecorder, events telemetry.Emitter, log zerolog.Logger) *Controller {
	if events == nil {
		events = telemetry.Nop{}
	}
	return &Controller{
		Clock:    time.Now,
		backend:  backend,
		recorder: recorder,
		events:   events,
		log:      log,
		state:    chatapi.StateNone,
	}
}

// SetParticipant installs (or clears) the resolved local identity.
func (c *Controller) SetParticipant(p *chatapi.Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.participant = p
}

// Participant returns the current identity, or nil.
func (c *Controller) Participant() *chatapi.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participant
}

// Snapshot returns the current state, partner and generation.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{State: c.state, Generation: c.generation}
	if c.partner != nil {
		p := *c.partner
		snap.Partner = &p
	}
	return snap
}

// Start submits a pairing request. An immediate match lands in connected;
// a queued one lands in waiting and relies on Poll to observe the partner.
// On backend failure the state reverts to none and the error is surfaced.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.participant == nil {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	c.generation++
	gen := c.generation
	c.state = chatapi.StateWaiting
	c.partner = nil
	c.startedAt = c.Clock()
	participantID := c.participant.ID
	c.mu.Unlock()

	c.events.Emit(telemetry.Event{
		Type:          telemetry.EventSessionStart,
		ParticipantID: participantID,
		At:            c.Clock(),
	})

	update, err := c.backend.RequestPairing(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		// Superseded by End or a newer Start while in flight.
		return nil
	}
	if err != nil {
		c.state = chatapi.StateNone
		c.partner = nil
		return err
	}
	switch {
	case update.State == chatapi.StateConnected && update.Partner != nil:
		c.attachLocked(*update.Partner, participantID)
	case update.State == chatapi.StateWaiting:
		// Stay waiting; the poll loop picks it up from here.
	default:
		c.state = chatapi.StateNone
		c.partner = nil
		return ErrSessionExpired
	}
	return nil
}

// Poll reconciles the waiting state against the backend. It is a no-op in
// none and connected, drops stale-generation answers, and never regresses
// connected back to waiting. Poll errors leave the local state untouched.
func (c *Controller) Poll(ctx context.Context) error {
	c.mu.Lock()
	if c.state != chatapi.StateWaiting {
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	var participantID string
	if c.participant != nil {
		participantID = c.participant.ID
	}
	c.mu.Unlock()

	update, err := c.backend.SessionStatus(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		c.log.Debug().Uint64("generation", gen).Msg("dropping stale poll result")
		return nil
	}
	if err != nil {
		return err
	}
	if c.state != chatapi.StateWaiting {
		// A concurrent poll already applied a transition for this
		// generation; apply nothing on top of it.
		return nil
	}
	switch {
	case update.State == chatapi.StateConnected && update.Partner != nil:
		c.attachLocked(*update.Partner, participantID)
	case update.State == chatapi.StateWaiting:
		// Still queued.
	case update.State == chatapi.StateNone:
		c.state = chatapi.StateNone
		c.partner = nil
		return ErrSessionExpired
	}
	return nil
}

// attachLocked moves to connected with the given partner. Callers hold c.mu.
func (c *Controller) attachLocked(partner chatapi.Partner, participantID string) {
	c.state = chatapi.StateConnected
	c.partner = &partner
	c.events.Emit(telemetry.Event{
		Type:          telemetry.EventPartnerJoined,
		ParticipantID: participantID,
		PartnerID:     partner.ID,
		At:            c.Clock(),
	})
}

// End terminates the session from any state. The local transition happens
// first and unconditionally (late poll results for the old generation are
// discarded); the encounter is recorded when a partner was attached; the
// backend release error, if any, is still returned for display.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	partner := c.partner
	startedAt := c.startedAt
	var participantID string
	if c.participant != nil {
		participantID = c.participant.ID
	}
	c.state = chatapi.StateNone
	c.partner = nil
	c.startedAt = time.Time{}
	c.mu.Unlock()

	var seconds int
	if !startedAt.IsZero() {
		seconds = int(c.Clock().Sub(startedAt) / time.Second)
	}
	if partner != nil && !startedAt.IsZero() && c.recorder != nil {
		c.recorder.RecordEncounter(*partner, time.Duration(seconds)*time.Second)
	}
	var partnerID string
	if partner != nil {
		partnerID = partner.ID
	}
	c.events.Emit(telemetry.Event{
		Type:           telemetry.EventSessionEnd,
		ParticipantID:  participantID,
		PartnerID:      partnerID,
		At:             c.Clock(),
		SessionSeconds: seconds,
	})

	if err := c.backend.EndSession(ctx); err != nil {
		c.log.Warn().Err(err).Msg("end session release failed")
		return err
	}
	return nil
}

// ConnectDirect attaches a partner without passing through waiting. Used by
// reconnect acceptance and by direct chat from the met-users history.
func (c *Controller) ConnectDirect(partner chatapi.Partner) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.participant == nil {
		return ErrNotAuthenticated
	}
	c.generation++
	c.startedAt = c.Clock()
	c.attachLocked(partner, c.participant.ID)
	return nil
}

// ReportPartner files a report against the attached partner. Legal only
// while connected; session state is unchanged either way.
func (c *Controller) ReportPartner(ctx context.Context, reason, description string) error {
	c.mu.Lock()
	if c.state != chatapi.StateConnected || c.partner == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	partnerID := c.partner.ID
	c.mu.Unlock()
	return c.backend.ReportParticipant(ctx, partnerID, reason, description)
}
