// Package metusers keeps the history of previously-met partners for the
// local participant: at most one record per partner id, most recent first.
package metusers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ser/app/internal/chatapi"
)

// ErrUnknownPartner is returned when a direct chat targets a participant
// that is not in the history.
var ErrUnknownPartner = errors.New("unknown_partner")

// DirectConnector attaches a partner as a connected session. Implemented by
// the session controller.
type DirectConnector interface {
	ConnectDirect(partner chatapi.Partner) error
}

// Registry owns the met-user collection. It doubles as the session
// controller's EncounterRecorder and the reconnect manager's TargetChecker.
type Registry struct {
	// Clock is injectable for tests. Defaults to time.Now.
	Clock func() time.Time

	backend   chatapi.ChatBackend
	connector DirectConnector

	mu      sync.Mutex
	records map[string]chatapi.MetUserRecord
}

// NewRegistry builds an empty registry.
func NewRegistry(backend chatapi.ChatBackend, connector DirectConnector) *Registry {
	return &Registry{
		Clock:     time.Now,
		backend:   backend,
		connector: connector,
		records:   make(map[string]chatapi.MetUserRecord),
	}
}

// SetConnector installs the direct connector after construction. The
// registry and the session controller reference each other, so one side has
// to be wired late.
func (r *Registry) SetConnector(connector DirectConnector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connector = connector
}

// RecordEncounter upserts the record for the given partner. A repeat
// encounter replaces the prior record; last_met never moves backwards.
func (r *Registry) RecordEncounter(partner chatapi.Partner, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Clock()
	if prev, ok := r.records[partner.ID]; ok && prev.LastMet.After(now) {
		now = prev.LastMet
	}
	r.records[partner.ID] = chatapi.MetUserRecord{
		ID:              partner.ID,
		Username:        partner.Username,
		DisplayName:     partner.DisplayName,
		AvatarURL:       partner.AvatarURL,
		Gender:          partner.Gender,
		LastMet:         now,
		SessionDuration: int(duration / time.Second),
	}
}

// List returns the history ordered by last_met descending. Recency ordering
// is a user-facing contract.
func (r *Registry) List() []chatapi.MetUserRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chatapi.MetUserRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMet.After(out[j].LastMet)
	})
	return out
}

// Has reports whether the partner id is in the history.
func (r *Registry) Has(participantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[participantID]
	return ok
}

// Refresh replaces the collection with the backend's list.
func (r *Registry) Refresh(ctx context.Context) error {
	records, err := r.backend.ListMetUsers(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]chatapi.MetUserRecord, len(records))
	for _, rec := range records {
		if prev, ok := r.records[rec.ID]; ok && prev.LastMet.After(rec.LastMet) {
			continue
		}
		r.records[rec.ID] = rec
	}
	return nil
}

// StartDirectChat re-pairs with a history partner without an approval step.
func (r *Registry) StartDirectChat(ctx context.Context, participantID string) error {
	if !r.Has(participantID) {
		return ErrUnknownPartner
	}
	partner, err := r.backend.StartDirectChat(ctx, participantID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	connector := r.connector
	r.mu.Unlock()
	if connector != nil {
		return connector.ConnectDirect(partner)
	}
	return nil
}
