package chatapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ser/app/internal/prefs"
)

// PartnerDelay is how long the simulator waits after RequestPairing before a
// partner becomes visible to SessionStatus.
const PartnerDelay = 3000 * time.Millisecond

var (
	errNoPendingRequest = errors.New("reconnect request not pending")
	errNotMet           = errors.New("target not in met history")
)

// PreviewSimulator is the ChatBackend used when no authenticated context
// exists. It reproduces the remote service's observable transitions without
// any network round-trips: RequestPairing reports waiting immediately, and
// exactly PartnerDelay later the next SessionStatus poll observes connected
// with a partner whose gender is the complement of the stored local gender.
// Reconnect requests are pre-seeded and resolve locally.
type PreviewSimulator struct {
	// Clock is injectable for tests. Defaults to time.Now.
	Clock func() time.Time

	mu      sync.Mutex
	local   prefs.Identity
	pairing bool
	readyAt time.Time
	partner *Partner
	pending []ReconnectRequest
	met     []MetUserRecord
	nextID  int
}

// NewPreviewSimulator seeds a simulator from the persisted identity store.
// A nil store behaves like an empty one.
func NewPreviewSimulator(store *prefs.Store) *PreviewSimulator {
	var local prefs.Identity
	if store != nil {
		local = store.Load()
	}
	s := &PreviewSimulator{
		Clock:  time.Now,
		local:  local,
		nextID: 1,
	}
	s.seed()
	return s
}

// seed installs the synthetic history and the single pending reconnect
// request the preview flow starts with.
func (s *PreviewSimulator) seed() {
	now := s.Clock()
	s.met = []MetUserRecord{
		{
			ID:              "met-1",
			Username:        "ahmed_m",
			DisplayName:     "أحمد محمد",
			Gender:          GenderMale,
			LastMet:         now.Add(-1 * time.Hour),
			SessionDuration: 300,
		},
		{
			ID:              "met-2",
			Username:        "sara_a",
			DisplayName:     "سارة أحمد",
			Gender:          GenderFemale,
			LastMet:         now.Add(-48 * time.Hour),
			SessionDuration: 450,
		},
	}
	s.pending = []ReconnectRequest{
		{
			ID: "preview-request-1",
			Requester: Partner{
				ID:          "met-2",
				Username:    "sara_a",
				DisplayName: "سارة أحمد",
				Gender:      GenderFemale,
			},
			CreatedAt: now,
		},
	}
}

// LocalParticipant builds the synthetic identity the preview session runs as.
func (s *PreviewSimulator) LocalParticipant() Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Participant{
		ID:               "preview",
		Username:         s.local.Username,
		DisplayName:      s.local.DisplayName,
		AvatarURL:        s.local.AvatarURL,
		Gender:           Gender(s.local.Gender),
		ProfileCompleted: true,
	}
	if p.Username == "" {
		p.Username = "preview"
	}
	if p.DisplayName == "" {
		p.DisplayName = "مستخدم تجريبي"
	}
	return p
}

func (s *PreviewSimulator) RequestPairing(context.Context) (PairingUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairing = true
	s.partner = nil
	s.readyAt = s.Clock().Add(PartnerDelay)
	return PairingUpdate{State: StateWaiting}, nil
}

func (s *PreviewSimulator) SessionStatus(context.Context) (PairingUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.partner != nil {
		return PairingUpdate{State: StateConnected, Partner: s.partner}, nil
	}
	if !s.pairing {
		return PairingUpdate{State: StateNone}, nil
	}
	if s.Clock().Before(s.readyAt) {
		return PairingUpdate{State: StateWaiting}, nil
	}
	s.partner = s.makePartner()
	return PairingUpdate{State: StateConnected, Partner: s.partner}, nil
}

// makePartner picks the complement of the stored local gender; an unset
// gender defaults to male, so the default partner is female.
func (s *PreviewSimulator) makePartner() *Partner {
	gender := Gender(s.local.Gender).Complement()
	p := Partner{
		ID:       "demo-partner",
		Username: "demo_partner",
		Gender:   gender,
	}
	if gender == GenderFemale {
		p.DisplayName = "سارة أحمد"
	} else {
		p.DisplayName = "أحمد محمد"
	}
	return &p
}

func (s *PreviewSimulator) EndSession(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairing = false
	s.partner = nil
	return nil
}

func (s *PreviewSimulator) ListReconnectRequests(context.Context) ([]ReconnectRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReconnectRequest, len(s.pending))
	copy(out, s.pending)
	return out, nil
}

func (s *PreviewSimulator) SubmitReconnectRequest(_ context.Context, targetID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findMet(targetID) == nil {
		return "", errNotMet
	}
	id := fmt.Sprintf("preview-request-%d", s.nextID+1)
	s.nextID++
	// The request targets the other side; nothing shows up in the local
	// pending view, matching the remote contract.
	return id, nil
}

func (s *PreviewSimulator) ResolveReconnectRequest(_ context.Context, requestID string, accept bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, req := range s.pending {
		if req.ID != requestID {
			continue
		}
		s.pending = append(s.pending[:i], s.pending[i+1:]...)
		if accept {
			partner := req.Requester
			s.pairing = true
			s.partner = &partner
		}
		return nil
	}
	return errNoPendingRequest
}

func (s *PreviewSimulator) ListMetUsers(context.Context) ([]MetUserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MetUserRecord, len(s.met))
	copy(out, s.met)
	return out, nil
}

func (s *PreviewSimulator) StartDirectChat(_ context.Context, targetID string) (Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findMet(targetID)
	if rec == nil {
		return Partner{}, errNotMet
	}
	partner := Partner{
		ID:          rec.ID,
		Username:    rec.Username,
		DisplayName: rec.DisplayName,
		AvatarURL:   rec.AvatarURL,
		Gender:      rec.Gender,
	}
	s.pairing = true
	s.partner = &partner
	return partner, nil
}

func (s *PreviewSimulator) findMet(id string) *MetUserRecord {
	for i := range s.met {
		if s.met[i].ID == id {
			return &s.met[i]
		}
	}
	return nil
}

func (s *PreviewSimulator) ReportParticipant(_ context.Context, _, _, _ string) error {
	return nil
}

func (s *PreviewSimulator) Stats(context.Context) (ChatStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, rec := range s.met {
		total += rec.SessionDuration
	}
	stats := ChatStats{TotalChats: len(s.met), TotalTime: total}
	if len(s.met) > 0 {
		stats.AverageDuration = total / len(s.met)
	}
	return stats, nil
}
