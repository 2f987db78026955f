// Package reconnect maintains the local view of pending reconnect requests
// and their resolution. The pending set is a cache of the backend's list:
// Refresh replaces it wholesale, submissions never populate it optimistically
// and a resolved request can never re-enter it.
package reconnect

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"ser/app/internal/chatapi"
)

var (
	// ErrInvalidTarget is returned when the reconnect target is not in the
	// met-users history.
	ErrInvalidTarget = errors.New("invalid_target")
	// ErrUnknownRequest is returned when responding to a request that is
	// not currently pending locally (nonexistent or already resolved).
	ErrUnknownRequest = errors.New("unknown_request")
)

// TargetChecker answers whether a participant is in the met-users history.
// Implemented by the met-users registry.
type TargetChecker interface {
	Has(participantID string) bool
}

// DirectConnector attaches a partner as a connected session, bypassing the
// waiting state. Implemented by the session controller.
type DirectConnector interface {
	ConnectDirect(partner chatapi.Partner) error
}

// Manager owns the pending reconnect-request set for the local participant.
type Manager struct {
	backend   chatapi.ChatBackend
	targets   TargetChecker
	connector DirectConnector
	log       zerolog.Logger

	mu      sync.Mutex
	pending map[string]chatapi.ReconnectRequest
	order   []string
}

// NewManager wires the manager against the backend and its collaborators.
func NewManager(backend chatapi.ChatBackend, targets TargetChecker, connector DirectConnector, log zerolog.Logger) *Manager {
	return &Manager{
		backend:   backend,
		targets:   targets,
		connector: connector,
		log:       log,
		pending:   make(map[string]chatapi.ReconnectRequest),
	}
}

// SubmitRequest asks a previously-met participant for a new session. The
// local pending view is not touched: it reflects the responder's side and is
// only ever populated by Refresh.
func (m *Manager) SubmitRequest(ctx context.Context, targetID string) (string, error) {
	if m.targets == nil || !m.targets.Has(targetID) {
		return "", ErrInvalidTarget
	}
	requestID, err := m.backend.SubmitReconnectRequest(ctx, targetID)
	if err != nil {
		return "", err
	}
	m.log.Info().Str("target_id", targetID).Str("request_id", requestID).Msg("reconnect request submitted")
	return requestID, nil
}

// Respond accepts or declines a pending request. Accepting removes it and
// connects directly to the requester; declining just removes it. Responding
// to an id that is not pending fails with ErrUnknownRequest and leaves the
// set unchanged.
func (m *Manager) Respond(ctx context.Context, requestID string, accept bool) error {
	m.mu.Lock()
	req, ok := m.pending[requestID]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownRequest
	}

	if err := m.backend.ResolveReconnectRequest(ctx, requestID, accept); err != nil {
		return err
	}

	m.mu.Lock()
	m.removeLocked(requestID)
	m.mu.Unlock()

	if accept && m.connector != nil {
		return m.connector.ConnectDirect(req.Requester)
	}
	return nil
}

// Refresh replaces the pending set with the backend's current list. A full
// replace, not a merge: requests withdrawn out-of-band disappear here.
func (m *Manager) Refresh(ctx context.Context) error {
	requests, err := m.backend.ListReconnectRequests(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = make(map[string]chatapi.ReconnectRequest, len(requests))
	m.order = m.order[:0]
	for _, req := range requests {
		if _, dup := m.pending[req.ID]; dup {
			continue
		}
		m.pending[req.ID] = req
		m.order = append(m.order, req.ID)
	}
	return nil
}

// Pending returns the current requests in backend order.
func (m *Manager) Pending() []chatapi.ReconnectRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chatapi.ReconnectRequest, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.pending[id])
	}
	return out
}

func (m *Manager) removeLocked(requestID string) {
	delete(m.pending, requestID)
	for i, id := range m.order {
		if id == requestID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
