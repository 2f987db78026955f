// Package chatapi defines the capability boundary between the client core and
// the chat backend. The rest of the core (session controller, reconnect
// manager, met-users registry, pollers) talks only to the ChatBackend
// interface; whether the other side is the remote service or the local
// preview simulator is decided once, at construction.
package chatapi

import (
	"context"
	"errors"
	"time"
)

// SessionState is the remote-visible pairing state of one participant.
type SessionState string

const (
	StateNone      SessionState = "none"
	StateWaiting   SessionState = "waiting"
	StateConnected SessionState = "connected"
)

// Gender of a participant. The simulator relies on Complement to pick a
// synthetic partner.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Complement returns the opposite gender. An unset gender counts as male, so
// the default simulated partner is female.
func (g Gender) Complement() Gender {
	if g == GenderFemale {
		return GenderMale
	}
	return GenderFemale
}

// Participant is the resolved local identity, owned by the authentication
// collaborator. The session controller only ever reads it.
type Participant struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	DisplayName      string `json:"display_name"`
	AvatarURL        string `json:"avatar_url"`
	Gender           Gender `json:"gender"`
	ProfileCompleted bool   `json:"profile_completed"`
	IsAdmin          bool   `json:"is_admin"`
}

// Partner is the reduced view of the participant on the other side of a
// session. Immutable once attached.
type Partner struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Gender      Gender `json:"gender"`
}

// PairingUpdate is the backend's answer to RequestPairing and SessionStatus.
// Partner is present iff State is StateConnected.
type PairingUpdate struct {
	State   SessionState `json:"status"`
	Partner *Partner     `json:"partner,omitempty"`
}

// ReconnectRequest is one pending approval-gated re-pairing request, as seen
// by the responder.
type ReconnectRequest struct {
	ID        string    `json:"id"`
	Requester Partner   `json:"requester"`
	CreatedAt time.Time `json:"created_at"`
}

// MetUserRecord is one entry of the previously-met history.
type MetUserRecord struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"display_name"`
	AvatarURL       string    `json:"avatar_url"`
	Gender          Gender    `json:"gender"`
	LastMet         time.Time `json:"last_met"`
	SessionDuration int       `json:"session_duration"`
}

// ChatStats are aggregate usage numbers for the local participant.
type ChatStats struct {
	TotalChats      int `json:"total_chats"`
	TotalTime       int `json:"total_time"`
	AverageDuration int `json:"average_duration"`
}

// ErrBackendUnavailable wraps transport and protocol failures so callers can
// distinguish "the service said no" from "the service is gone".
var ErrBackendUnavailable = errors.New("backend_unavailable")

// ChatBackend abstracts the pairing service. Implementations must expose the
// same observable state transitions so the session controller never branches
// on which one is active.
type ChatBackend interface {
	// RequestPairing enters the local participant into the pairing queue.
	// An immediate match answers StateConnected with a partner; otherwise
	// StateWaiting, and the partner is observed by a later SessionStatus.
	RequestPairing(ctx context.Context) (PairingUpdate, error)

	// SessionStatus reports the current pairing state. StateNone means the
	// backend no longer knows about the session.
	SessionStatus(ctx context.Context) (PairingUpdate, error)

	// EndSession releases the pairing slot.
	EndSession(ctx context.Context) error

	// ListReconnectRequests returns the pending requests addressed to the
	// local participant, in backend order.
	ListReconnectRequests(ctx context.Context) ([]ReconnectRequest, error)

	// SubmitReconnectRequest asks a previously-met participant for a new
	// session. Returns the created request id.
	SubmitReconnectRequest(ctx context.Context, targetID string) (string, error)

	// ResolveReconnectRequest accepts or declines a pending request.
	ResolveReconnectRequest(ctx context.Context, requestID string, accept bool) error

	// ListMetUsers returns the met-user history, most recent first.
	ListMetUsers(ctx context.Context) ([]MetUserRecord, error)

	// StartDirectChat re-pairs with a history partner without approval.
	StartDirectChat(ctx context.Context, targetID string) (Partner, error)

	// ReportParticipant files a report against the current partner.
	ReportParticipant(ctx context.Context, partnerID, reason, description string) error

	// Stats returns aggregate chat statistics.
	Stats(ctx context.Context) (ChatStats, error)
}
