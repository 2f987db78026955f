// Package pairing implements the matchmaking loop: users enter the search
// queue, the matcher pairs them two at a time into chat rooms and publishes
// the resulting session state for clients to poll.
package pairing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ser/app/internal/models"
	"ser/app/internal/storage"
)

// SweepInterval is how often the background loop re-scans the queue for
// users whose initial match attempt found nobody.
const SweepInterval = 500 * time.Millisecond

// Store is the slice of the storage layer the matcher needs.
type Store interface {
	GetSearchingUsers() ([]string, error)
	RemoveUserFromSearchQueue(userID string) error
	IsUserBanned(userID string) (bool, error)
	SaveRoom(room *models.ChatRoom) error
	GetRoomByID(roomID string) (*models.ChatRoom, error)
	GetActiveRoomIDs() ([]string, error)
	GetSessionState(userID string) (*storage.SessionState, error)
	SetSessionState(userID string, state storage.SessionState) error
}

// Matcher pairs searching users into rooms. All matching goes through one
// mutex so the HTTP path and the background sweep never pair the same user
// twice.
type Matcher struct {
	Storage Store
	Log     zerolog.Logger

	mu sync.Mutex
}

// NewMatcher creates a Matcher over the given storage.
func NewMatcher(s Store, log zerolog.Logger) *Matcher {
	return &Matcher{
		Storage: s,
		Log:     log.With().Str("component", "matcher").Logger(),
	}
}

// Run drives the background sweep until the context is cancelled.
func (m *Matcher) Run(ctx context.Context) {
	m.Log.Info().Msg("matcher started")
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Log.Info().Msg("matcher stopped")
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep attempts to pair every user currently in the queue.
func (m *Matcher) Sweep() {
	users, err := m.Storage.GetSearchingUsers()
	if err != nil {
		m.Log.Error().Err(err).Msg("failed to read search queue")
		return
	}
	for _, userID := range users {
		if _, err := m.TryMatch(userID); err != nil {
			m.Log.Error().Err(err).Str("user_id", userID).Msg("match attempt failed")
		}
	}
}

// TryMatch looks for a partner for userID. It returns the created room when
// a pair was formed, or nil when the user stays queued. The caller is
// expected to have put the user into the search queue already.
func (m *Matcher) TryMatch(userID string) (*models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// The user may have been paired by a concurrent attempt between the
	// caller's enqueue and this lock.
	state, err := m.Storage.GetSessionState(userID)
	if err != nil {
		return nil, err
	}
	if state != nil && state.Status == "connected" {
		return nil, nil
	}

	candidates, err := m.Storage.GetSearchingUsers()
	if err != nil {
		return nil, err
	}

	for _, targetID := range candidates {
		if targetID == userID {
			continue
		}
		banned, err := m.Storage.IsUserBanned(targetID)
		if err != nil {
			return nil, err
		}
		if banned {
			// Banned users are dropped from the queue rather than
			// matched.
			_ = m.Storage.RemoveUserFromSearchQueue(targetID)
			continue
		}
		return m.pair(userID, targetID)
	}
	return nil, nil
}

// pair creates the room and flips both users from the queue to connected
// state. Called with the matcher lock held.
func (m *Matcher) pair(userID, targetID string) (*models.ChatRoom, error) {
	now := time.Now().UTC()
	room := &models.ChatRoom{
		RoomID:    uuid.New().String(),
		User1ID:   userID,
		User2ID:   targetID,
		IsActive:  true,
		StartedAt: now,
	}
	if err := m.Storage.SaveRoom(room); err != nil {
		return nil, err
	}

	if err := m.connect(userID, targetID, room.RoomID, now); err != nil {
		return nil, err
	}
	if err := m.connect(targetID, userID, room.RoomID, now); err != nil {
		return nil, err
	}

	_ = m.Storage.RemoveUserFromSearchQueue(userID)
	_ = m.Storage.RemoveUserFromSearchQueue(targetID)

	m.Log.Info().
		Str("room_id", room.RoomID).
		Str("user1", userID).
		Str("user2", targetID).
		Msg("match found")
	return room, nil
}

func (m *Matcher) connect(userID, partnerID, roomID string, startedAt time.Time) error {
	return m.Storage.SetSessionState(userID, storage.SessionState{
		Status:    "connected",
		RoomID:    roomID,
		PartnerID: partnerID,
		StartedAt: startedAt,
	})
}

// PairDirect puts two specific users into a room immediately, bypassing the
// queue. Used for accepted reconnect requests and direct chats with met
// users. Any live session either user had is ended first.
func (m *Matcher) PairDirect(userID, targetID string) (*models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.Storage.RemoveUserFromSearchQueue(userID)
	_ = m.Storage.RemoveUserFromSearchQueue(targetID)

	now := time.Now().UTC()
	room := &models.ChatRoom{
		RoomID:    uuid.New().String(),
		User1ID:   userID,
		User2ID:   targetID,
		Direct:    true,
		IsActive:  true,
		StartedAt: now,
	}
	if err := m.Storage.SaveRoom(room); err != nil {
		return nil, err
	}
	if err := m.connect(userID, targetID, room.RoomID, now); err != nil {
		return nil, err
	}
	if err := m.connect(targetID, userID, room.RoomID, now); err != nil {
		return nil, err
	}

	m.Log.Info().
		Str("room_id", room.RoomID).
		Str("user1", userID).
		Str("user2", targetID).
		Msg("direct room created")
	return room, nil
}

// RecoverActiveRooms rebuilds Redis session state for rooms that were active
// when the process last stopped. Redis may have been flushed while Postgres
// kept the rows.
func (m *Matcher) RecoverActiveRooms() error {
	roomIDs, err := m.Storage.GetActiveRoomIDs()
	if err != nil {
		return err
	}
	for _, roomID := range roomIDs {
		room, err := m.Storage.GetRoomByID(roomID)
		if err != nil {
			m.Log.Error().Err(err).Str("room_id", roomID).Msg("failed to load room during recovery")
			continue
		}
		if err := m.connect(room.User1ID, room.User2ID, room.RoomID, room.StartedAt); err != nil {
			return err
		}
		if err := m.connect(room.User2ID, room.User1ID, room.RoomID, room.StartedAt); err != nil {
			return err
		}
	}
	if len(roomIDs) > 0 {
		m.Log.Info().Int("rooms", len(roomIDs)).Msg("recovered active rooms")
	}
	return nil
}
