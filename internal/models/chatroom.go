package models

import "time"

// ChatRoom represents a 1-on-1 session between two users. It holds the
// participants and the active flag; the live pairing state itself lives in
// Redis and the room row is the durable record.
type ChatRoom struct {
	// RoomID is the unique identifier for the room (UUID).
	RoomID string `gorm:"primaryKey"`
	// User1ID is the anonymous ID of the first user in the room.
	User1ID string
	// User2ID is the anonymous ID of the second user in the room.
	User2ID string
	// Direct marks rooms created by reconnect acceptance or direct chat,
	// as opposed to queue matches.
	Direct bool
	// IsActive indicates whether the room is currently active.
	IsActive bool
	// StartedAt is the timestamp when the room was created.
	StartedAt time.Time
	// EndedAt is the timestamp when the room was closed.
	EndedAt time.Time
}

// OtherUser returns the id of the participant on the other side, or "" when
// the given user is not in the room.
func (r *ChatRoom) OtherUser(userID string) string {
	switch userID {
	case r.User1ID:
		return r.User2ID
	case r.User2ID:
		return r.User1ID
	default:
		return ""
	}
}

// Duration is the elapsed session time. For still-active rooms it is the
// time since start.
func (r *ChatRoom) Duration(now time.Time) time.Duration {
	end := r.EndedAt
	if r.IsActive || end.IsZero() {
		end = now
	}
	return end.Sub(r.StartedAt)
}
