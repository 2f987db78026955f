package models

import "time"

// MetUser is one entry of a user's met-partners history. At most one row per
// (owner, partner) pair; a repeat encounter updates the row in place.
type MetUser struct {
	ID uint `gorm:"primaryKey"`
	// OwnerID is the user whose history this row belongs to.
	OwnerID string `gorm:"index;uniqueIndex:idx_owner_partner;not null"`
	// PartnerID is the previously-met participant.
	PartnerID string `gorm:"uniqueIndex:idx_owner_partner;not null"`

	// Snapshot of the partner's profile at the time of the encounter.
	Username    string
	DisplayName string
	AvatarURL   string
	Gender      string

	// LastMet is when the most recent shared session ended.
	LastMet time.Time `gorm:"index"`
	// SessionDuration is the length of that session in seconds.
	SessionDuration int
}
