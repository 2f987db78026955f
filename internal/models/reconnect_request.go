package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reconnect request lifecycle. Once resolved a request never returns to
// pending and its id is never reused.
const (
	ReconnectPending  = "pending"
	ReconnectAccepted = "accepted"
	ReconnectDeclined = "declined"
)

// ReconnectRequest is an approval-gated request to re-pair with a specific
// previously-met participant.
type ReconnectRequest struct {
	ID          string `gorm:"primaryKey"` // UUID
	RequesterID string `gorm:"index;not null"`
	TargetID    string `gorm:"index;not null"`
	Status      string `gorm:"index;not null"`
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// BeforeCreate assigns a fresh UUID and the pending status.
func (r *ReconnectRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = ReconnectPending
	}
	return
}
