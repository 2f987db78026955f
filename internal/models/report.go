package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report is a complaint filed by one session participant against the other.
type Report struct {
	ReportID       string `gorm:"primaryKey"` // UUID
	ReporterID     string `gorm:"index"`
	ReportedUserID string `gorm:"index"`
	RoomID         string
	Reason         string // "inappropriate_behavior", "spam", "harassment", ...
	Description    string
	Status         string // "new", "confirmed", "dismissed"
	CreatedAt      time.Time
}

// BeforeCreate assigns a fresh UUID and the initial status.
func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ReportID == "" {
		r.ReportID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = "new"
	}
	return
}
