package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is one anonymous participant. Identity is a UUID minted on first
// contact; profile fields are filled in later through the profile endpoint.
type User struct {
	ID               string         `gorm:"primaryKey" json:"id"` // Anonymous UUID
	Username         string         `gorm:"uniqueIndex" json:"username"`
	DisplayName      string         `json:"display_name"`
	AvatarURL        string         `json:"avatar_url"`
	Gender           string         `json:"gender"`
	Interests        pq.StringArray `gorm:"type:text[]" json:"-"` // Tags for future match criteria
	ProfileCompleted bool           `json:"profile_completed"`
	IsAdmin          bool           `json:"is_admin"`

	// Moderation state, managed by the report pipeline and the admin CLI.
	ReputationScore int   `json:"-"`
	IsBlocked       bool  `json:"-"`
	BlockEndTime    int64 `json:"-"`
	BlockLevel      int   `json:"-"`
	LastBanDate     int64 `json:"-"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the ID is not
// set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// PartnerView is the reduced shape of a user as seen by the other side of a
// session.
type PartnerView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Gender      string `json:"gender"`
}

// AsPartner reduces the user to the partner-facing view.
func (u *User) AsPartner() PartnerView {
	return PartnerView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Gender:      u.Gender,
	}
}
