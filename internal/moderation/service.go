// Package moderation handles user reports, including reputation management
// and applying escalating restrictions.
package moderation

import (
	"time"

	"github.com/rs/zerolog"

	"ser/app/internal/config"
	"ser/app/internal/models"
)

// Store is the slice of the storage layer the moderation pipeline needs.
type Store interface {
	GetUserByID(id string) (*models.User, error)
	UpdateUser(user *models.User) error
	UpdateUserReputation(userID string, delta int) error
	SetBanFlag(userID string, duration time.Duration) error
	GetReportByID(id string) (*models.Report, error)
	GetReportsForUser(userID string, since time.Time) ([]models.Report, error)
	UpdateReportStatus(id, status string) error
}

// Service handles the business logic for reports.
type Service struct {
	Storage Store
	Log     zerolog.Logger
}

// NewService creates a new moderation service.
func NewService(s Store, log zerolog.Logger) *Service {
	return &Service{
		Storage: s,
		Log:     log.With().Str("component", "moderation").Logger(),
	}
}

// ReasonWeight returns the reputation penalty for a report reason.
func ReasonWeight(reason string) int {
	if w, ok := config.ReportWeights[reason]; ok {
		return w
	}
	return config.DefaultReportWeight
}

// HandleReport processes a new report: the reported user loses reputation
// according to the reason, then ban thresholds are checked.
func (s *Service) HandleReport(report *models.Report) error {
	weight := ReasonWeight(report.Reason)
	if err := s.Storage.UpdateUserReputation(report.ReportedUserID, -weight); err != nil {
		return err
	}
	return s.CheckForBan(report.ReportedUserID)
}

// ConfirmReport is the admin path: a reviewed report grants the reporter a
// reputation bonus and marks the report confirmed.
func (s *Service) ConfirmReport(reportID string) error {
	report, err := s.Storage.GetReportByID(reportID)
	if err != nil {
		return err
	}
	if err := s.Storage.UpdateUserReputation(report.ReporterID, config.ConfirmedReportBonus); err != nil {
		return err
	}
	return s.Storage.UpdateReportStatus(reportID, "confirmed")
}

// CheckForBan checks if a user should be banned based on their reputation
// and report history.
func (s *Service) CheckForBan(userID string) error {
	user, err := s.Storage.GetUserByID(userID)
	if err != nil {
		return err
	}

	// Threshold ban
	if user.ReputationScore < config.BanThresholdReputation {
		return s.applyBan(user)
	}

	// Frequency ban
	reports, err := s.Storage.GetReportsForUser(userID, time.Now().Add(-config.BanFrequencyWindow))
	if err != nil {
		return err
	}
	if len(reports) > config.BanThresholdFrequency {
		return s.applyBan(user)
	}

	return nil
}

// RewardDialog adjusts reputation after a session ends: long dialogs earn a
// small reward, very short ones a small penalty for both sides.
func (s *Service) RewardDialog(userID string, duration time.Duration) error {
	switch {
	case duration >= config.SuccessfulDialogDuration:
		return s.Storage.UpdateUserReputation(userID, config.SuccessfulDialogReward)
	case duration < config.EarlyDisconnectDuration:
		return s.Storage.UpdateUserReputation(userID, config.EarlyDisconnectPenalty)
	default:
		return nil
	}
}

func (s *Service) applyBan(user *models.User) error {
	level := 1
	if user.LastBanDate > 0 {
		if time.Since(time.Unix(user.LastBanDate, 0)) < 7*24*time.Hour {
			level = 2
		} else if time.Since(time.Unix(user.LastBanDate, 0)) < 30*24*time.Hour {
			level = 3
		}
	}

	duration := banDuration(level)
	user.IsBlocked = true
	user.BlockEndTime = time.Now().Add(duration).Unix()
	user.BlockLevel = level
	user.LastBanDate = time.Now().Unix()
	if err := s.Storage.UpdateUser(user); err != nil {
		return err
	}
	if err := s.Storage.SetBanFlag(user.ID, duration); err != nil {
		return err
	}

	s.Log.Warn().
		Str("user_id", user.ID).
		Int("level", level).
		Dur("duration", duration).
		Msg("user banned")
	return nil
}

func banDuration(level int) time.Duration {
	switch level {
	case 1:
		return config.BanLevel1Duration
	case 2:
		return config.BanLevel2Duration
	default:
		return config.BanLevel3Duration
	}
}
