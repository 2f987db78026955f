package config

import "time"

const (
	// Reputation
	InitialReputation        = 1000
	MaxReputation            = 1000
	MinReputation            = 0
	SuccessfulDialogReward   = 1
	EarlyDisconnectPenalty   = -1
	ConfirmedReportBonus     = 50
	ReputationRecoveryAmount = 100

	// Ban
	BanThresholdReputation = 500
	BanThresholdFrequency  = 5
	BanFrequencyWindow     = 24 * time.Hour
	BanLevel1Duration      = 30 * time.Minute
	BanLevel2Duration      = 6 * time.Hour
	BanLevel3Duration      = 24 * time.Hour

	// Dialog
	SuccessfulDialogDuration = 10 * time.Minute
	EarlyDisconnectDuration  = 2 * time.Minute
)

// ReportWeights maps a report reason to the reputation penalty it carries.
// Unrecognized reasons fall back to DefaultReportWeight.
var ReportWeights = map[string]int{
	"spam":          5,
	"inappropriate": 50,
	"harassment":    250,
	"underage":      250,
}

const DefaultReportWeight = 25
