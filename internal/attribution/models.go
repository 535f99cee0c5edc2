package attribution

import (
	"time"

	"prize_engine/internal/prize"
)

// Reason codes form a closed taxonomy: every attribution resolves to exactly
// one of these, business outcomes are values and never errors.
const (
	// Winning.
	ReasonWinCalendar    = "WIN_CALENDAR"
	ReasonWinProbability = "WIN_PROBABILITY"
	ReasonWinQuota       = "WIN_QUOTA"
	ReasonWinRank        = "WIN_RANK"
	ReasonWinInstant     = "WIN_INSTANT"

	// Losing (expected).
	ReasonNotScheduled = "LOSE_NOT_SCHEDULED"
	ReasonExpired      = "LOSE_EXPIRED"
	ReasonProbability  = "LOSE_PROBABILITY"
	ReasonQuotaFull    = "LOSE_QUOTA_FULL"
	ReasonWrongRank    = "LOSE_WRONG_RANK"
	ReasonExhausted    = "LOSE_EXHAUSTED"
	ReasonNoMatch      = "LOSE_NO_MATCH"

	// Abnormal.
	ReasonFraudDetected = "FRAUD_DETECTED"
	ReasonSystemError   = "ERROR_SYSTEM"

	// Wheel adapter configuration defect (a winning prize with no segments).
	ReasonNoSegments = "PRIZE_NO_SEGMENTS"
)

// IsWinCode reports whether code is one of the WIN_* codes.
func IsWinCode(code string) bool {
	switch code {
	case ReasonWinCalendar, ReasonWinProbability, ReasonWinQuota, ReasonWinRank, ReasonWinInstant:
		return true
	}
	return false
}

// Context identifies one participant interaction. Rank 0 means unresolved;
// the engine resolves it once per context via the rank resolver.
type Context struct {
	CampaignID    string    `json:"campaign_id"`
	ParticipantID string    `json:"participant_id,omitempty"`
	Email         string    `json:"email,omitempty"`
	IP            string    `json:"ip,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	DeviceID      string    `json:"device_id,omitempty"`
	ReferenceID   string    `json:"reference_id,omitempty"` // optional, enables idempotent replay
	Timestamp     time.Time `json:"timestamp"`
	Rank          int       `json:"rank,omitempty"`
}

// Result is the outcome of one attribution. Prize is set iff IsWinner.
type Result struct {
	IsWinner   bool         `json:"is_winner"`
	Prize      *prize.Prize `json:"prize,omitempty"`
	Reason     string       `json:"reason"`
	ReasonCode string       `json:"reason_code"`
	Timestamp  time.Time    `json:"timestamp"`
	Rank       int          `json:"rank"`
}
