package history

import "time"

// Identity dimensions the anti-fraud guard can count wins against.
const (
	DimensionIP     = "ip"
	DimensionEmail  = "email"
	DimensionDevice = "device"
)

// Record is one immutable attribution outcome. Records are appended once per
// interaction and never updated or deleted; rank resolution and anti-fraud
// counting both run on top of them.
type Record struct {
	RecordID      string    `gorm:"column:record_id;primaryKey;type:uuid;default:uuid_generate_v4()" json:"record_id"`
	CampaignID    string    `gorm:"column:campaign_id;type:uuid;not null;index" json:"campaign_id"`
	ParticipantID string    `gorm:"column:participant_id;type:varchar(255)" json:"participant_id,omitempty"`
	Email         string    `gorm:"column:email;type:varchar(255);index" json:"email,omitempty"`
	IP            string    `gorm:"column:ip;type:varchar(45);index" json:"ip,omitempty"`
	DeviceID      string    `gorm:"column:device_id;type:varchar(255);index" json:"device_id,omitempty"`
	UserAgent     string    `gorm:"column:user_agent;type:varchar(512)" json:"user_agent,omitempty"`
	ReferenceID   string    `gorm:"column:reference_id;type:varchar(255);index" json:"reference_id,omitempty"` // caller-supplied, for idempotent replay
	IsWinner      bool      `gorm:"column:is_winner;not null" json:"is_winner"`
	PrizeID       string    `gorm:"column:prize_id;type:uuid" json:"prize_id,omitempty"`
	ReasonCode    string    `gorm:"column:reason_code;type:varchar(40);not null" json:"reason_code"`
	Rank          int       `gorm:"column:rank;not null" json:"rank"`
	CreatedAt     time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}
