package campaign

import "time"

const (
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusArchived = "archived"
)

// Priority policies ordering the prize catalog before evaluation.
const (
	PrioritySequential = "sequential" // catalog order (default)
	PriorityRandom     = "random"     // uniform shuffle
	PriorityWeighted   = "weighted"   // descending prize priority
)

const DefaultVerificationPeriodHours = 24

// Campaign holds the engine-facing configuration for one campaign: priority
// policy, anti-fraud caps and notification toggles. Authoring tools own the
// writes; the engine only reads.
type Campaign struct {
	CampaignID     string `gorm:"column:campaign_id;primaryKey;type:uuid;default:uuid_generate_v4()" json:"campaign_id"`
	Name           string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Status         string `gorm:"column:status;type:varchar(20);not null;default:'active'" json:"status"` // "active", "paused", "archived"
	PriorityPolicy string `gorm:"column:priority_policy;type:varchar(20);not null;default:'sequential'" json:"priority_policy"`

	// Anti-fraud caps. Zero means the dimension is not checked.
	MaxWinsPerIP            int `gorm:"column:max_wins_per_ip;not null;default:0" json:"max_wins_per_ip"`
	MaxWinsPerEmail         int `gorm:"column:max_wins_per_email;not null;default:0" json:"max_wins_per_email"`
	MaxWinsPerDevice        int `gorm:"column:max_wins_per_device;not null;default:0" json:"max_wins_per_device"`
	VerificationPeriodHours int `gorm:"column:verification_period_hours;not null;default:24" json:"verification_period_hours"`

	NotifyOnWin       bool `gorm:"column:notify_on_win;not null;default:true" json:"notify_on_win"`
	NotifyOnExhausted bool `gorm:"column:notify_on_exhausted;not null;default:true" json:"notify_on_exhausted"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

// VerificationWindow is the trailing window the guard counts wins over.
func (c *Campaign) VerificationWindow() time.Duration {
	hours := c.VerificationPeriodHours
	if hours <= 0 {
		hours = DefaultVerificationPeriodHours
	}
	return time.Duration(hours) * time.Hour
}
