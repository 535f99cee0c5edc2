package prize

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusArchived = "archived"
)

// Attribution methods. Each prize carries exactly one and the engine
// dispatches on it.
const (
	MethodCalendar    = "calendar"
	MethodProbability = "probability"
	MethodQuota       = "quota"
	MethodRank        = "rank"
	MethodInstantWin  = "instant_win"
)

// Quota selection strategies.
const (
	SelectionFirst       = "first"
	SelectionLast        = "last"
	SelectionDistributed = "distributed"
	SelectionRandom      = "random"
)

type Prize struct {
	PrizeID         string          `gorm:"column:prize_id;primaryKey;type:uuid;default:uuid_generate_v4()" json:"prize_id"`
	CampaignID      string          `gorm:"column:campaign_id;type:uuid;not null;index" json:"campaign_id"`
	Name            string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Status          string          `gorm:"column:status;type:varchar(20);not null;default:'active'" json:"status"` // "active", "paused", "archived"
	Value           decimal.Decimal `gorm:"column:value;type:numeric(20,2);not null;default:0" json:"value"`
	TotalQuantity   int             `gorm:"column:total_quantity;not null" json:"total_quantity"`
	AwardedQuantity int             `gorm:"column:awarded_quantity;not null;default:0" json:"awarded_quantity"`
	StartDate       *time.Time      `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate         *time.Time      `gorm:"column:end_date" json:"end_date,omitempty"`
	Priority        int             `gorm:"column:priority;not null;default:0" json:"priority"` // higher = preferred under weighted ordering
	Position        int             `gorm:"column:position;not null;default:0" json:"position"` // catalog order under sequential ordering

	Method string `gorm:"column:method;type:varchar(20);not null" json:"method"` // "calendar", "probability", "quota", "rank", "instant_win"

	// Calendar config.
	ScheduledAt   *time.Time `gorm:"column:scheduled_at" json:"scheduled_at,omitempty"`
	WindowMinutes int        `gorm:"column:window_minutes;not null;default:0" json:"window_minutes,omitempty"`

	// Probability config.
	WinPercent float64 `gorm:"column:win_percent;type:numeric(5,2);not null;default:0" json:"win_percent,omitempty"` // 0-100
	MaxWinners int     `gorm:"column:max_winners;not null;default:0" json:"max_winners,omitempty"`                   // 0 = unlimited

	// Quota config.
	WinnersCount      int    `gorm:"column:winners_count;not null;default:0" json:"winners_count,omitempty"`
	TotalParticipants int    `gorm:"column:total_participants;not null;default:0" json:"total_participants,omitempty"`
	Selection         string `gorm:"column:selection;type:varchar(20)" json:"selection,omitempty"` // "first", "last", "distributed", "random"

	// Rank config.
	WinningRanks []int `gorm:"column:winning_ranks;serializer:json" json:"winning_ranks,omitempty"`
	Tolerance    int   `gorm:"column:tolerance;not null;default:0" json:"tolerance,omitempty"`

	// Mechanic metadata.
	SegmentIDs []string `gorm:"column:segment_ids;serializer:json" json:"segment_ids,omitempty"` // wheel segments backing this prize
	CardCount  int      `gorm:"column:card_count;not null;default:0" json:"card_count,omitempty"`
	SymbolID   string   `gorm:"column:symbol_id;type:varchar(100)" json:"symbol_id,omitempty"`
	ImageRef   string   `gorm:"column:image_ref;type:varchar(255)" json:"image_ref,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

// EligibleAt reports whether the prize can be evaluated at all: active,
// stock remaining, and inside the validity window when one is set.
func (p *Prize) EligibleAt(now time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	if p.AwardedQuantity >= p.TotalQuantity {
		return false
	}
	if p.StartDate != nil && now.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return false
	}
	return true
}

// Remaining is the stock still awardable.
func (p *Prize) Remaining() int {
	if r := p.TotalQuantity - p.AwardedQuantity; r > 0 {
		return r
	}
	return 0
}
