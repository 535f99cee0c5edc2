package attribution

import (
	"sync"
	"time"
)

const (
	EventPrizeWon       = "prize_won"
	EventStockExhausted = "stock_exhausted"
)

// Event is an admin alert published when a prize is won or its stock drains.
type Event struct {
	Type       string    `json:"type"`
	CampaignID string    `json:"campaign_id"`
	PrizeID    string    `json:"prize_id"`
	PrizeName  string    `json:"prize_name"`
	Rank       int       `json:"rank"`
	Remaining  int       `json:"remaining"`
	Timestamp  time.Time `json:"timestamp"`
}

// NotificationHub fans events out to subscribers per campaign. Delivery is
// fire-and-forget: a full subscriber channel is skipped, never blocked on,
// so notification latency can not leak into attribution latency.
type NotificationHub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		subscribers: make(map[string][]chan Event),
	}
}

func (h *NotificationHub) Subscribe(campaignID string) <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)
	h.subscribers[campaignID] = append(h.subscribers[campaignID], ch)
	return ch
}

func (h *NotificationHub) Publish(campaignID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers[campaignID] {
		select {
		case ch <- event:
		default:
			// Channel full, skip (don't block)
		}
	}
}
