package attribution

import (
	"context"
	"fmt"
	"log"
	"time"

	"prize_engine/internal/campaign"
	"prize_engine/internal/history"
)

// GuardVerdict is the anti-fraud decision for one interaction.
type GuardVerdict struct {
	Passed bool
	Reason string
}

// Guard enforces per-identity win caps over the campaign's trailing
// verification window. Each cap is independently optional; an unset cap
// leaves that dimension unchecked.
type Guard struct {
	history history.HistoryRepository
}

func NewGuard(repo history.HistoryRepository) *Guard {
	return &Guard{history: repo}
}

func (g *Guard) Check(ctx context.Context, camp *campaign.Campaign, actx *Context) GuardVerdict {
	since := time.Now().Add(-camp.VerificationWindow())

	checks := []struct {
		cap       int
		dimension string
		value     string
	}{
		{camp.MaxWinsPerIP, history.DimensionIP, actx.IP},
		{camp.MaxWinsPerEmail, history.DimensionEmail, actx.Email},
		{camp.MaxWinsPerDevice, history.DimensionDevice, actx.DeviceID},
	}

	for _, c := range checks {
		if c.cap <= 0 || c.value == "" {
			continue
		}
		wins, err := g.history.CountWins(ctx, actx.CampaignID, c.dimension, c.value, since)
		if err != nil {
			// Fail open: a broken lookup must not lock every participant out.
			log.Printf("anti-fraud degraded: %s lookup failed for campaign %s: %v", c.dimension, actx.CampaignID, err)
			continue
		}
		if wins >= int64(c.cap) {
			return GuardVerdict{
				Passed: false,
				Reason: fmt.Sprintf("win cap reached for %s (%d of %d in last %s)", c.dimension, wins, c.cap, camp.VerificationWindow()),
			}
		}
	}
	return GuardVerdict{Passed: true}
}
