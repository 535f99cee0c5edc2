package attribution

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"prize_engine/internal/campaign"
	"prize_engine/internal/history"
	"prize_engine/internal/prize"
)

// Engine runs the full attribution pipeline for one interaction:
// guard -> rank -> catalog filter -> ordered strategy evaluation ->
// atomic stock commit -> history append -> notification dispatch.
type Engine struct {
	prizes  prize.PrizeRepository
	history history.HistoryRepository
	guard   *Guard
	ranks   *RankResolver
	rng     RandomSource
	hub     *NotificationHub
}

func NewEngine(prizes prize.PrizeRepository, hist history.HistoryRepository, rng RandomSource, hub *NotificationHub) *Engine {
	return &Engine{
		prizes:  prizes,
		history: hist,
		guard:   NewGuard(hist),
		ranks:   NewRankResolver(hist),
		rng:     rng,
		hub:     hub,
	}
}

// Attribute decides one interaction. Every path resolves to a Result; it
// never returns an error or panics to the caller — infrastructure failures
// become non-winning ERROR_SYSTEM outcomes.
func (e *Engine) Attribute(ctx context.Context, camp *campaign.Campaign, actx Context) (result Result) {
	now := actx.Timestamp
	if now.IsZero() {
		now = time.Now()
		actx.Timestamp = now
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("attribution panic for campaign %s: %v", actx.CampaignID, r)
			result = lose(&actx, now, ReasonSystemError, "internal error")
		}
	}()

	// Idempotent replay: an already-recorded reference returns its stored
	// outcome without touching stock or writing a second record.
	if actx.ReferenceID != "" {
		if rec, err := e.history.GetByReference(ctx, actx.CampaignID, actx.ReferenceID); err == nil {
			return e.replay(ctx, rec)
		} else if !errors.Is(err, history.ErrRecordNotFound) {
			log.Printf("idempotency lookup failed for campaign %s: %v", actx.CampaignID, err)
		}
	}

	if verdict := e.guard.Check(ctx, camp, &actx); !verdict.Passed {
		result = lose(&actx, now, ReasonFraudDetected, verdict.Reason)
		e.record(ctx, &actx, &result)
		return result
	}

	if actx.Rank == 0 {
		rank, err := e.ranks.ResolveRank(ctx, actx.CampaignID)
		if err != nil {
			log.Printf("rank resolution failed for campaign %s: %v", actx.CampaignID, err)
			return lose(&actx, now, ReasonSystemError, "rank resolution unavailable")
		}
		actx.Rank = rank
	}

	prizes, err := e.prizes.ListByCampaign(ctx, actx.CampaignID)
	if err != nil {
		log.Printf("catalog lookup failed for campaign %s: %v", actx.CampaignID, err)
		return lose(&actx, now, ReasonSystemError, "prize catalog unavailable")
	}

	eligible := make([]*prize.Prize, 0, len(prizes))
	for _, p := range prizes {
		if p.EligibleAt(now) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		result = lose(&actx, now, ReasonExhausted, "no eligible prize in catalog")
		e.record(ctx, &actx, &result)
		return result
	}

	e.orderCatalog(eligible, camp.PriorityPolicy)

	// First eligible prize in priority order wins; prizes are never
	// aggregated across each other.
	var last Result
	for _, p := range eligible {
		res := evaluateStrategy(p, &actx, now, e.rng)
		if !res.IsWinner {
			last = res
			continue
		}

		committed, err := e.prizes.CommitAward(ctx, p.PrizeID)
		if err != nil {
			if errors.Is(err, prize.ErrStockExhausted) {
				// Lost the race for the last unit; fall through to the
				// next prize in order.
				last = lose(&actx, now, ReasonExhausted, "stock drained during commit")
				continue
			}
			// Commit fails closed: without a committed increment there is
			// no win, and the interaction is retry-safe.
			log.Printf("stock commit failed for prize %s: %v", p.PrizeID, err)
			return lose(&actx, now, ReasonSystemError, "stock commit unavailable")
		}

		res.Prize = committed
		e.record(ctx, &actx, &res)
		e.notify(camp, committed, &res)
		return res
	}

	if len(eligible) == 1 {
		// A single-prize campaign surfaces the strategy's own diagnosis
		// (not scheduled, expired, wrong rank, ...).
		result = last
	} else {
		result = lose(&actx, now, ReasonNoMatch, fmt.Sprintf("no prize matched (%d evaluated)", len(eligible)))
	}
	e.record(ctx, &actx, &result)
	return result
}

// Subscribe exposes the notification stream for a campaign.
func (e *Engine) Subscribe(campaignID string) <-chan Event {
	return e.hub.Subscribe(campaignID)
}

// NextRank reports the rank the next interaction would receive.
func (e *Engine) NextRank(ctx context.Context, campaignID string) (int, error) {
	return e.ranks.ResolveRank(ctx, campaignID)
}

func (e *Engine) orderCatalog(prizes []*prize.Prize, policy string) {
	switch policy {
	case campaign.PriorityRandom:
		for i := len(prizes) - 1; i > 0; i-- {
			j := e.rng.Intn(i + 1)
			prizes[i], prizes[j] = prizes[j], prizes[i]
		}
	case campaign.PriorityWeighted:
		sort.SliceStable(prizes, func(i, j int) bool {
			return prizes[i].Priority > prizes[j].Priority
		})
	default:
		// sequential: repository already returns catalog order
	}
}

// record appends the audit trail entry. A failed append on a committed win
// is logged but never rolls the win back.
func (e *Engine) record(ctx context.Context, actx *Context, res *Result) {
	rec := &history.Record{
		CampaignID:    actx.CampaignID,
		ParticipantID: actx.ParticipantID,
		Email:         actx.Email,
		IP:            actx.IP,
		DeviceID:      actx.DeviceID,
		UserAgent:     actx.UserAgent,
		ReferenceID:   actx.ReferenceID,
		IsWinner:      res.IsWinner,
		ReasonCode:    res.ReasonCode,
		Rank:          res.Rank,
		CreatedAt:     res.Timestamp,
	}
	if res.Prize != nil {
		rec.PrizeID = res.Prize.PrizeID
	}
	if err := e.history.Append(ctx, rec); err != nil {
		log.Printf("history append failed for campaign %s: %v", actx.CampaignID, err)
	}
}

func (e *Engine) notify(camp *campaign.Campaign, p *prize.Prize, res *Result) {
	if e.hub == nil {
		return
	}
	if camp.NotifyOnWin {
		e.hub.Publish(camp.CampaignID, Event{
			Type:       EventPrizeWon,
			CampaignID: camp.CampaignID,
			PrizeID:    p.PrizeID,
			PrizeName:  p.Name,
			Rank:       res.Rank,
			Remaining:  p.Remaining(),
			Timestamp:  res.Timestamp,
		})
	}
	if camp.NotifyOnExhausted && p.Remaining() == 0 {
		e.hub.Publish(camp.CampaignID, Event{
			Type:       EventStockExhausted,
			CampaignID: camp.CampaignID,
			PrizeID:    p.PrizeID,
			PrizeName:  p.Name,
			Rank:       res.Rank,
			Timestamp:  res.Timestamp,
		})
	}
}

// replay rebuilds a Result from a stored record.
func (e *Engine) replay(ctx context.Context, rec *history.Record) Result {
	res := Result{
		IsWinner:   rec.IsWinner,
		Reason:     "replayed from reference " + rec.ReferenceID,
		ReasonCode: rec.ReasonCode,
		Timestamp:  rec.CreatedAt,
		Rank:       rec.Rank,
	}
	if rec.IsWinner && rec.PrizeID != "" {
		if p, err := e.prizes.GetPrize(ctx, rec.PrizeID); err == nil {
			res.Prize = p
		}
	}
	return res
}
