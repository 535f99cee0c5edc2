package attribution

import (
	"fmt"
	"log"
	"time"

	"prize_engine/internal/prize"
)

// evaluateStrategy dispatches on the prize's attribution method. The set of
// methods is closed; an unknown tag resolves to a non-winning result rather
// than a crash.
func evaluateStrategy(p *prize.Prize, actx *Context, now time.Time, rng RandomSource) Result {
	switch p.Method {
	case prize.MethodCalendar:
		return evaluateCalendar(p, actx, now)
	case prize.MethodProbability:
		return evaluateProbability(p, actx, now, rng)
	case prize.MethodQuota:
		return evaluateQuota(p, actx, now, rng)
	case prize.MethodRank:
		return evaluateRank(p, actx, now)
	case prize.MethodInstantWin:
		return evaluateInstantWin(p, actx, now)
	default:
		log.Printf("unknown attribution method %q on prize %s", p.Method, p.PrizeID)
		return lose(actx, now, ReasonNoMatch, fmt.Sprintf("unknown attribution method %q", p.Method))
	}
}

// Calendar: the prize wins only inside [scheduled-window, scheduled+window].
func evaluateCalendar(p *prize.Prize, actx *Context, now time.Time) Result {
	if p.ScheduledAt == nil {
		return lose(actx, now, ReasonNotScheduled, "prize has no scheduled date")
	}
	window := time.Duration(p.WindowMinutes) * time.Minute
	start := p.ScheduledAt.Add(-window)
	end := p.ScheduledAt.Add(window)
	if now.Before(start) {
		return lose(actx, now, ReasonNotScheduled, fmt.Sprintf("prize window opens at %s", start.Format(time.RFC3339)))
	}
	if now.After(end) {
		return lose(actx, now, ReasonExpired, fmt.Sprintf("prize window closed at %s", end.Format(time.RFC3339)))
	}
	return win(p, actx, now, ReasonWinCalendar, "inside scheduled window")
}

// Probability: one uniform draw in [0,100) against the configured percent.
// A zero percent can never win and 100 always does.
func evaluateProbability(p *prize.Prize, actx *Context, now time.Time, rng RandomSource) Result {
	if p.MaxWinners > 0 && p.AwardedQuantity >= p.MaxWinners {
		return lose(actx, now, ReasonQuotaFull, fmt.Sprintf("max winners reached (%d)", p.MaxWinners))
	}
	sample := rng.Float64() * 100
	if sample < p.WinPercent {
		return win(p, actx, now, ReasonWinProbability, fmt.Sprintf("drew %.2f against %.2f%%", sample, p.WinPercent))
	}
	return lose(actx, now, ReasonProbability, fmt.Sprintf("drew %.2f against %.2f%%", sample, p.WinPercent))
}

// Quota: deterministic winner placement among totalParticipants. Absent
// fraud, exactly winnersCount winners come out regardless of arrival order.
func evaluateQuota(p *prize.Prize, actx *Context, now time.Time, rng RandomSource) Result {
	if p.WinnersCount <= 0 || p.AwardedQuantity >= p.WinnersCount {
		return lose(actx, now, ReasonQuotaFull, fmt.Sprintf("quota of %d winners reached", p.WinnersCount))
	}
	rank := actx.Rank
	switch p.Selection {
	case prize.SelectionFirst:
		if rank <= p.WinnersCount {
			return win(p, actx, now, ReasonWinQuota, fmt.Sprintf("rank %d within first %d", rank, p.WinnersCount))
		}
	case prize.SelectionLast:
		if rank > p.TotalParticipants-p.WinnersCount {
			return win(p, actx, now, ReasonWinQuota, fmt.Sprintf("rank %d within last %d", rank, p.WinnersCount))
		}
	case prize.SelectionDistributed:
		if interval := p.TotalParticipants / p.WinnersCount; interval > 0 && rank%interval == 0 {
			return win(p, actx, now, ReasonWinQuota, fmt.Sprintf("rank %d on distribution interval %d", rank, interval))
		}
	case prize.SelectionRandom:
		remainingWinners := p.WinnersCount - p.AwardedQuantity
		remainingParticipants := p.TotalParticipants - rank + 1
		if remainingParticipants < 1 {
			remainingParticipants = 1
		}
		dynamicProbability := float64(remainingWinners) / float64(remainingParticipants) * 100
		if sample := rng.Float64() * 100; sample < dynamicProbability {
			return win(p, actx, now, ReasonWinQuota, fmt.Sprintf("drew %.2f against dynamic %.2f%%", sample, dynamicProbability))
		}
	default:
		log.Printf("unknown quota selection %q on prize %s", p.Selection, p.PrizeID)
	}
	return lose(actx, now, ReasonWrongRank, fmt.Sprintf("rank %d not selected by %s quota", rank, p.Selection))
}

// Rank: win iff the participant rank lands within tolerance of any winning rank.
func evaluateRank(p *prize.Prize, actx *Context, now time.Time) Result {
	for _, w := range p.WinningRanks {
		diff := actx.Rank - w
		if diff < 0 {
			diff = -diff
		}
		if diff <= p.Tolerance {
			return win(p, actx, now, ReasonWinRank, fmt.Sprintf("rank %d within ±%d of %d", actx.Rank, p.Tolerance, w))
		}
	}
	return lose(actx, now, ReasonWrongRank, fmt.Sprintf("rank %d not a winning rank", actx.Rank))
}

// InstantWin: stock is the only gate.
func evaluateInstantWin(p *prize.Prize, actx *Context, now time.Time) Result {
	if p.AwardedQuantity < p.TotalQuantity {
		return win(p, actx, now, ReasonWinInstant, fmt.Sprintf("%d of %d remaining", p.Remaining(), p.TotalQuantity))
	}
	return lose(actx, now, ReasonExhausted, "no stock remaining")
}

func win(p *prize.Prize, actx *Context, now time.Time, code, reason string) Result {
	return Result{
		IsWinner:   true,
		Prize:      p,
		Reason:     reason,
		ReasonCode: code,
		Timestamp:  now,
		Rank:       actx.Rank,
	}
}

func lose(actx *Context, now time.Time, code, reason string) Result {
	return Result{
		Reason:     reason,
		ReasonCode: code,
		Timestamp:  now,
		Rank:       actx.Rank,
	}
}
