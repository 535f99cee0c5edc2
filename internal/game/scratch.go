package game

import "prize_engine/internal/attribution"

const DefaultCardCount = 9

// ScratchOutcome is a grid of cards with at most one winning position.
type ScratchOutcome struct {
	IsWinner     bool   `json:"is_winner"`
	Cards        []bool `json:"cards"`
	WinningIndex int    `json:"winning_index"` // -1 when there is no winning card
	PrizeID      string `json:"prize_id,omitempty"`
}

type ScratchAdapter struct {
	rng   attribution.RandomSource
	cards int
}

func NewScratchAdapter(rng attribution.RandomSource, cards int) *ScratchAdapter {
	if cards <= 0 {
		cards = DefaultCardCount
	}
	return &ScratchAdapter{rng: rng, cards: cards}
}

// Render places exactly one winning card at a uniformly random position for
// winners; losers get an all-losing grid.
func (a *ScratchAdapter) Render(res attribution.Result) ScratchOutcome {
	n := a.cards
	if res.Prize != nil && res.Prize.CardCount > 0 {
		n = res.Prize.CardCount
	}
	out := ScratchOutcome{
		Cards:        make([]bool, n),
		WinningIndex: -1,
	}
	if !res.IsWinner || res.Prize == nil {
		return out
	}
	idx := a.rng.Intn(n)
	out.IsWinner = true
	out.Cards[idx] = true
	out.WinningIndex = idx
	out.PrizeID = res.Prize.PrizeID
	return out
}
