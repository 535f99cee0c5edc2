// Package game translates abstract attribution results into each mechanic's
// visual vocabulary (wheel segment, scratch card, slot symbols). Adapters
// render a decision that was already made; they never draw for win/loss and
// never flip it.
package game

import (
	"log"

	"prize_engine/internal/attribution"
)

// WheelOutcome tells the wheel renderer where to land.
type WheelOutcome struct {
	IsWinner  bool   `json:"is_winner"`
	SegmentID string `json:"segment_id,omitempty"` // empty for losers: renderer picks any non-winning segment
	PrizeID   string `json:"prize_id,omitempty"`
	Code      string `json:"code,omitempty"` // diagnostic, e.g. PRIZE_NO_SEGMENTS
}

type WheelAdapter struct {
	rng attribution.RandomSource
}

func NewWheelAdapter(rng attribution.RandomSource) *WheelAdapter {
	return &WheelAdapter{rng: rng}
}

func (a *WheelAdapter) Render(res attribution.Result) WheelOutcome {
	if !res.IsWinner || res.Prize == nil {
		return WheelOutcome{}
	}
	segments := res.Prize.SegmentIDs
	if len(segments) == 0 {
		// A winning prize with no assigned segments is a configuration
		// defect; surface it instead of granting an unbacked win.
		log.Printf("prize %s won but has no wheel segments assigned", res.Prize.PrizeID)
		return WheelOutcome{
			PrizeID: res.Prize.PrizeID,
			Code:    attribution.ReasonNoSegments,
		}
	}
	return WheelOutcome{
		IsWinner:  true,
		SegmentID: segments[a.rng.Intn(len(segments))],
		PrizeID:   res.Prize.PrizeID,
	}
}
