package attribution

import (
	"context"
	"fmt"

	"prize_engine/internal/history"
)

// RankResolver computes the 1-based ordinal of the next interaction for a
// campaign. Ranks are resolved fresh per context; a stale rank would break
// the quota fairness guarantees.
type RankResolver struct {
	history history.HistoryRepository
}

func NewRankResolver(repo history.HistoryRepository) *RankResolver {
	return &RankResolver{history: repo}
}

func (r *RankResolver) ResolveRank(ctx context.Context, campaignID string) (int, error) {
	count, err := r.history.CountByCampaign(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve rank: %w", err)
	}
	return int(count) + 1, nil
}
