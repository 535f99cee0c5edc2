package prize

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is a mutex-guarded in-memory PrizeRepository. It backs
// tests and DB-less deployments; CommitAward performs the same
// compare-and-increment the SQL implementation does, under one lock.
type MemoryRepository struct {
	mu     sync.Mutex
	prizes map[string]*Prize
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{prizes: make(map[string]*Prize)}
}

func (r *MemoryRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*Prize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Prize
	for _, p := range r.prizes {
		if p.CampaignID == campaignID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *MemoryRepository) GetPrize(ctx context.Context, prizeID string) (*Prize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prizes[prizeID]
	if !ok {
		return nil, ErrPrizeNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) CreatePrize(ctx context.Context, p *Prize) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = cp.CreatedAt
	r.prizes[cp.PrizeID] = &cp
	return nil
}

func (r *MemoryRepository) CommitAward(ctx context.Context, prizeID string) (*Prize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prizes[prizeID]
	if !ok {
		return nil, ErrPrizeNotFound
	}
	if p.Status != StatusActive || p.AwardedQuantity >= p.TotalQuantity {
		return nil, ErrStockExhausted
	}
	p.AwardedQuantity++
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}
