package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an append-only in-memory HistoryRepository for tests
// and DB-less deployments.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(ctx context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	if cp.RecordID == "" {
		cp.RecordID = uuid.New().String()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.records = append(r.records, &cp)
	rec.RecordID = cp.RecordID
	rec.CreatedAt = cp.CreatedAt
	return nil
}

func (r *MemoryRepository) CountByCampaign(ctx context.Context, campaignID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, rec := range r.records {
		if rec.CampaignID == campaignID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) CountWins(ctx context.Context, campaignID, dimension, value string, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, rec := range r.records {
		if rec.CampaignID != campaignID || !rec.IsWinner || rec.CreatedAt.Before(since) {
			continue
		}
		var match string
		switch dimension {
		case DimensionIP:
			match = rec.IP
		case DimensionEmail:
			match = rec.Email
		case DimensionDevice:
			match = rec.DeviceID
		default:
			return 0, fmt.Errorf("unknown identity dimension: %q", dimension)
		}
		if match != "" && match == value {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) GetByReference(ctx context.Context, campaignID, referenceID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.CampaignID == campaignID && rec.ReferenceID == referenceID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (r *MemoryRepository) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	var out []*Record
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].CampaignID == campaignID {
			cp := *r.records[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}
