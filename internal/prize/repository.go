package prize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrPrizeNotFound  = errors.New("prize not found")
	ErrStockExhausted = errors.New("prize stock exhausted")
)

type PrizeRepository interface {
	ListByCampaign(ctx context.Context, campaignID string) ([]*Prize, error)
	GetPrize(ctx context.Context, prizeID string) (*Prize, error)
	CreatePrize(ctx context.Context, p *Prize) error
	// CommitAward atomically increments awarded_quantity by one, guarded by
	// the stock ceiling. Returns the prize as committed, or ErrStockExhausted
	// when no stock remained at commit time.
	CommitAward(ctx context.Context, prizeID string) (*Prize, error)
}

type PrizeRepositoryImpl struct {
	db *gorm.DB
}

func NewPrizeRepository(db *gorm.DB) *PrizeRepositoryImpl {
	return &PrizeRepositoryImpl{db: db}
}

func (r *PrizeRepositoryImpl) ListByCampaign(ctx context.Context, campaignID string) ([]*Prize, error) {
	var prizes []*Prize
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("position asc").
		Find(&prizes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	return prizes, nil
}

func (r *PrizeRepositoryImpl) GetPrize(ctx context.Context, prizeID string) (*Prize, error) {
	var p Prize
	err := r.db.WithContext(ctx).Where("prize_id = ?", prizeID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrizeNotFound
		}
		return nil, fmt.Errorf("failed to get prize: %w", err)
	}
	return &p, nil
}

func (r *PrizeRepositoryImpl) CreatePrize(ctx context.Context, p *Prize) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create prize: %w", err)
	}
	return nil
}

// CommitAward is the single linearization point for stock. The conditional
// UPDATE takes the row lock and re-checks the ceiling, so concurrent winners
// can never push awarded_quantity past total_quantity and no increment is
// ever lost.
func (r *PrizeRepositoryImpl) CommitAward(ctx context.Context, prizeID string) (*Prize, error) {
	result := r.db.WithContext(ctx).
		Model(&Prize{}).
		Where("prize_id = ? AND status = ? AND awarded_quantity < total_quantity", prizeID, StatusActive).
		Updates(map[string]interface{}{
			"awarded_quantity": gorm.Expr("awarded_quantity + 1"),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to commit award: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the row is gone or the stock drained under us.
		if _, err := r.GetPrize(ctx, prizeID); err != nil {
			return nil, err
		}
		return nil, ErrStockExhausted
	}
	return r.GetPrize(ctx, prizeID)
}
