package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("history record not found")

type HistoryRepository interface {
	Append(ctx context.Context, rec *Record) error
	CountByCampaign(ctx context.Context, campaignID string) (int64, error)
	// CountWins counts winning records for one identity dimension
	// ("ip", "email", "device") since the given time.
	CountWins(ctx context.Context, campaignID, dimension, value string, since time.Time) (int64, error)
	GetByReference(ctx context.Context, campaignID, referenceID string) (*Record, error)
	ListByCampaign(ctx context.Context, campaignID string, limit int) ([]*Record, error)
}

type HistoryRepositoryImpl struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepositoryImpl {
	return &HistoryRepositoryImpl{db: db}
}

func (r *HistoryRepositoryImpl) Append(ctx context.Context, rec *Record) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

func (r *HistoryRepositoryImpl) CountByCampaign(ctx context.Context, campaignID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Record{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count history records: %w", err)
	}
	return count, nil
}

func (r *HistoryRepositoryImpl) CountWins(ctx context.Context, campaignID, dimension, value string, since time.Time) (int64, error) {
	column, err := dimensionColumn(dimension)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.WithContext(ctx).
		Model(&Record{}).
		Where("campaign_id = ? AND is_winner = ? AND created_at >= ?", campaignID, true, since).
		Where(column+" = ?", value).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count wins: %w", err)
	}
	return count, nil
}

func (r *HistoryRepositoryImpl) GetByReference(ctx context.Context, campaignID, referenceID string) (*Record, error) {
	var rec Record
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND reference_id = ?", campaignID, referenceID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record by reference: %w", err)
	}
	return &rec, nil
}

func (r *HistoryRepositoryImpl) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}
	var recs []*Record
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at desc").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history records: %w", err)
	}
	return recs, nil
}

func dimensionColumn(dimension string) (string, error) {
	switch dimension {
	case DimensionIP:
		return "ip", nil
	case DimensionEmail:
		return "email", nil
	case DimensionDevice:
		return "device_id", nil
	default:
		return "", fmt.Errorf("unknown identity dimension: %q", dimension)
	}
}
