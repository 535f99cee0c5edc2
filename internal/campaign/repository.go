package campaign

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type CampaignRepository interface {
	GetCampaign(ctx context.Context, campaignID string) (*Campaign, error)
	CreateCampaign(ctx context.Context, c *Campaign) error
}

type CampaignRepositoryImpl struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepositoryImpl {
	return &CampaignRepositoryImpl{db: db}
}

func (r *CampaignRepositoryImpl) GetCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	var c Campaign
	err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &c, nil
}

func (r *CampaignRepositoryImpl) CreateCampaign(ctx context.Context, c *Campaign) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// MemoryRepository is the in-memory CampaignRepository for tests and DB-less
// deployments.
type MemoryRepository struct {
	mu        sync.RWMutex
	campaigns map[string]*Campaign
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{campaigns: make(map[string]*Campaign)}
}

func (r *MemoryRepository) GetCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[campaignID]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) CreateCampaign(ctx context.Context, c *Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = cp.CreatedAt
	r.campaigns[cp.CampaignID] = &cp
	return nil
}
