package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hlchau/lucky-draw-system/internal/model"
	"github.com/hlchau/lucky-draw-system/pkg/database"
)

// CampaignRepositoryInterface defines the campaign data access used by
// CampaignService.
type CampaignRepositoryInterface interface {
	InsertCampaign(ctx context.Context, tx database.TxQuerier) (int, error)
	InsertCouponType(ctx context.Context, tx database.TxQuerier, campaignID int, ct model.CreateCampaignCouponType) error
	ListCouponTypes(ctx context.Context, campaignID int) ([]model.CouponType, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CampaignService provides business logic for campaign operations.
type CampaignService struct {
	pool         TxBeginner
	campaignRepo CampaignRepositoryInterface
}

// NewCampaignService creates a new CampaignService.
func NewCampaignService(pool *pgxpool.Pool, campaignRepo CampaignRepositoryInterface) *CampaignService {
	return &CampaignService{pool: pool, campaignRepo: campaignRepo}
}

// NewCampaignServiceWithTxBeginner creates a CampaignService with a custom
// TxBeginner. Primarily used for testing.
func NewCampaignServiceWithTxBeginner(pool TxBeginner, campaignRepo CampaignRepositoryInterface) *CampaignService {
	return &CampaignService{pool: pool, campaignRepo: campaignRepo}
}

// Create materializes a campaign and its coupon types in one transaction and
// returns the new campaign id. Campaigns are immutable after this point; only
// the quota counters on the types will ever change.
// Returns ErrInvalidRequest for a nil or empty coupon-type list and
// *ProbabilitySumError when the probabilities sum past 1 (equality is fine;
// the remainder up to 1 is the implicit no-coupon outcome).
func (s *CampaignService) Create(ctx context.Context, req *model.CreateCampaignRequest) (int, error) {
	if req == nil || len(req.CouponTypes) == 0 {
		return 0, ErrInvalidRequest
	}

	var sum float32
	for _, ct := range req.CouponTypes {
		if ct.Probability == nil {
			return 0, ErrInvalidRequest
		}
		sum += *ct.Probability
	}
	if sum > 1.0 {
		return 0, &ProbabilitySumError{Sum: sum}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op if committed

	id, err := s.campaignRepo.InsertCampaign(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("insert campaign: %w", err)
	}
	for _, ct := range req.CouponTypes {
		if err := s.campaignRepo.InsertCouponType(ctx, tx, id, ct); err != nil {
			return 0, fmt.Errorf("insert coupon type: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	// The prob-dist cache is populated lazily by the first draw.
	return id, nil
}

// Get returns the coupon-type rows of a campaign.
// Returns ErrCampaignNotFound when the campaign has no coupon types; since
// types are created atomically with their campaign, that also covers "id does
// not exist".
func (s *CampaignService) Get(ctx context.Context, id int) (*model.GetCampaignResponse, error) {
	types, err := s.campaignRepo.ListCouponTypes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list coupon types: %w", err)
	}
	if len(types) == 0 {
		return nil, ErrCampaignNotFound
	}

	views := make([]model.CouponTypeView, len(types))
	for i, ct := range types {
		views[i] = model.CouponTypeView{
			Description:       ct.Description,
			Probability:       ct.Probability,
			TotalQuota:        ct.TotalQuota,
			DailyQuota:        ct.DailyQuota,
			CurrentQuota:      ct.CurrentQuota,
			CurrentDailyQuota: ct.CurrentDailyQuota,
		}
	}
	return &model.GetCampaignResponse{CouponTypes: views}, nil
}
