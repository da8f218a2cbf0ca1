package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hlchau/lucky-draw-system/internal/model"
	"github.com/hlchau/lucky-draw-system/internal/service"
	"github.com/hlchau/lucky-draw-system/pkg/database"
)

// CampaignPoolInterface defines the database operations needed by
// CampaignRepository outside a transaction.
type CampaignPoolInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CampaignRepository provides data access for campaigns and their coupon
// types using pgx.
type CampaignRepository struct {
	pool CampaignPoolInterface
}

// NewCampaignRepository creates a new CampaignRepository with the given pool.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// NewCampaignRepositoryWithPool creates a CampaignRepository with a custom
// pool interface. Primarily used for testing.
func NewCampaignRepositoryWithPool(pool CampaignPoolInterface) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// InsertCampaign creates an empty campaign row and returns its id.
// Must be called within the transaction that also inserts the coupon types.
func (r *CampaignRepository) InsertCampaign(ctx context.Context, tx database.TxQuerier) (int, error) {
	var id int
	err := tx.QueryRow(ctx, `INSERT INTO campaigns DEFAULT VALUES RETURNING id`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert campaign: %w", err)
	}
	return id, nil
}

// InsertCouponType inserts one coupon type of a new campaign, seeding the
// counters from the quotas. Nil quotas persist as NULL ("unlimited").
func (r *CampaignRepository) InsertCouponType(ctx context.Context, tx database.TxQuerier, campaignID int, ct model.CreateCampaignCouponType) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO campaign_coupon_types
			(campaign_id, description, probability, total_quota, daily_quota, current_quota, current_daily_quota)
		 VALUES ($1, $2, $3, $4, $5, $4, $5)`,
		campaignID, ct.Description, *ct.Probability, ct.TotalQuota, ct.DailyQuota)
	if err != nil {
		return fmt.Errorf("insert coupon type: %w", err)
	}
	return nil
}

// ListCouponTypes returns all coupon types of a campaign in stable id order.
// Returns an empty slice when the campaign has none (or does not exist).
func (r *CampaignRepository) ListCouponTypes(ctx context.Context, campaignID int) ([]model.CouponType, error) {
	rows, err := r.pool.Query(ctx, couponTypesQuery, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list coupon types for campaign %d: %w", campaignID, err)
	}
	return scanCouponTypes(rows)
}

// ListCouponTypesTx is ListCouponTypes inside an open transaction.
func (r *CampaignRepository) ListCouponTypesTx(ctx context.Context, tx database.TxQuerier, campaignID int) ([]model.CouponType, error) {
	rows, err := tx.Query(ctx, couponTypesQuery, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list coupon types for campaign %d: %w", campaignID, err)
	}
	return scanCouponTypes(rows)
}

const couponTypesQuery = `
	SELECT id, campaign_id, description, probability,
	       total_quota, daily_quota, current_quota, current_daily_quota, last_drawn_date
	FROM campaign_coupon_types
	WHERE campaign_id = $1
	ORDER BY id`

func scanCouponTypes(rows pgx.Rows) ([]model.CouponType, error) {
	defer rows.Close()

	types := []model.CouponType{}
	for rows.Next() {
		var ct model.CouponType
		if err := rows.Scan(&ct.ID, &ct.CampaignID, &ct.Description, &ct.Probability,
			&ct.TotalQuota, &ct.DailyQuota, &ct.CurrentQuota, &ct.CurrentDailyQuota,
			&ct.LastDrawnDate); err != nil {
			return nil, fmt.Errorf("scan coupon type: %w", err)
		}
		types = append(types, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon type rows: %w", err)
	}
	return types, nil
}

// DecrementQuota performs the conditional quota decrement with daily rollover.
// If last_drawn_date is unset or older than today the daily counter restarts
// from daily_quota; otherwise it keeps counting down. NULL quota columns stay
// NULL under the arithmetic, so unlimited types never trip the CHECKs.
// Returns service.ErrQuotaExhausted when a CHECK rejects the decrement, which
// is the authoritative "no coupons left for this type" signal.
func (r *CampaignRepository) DecrementQuota(ctx context.Context, tx database.TxQuerier, typeID int, today time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE campaign_coupon_types
		SET current_daily_quota = CASE
			WHEN last_drawn_date IS NULL OR last_drawn_date <> $2::date THEN daily_quota - 1
			ELSE current_daily_quota - 1
		END,
		last_drawn_date = CASE
			WHEN last_drawn_date IS NULL OR last_drawn_date <> $2::date THEN $2::date
			ELSE last_drawn_date
		END,
		current_quota = current_quota - 1
		WHERE id = $1`,
		typeID, today)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return service.ErrQuotaExhausted
		}
		return fmt.Errorf("decrement quota for coupon type %d: %w", typeID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("decrement quota: coupon type %d not found", typeID)
	}
	return nil
}
