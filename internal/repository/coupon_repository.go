package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hlchau/lucky-draw-system/internal/model"
	"github.com/hlchau/lucky-draw-system/internal/service"
	"github.com/hlchau/lucky-draw-system/pkg/database"
)

// CouponPoolInterface defines the database operations needed by
// CouponRepository outside a transaction.
type CouponPoolInterface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CouponRepository provides data access for issued coupons using pgx.
type CouponRepository struct {
	pool CouponPoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a CouponRepository with a custom pool
// interface. Primarily used for testing.
func NewCouponRepositoryWithPool(pool CouponPoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert issues a new unredeemed coupon of the given type within the draw
// transaction and returns the stored row.
func (r *CouponRepository) Insert(ctx context.Context, tx database.TxQuerier, typeID int, redeemCode string) (*model.Coupon, error) {
	var c model.Coupon
	err := tx.QueryRow(ctx,
		`INSERT INTO campaign_coupons (redeem_code, campaign_coupon_type_id)
		 VALUES ($1, $2)
		 RETURNING id, redeem_code, campaign_coupon_type_id, redeemed`,
		redeemCode, typeID).Scan(&c.ID, &c.RedeemCode, &c.CampaignCouponTypeID, &c.Redeemed)
	if err != nil {
		return nil, fmt.Errorf("insert coupon: %w", err)
	}
	return &c, nil
}

// Redeem flips the coupon to redeemed, at most once. The WHERE clause is the
// whole at-most-once protocol: a second attempt matches no row.
// Returns service.ErrCouponConflict when the coupon is absent or already
// redeemed.
func (r *CouponRepository) Redeem(ctx context.Context, couponID int) (*model.Coupon, error) {
	var c model.Coupon
	err := r.pool.QueryRow(ctx,
		`UPDATE campaign_coupons
		 SET redeemed = true
		 WHERE id = $1 AND redeemed = false
		 RETURNING id, redeem_code, campaign_coupon_type_id, redeemed`,
		couponID).Scan(&c.ID, &c.RedeemCode, &c.CampaignCouponTypeID, &c.Redeemed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponConflict
		}
		return nil, fmt.Errorf("redeem coupon %d: %w", couponID, err)
	}
	return &c, nil
}
