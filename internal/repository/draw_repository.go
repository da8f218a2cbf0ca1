package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hlchau/lucky-draw-system/internal/service"
	"github.com/hlchau/lucky-draw-system/pkg/database"
)

// DrawRepository provides data access for draw records. Every method takes a
// TxQuerier because draws are checked and written both inside the draw
// transaction and, for the quota-starved fallback, directly on the pool.
type DrawRepository struct{}

// NewDrawRepository creates a new DrawRepository.
func NewDrawRepository() *DrawRepository {
	return &DrawRepository{}
}

// UserAndCampaignExist reports whether both the user and the campaign exist.
func (r *DrawRepository) UserAndCampaignExist(ctx context.Context, q database.TxQuerier, userID, campaignID int) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
		   AND EXISTS (SELECT 1 FROM campaigns WHERE id = $2)`,
		userID, campaignID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user %d and campaign %d: %w", userID, campaignID, err)
	}
	return exists, nil
}

// HasDrawn reports whether the user already has a draw record for the
// campaign on the given date.
func (r *DrawRepository) HasDrawn(ctx context.Context, q database.TxQuerier, userID, campaignID int, date time.Time) (bool, error) {
	var drawn bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM draws
			WHERE user_id = $1 AND campaign_id = $2 AND date = $3::date
		)`,
		userID, campaignID, date).Scan(&drawn)
	if err != nil {
		return false, fmt.Errorf("check draw for user %d campaign %d: %w", userID, campaignID, err)
	}
	return drawn, nil
}

// Insert records one draw attempt. couponID is nil for the no-coupon outcome.
// A duplicate (user, campaign, date) maps to service.ErrAlreadyDrawn: the
// unique constraint is what serializes concurrent attempts.
func (r *DrawRepository) Insert(ctx context.Context, q database.TxQuerier, userID, campaignID int, couponID *int, date time.Time) error {
	_, err := q.Exec(ctx,
		`INSERT INTO draws (user_id, campaign_id, campaign_coupon_id, date)
		 VALUES ($1, $2, $3, $4::date)`,
		userID, campaignID, couponID, date)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrAlreadyDrawn
		}
		return fmt.Errorf("insert draw: %w", err)
	}
	return nil
}
