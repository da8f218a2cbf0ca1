package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hlchau/lucky-draw-system/internal/model"
)

// RedeemRepositoryInterface defines the coupon data access used by
// RedeemService.
type RedeemRepositoryInterface interface {
	Redeem(ctx context.Context, couponID int) (*model.Coupon, error)
}

// RedeemService provides at-most-once coupon redemption.
type RedeemService struct {
	couponRepo RedeemRepositoryInterface
}

// NewRedeemService creates a new RedeemService.
func NewRedeemService(couponRepo RedeemRepositoryInterface) *RedeemService {
	return &RedeemService{couponRepo: couponRepo}
}

// Redeem marks the coupon redeemed and returns the updated row. The single
// conditional UPDATE in the repository serializes concurrent attempts.
// userID is recorded for the audit log only; redemption is not scoped to an
// owner because draws do not tie coupons to the drawing user once issued.
// Returns ErrCouponConflict when the coupon is absent or already redeemed.
func (s *RedeemService) Redeem(ctx context.Context, couponID, userID int) (*model.Coupon, error) {
	coupon, err := s.couponRepo.Redeem(ctx, couponID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("coupon_id", coupon.ID).
		Int("user_id", userID).
		Msg("coupon redeemed")
	return coupon, nil
}
