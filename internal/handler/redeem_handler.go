package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/hlchau/lucky-draw-system/internal/model"
	"github.com/hlchau/lucky-draw-system/internal/service"
)

// RedeemServiceInterface defines the redemption logic used by RedeemHandler.
type RedeemServiceInterface interface {
	Redeem(ctx context.Context, couponID, userID int) (*model.Coupon, error)
}

// RedeemHandler handles HTTP requests for coupon redemption.
type RedeemHandler struct {
	service   RedeemServiceInterface
	validator *validator.Validate
}

// NewRedeemHandler creates a new RedeemHandler.
func NewRedeemHandler(svc RedeemServiceInterface, v *validator.Validate) *RedeemHandler {
	return &RedeemHandler{service: svc, validator: v}
}

// Redeem handles POST /redeem. The payload's user_id is accepted but
// redemption is not scoped to an owner.
func (h *RedeemHandler) Redeem(c *fiber.Ctx) error {
	var req model.RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	coupon, err := h.service.Redeem(c.Context(), *req.CouponID, *req.UserID)
	if err != nil {
		if errors.Is(err, service.ErrCouponConflict) {
			return conflict(c, "Coupon not found, or it has already been redeemed")
		}
		log.Error().Err(err).Int("coupon_id", *req.CouponID).Msg("failed to redeem coupon")
		return internalError(c)
	}
	return c.JSON(coupon)
}
