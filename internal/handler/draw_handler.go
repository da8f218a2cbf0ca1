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

// DrawServiceInterface defines the draw engine operation used by DrawHandler.
type DrawServiceInterface interface {
	Draw(ctx context.Context, userID, campaignID int) (*model.Coupon, error)
}

// DrawHandler handles HTTP requests for draws.
type DrawHandler struct {
	service   DrawServiceInterface
	validator *validator.Validate
}

// NewDrawHandler creates a new DrawHandler.
func NewDrawHandler(svc DrawServiceInterface, v *validator.Validate) *DrawHandler {
	return &DrawHandler{service: svc, validator: v}
}

// Draw handles POST /draw. Both the residual sample and an exhausted quota
// come back as 200 with a null maybe_coupon; only a spent daily attempt is a
// conflict.
func (h *DrawHandler) Draw(c *fiber.Ctx) error {
	var req model.DrawRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	coupon, err := h.service.Draw(c.Context(), *req.UserID, *req.CampaignID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyDrawn):
			return conflict(c, "User has already drawn from this campaign. Come again tommorow")
		case errors.Is(err, service.ErrUserOrCampaignNotFound):
			return notFound(c, "Campaign or user doesn't exist")
		case errors.Is(err, service.ErrCampaignNotFound):
			return notFound(c, "There is no coupon types in the campaign")
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Int("user_id", *req.UserID).
			Int("campaign_id", *req.CampaignID).
			Msg("draw failed")
		return internalError(c)
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Int("user_id", *req.UserID).
		Int("campaign_id", *req.CampaignID).
		Bool("won_coupon", coupon != nil).
		Msg("draw completed")

	return c.JSON(model.DrawResponse{MaybeCoupon: coupon})
}
