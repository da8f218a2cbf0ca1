package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/hlchau/lucky-draw-system/internal/model"
	"github.com/hlchau/lucky-draw-system/internal/service"
)

// CampaignServiceInterface defines the campaign business logic used by
// CampaignHandler.
type CampaignServiceInterface interface {
	Create(ctx context.Context, req *model.CreateCampaignRequest) (int, error)
	Get(ctx context.Context, id int) (*model.GetCampaignResponse, error)
}

// CampaignHandler handles HTTP requests for campaign operations.
type CampaignHandler struct {
	service   CampaignServiceInterface
	validator *validator.Validate
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(svc CampaignServiceInterface, v *validator.Validate) *CampaignHandler {
	return &CampaignHandler{service: svc, validator: v}
}

// CreateCampaign handles POST /campaign.
func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req model.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	id, err := h.service.Create(c.Context(), &req)
	if err != nil {
		var pse *service.ProbabilitySumError
		if errors.As(err, &pse) {
			return conflict(c, "Sum of probabilities of coupon types in campaign exceed 1: "+pse.SumString())
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return badRequest(c, "invalid request")
		}
		log.Error().Err(err).Msg("failed to create campaign")
		return internalError(c)
	}

	log.Info().Int("campaign_id", id).Int("coupon_types", len(req.CouponTypes)).
		Msg("campaign created")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// GetCampaign handles GET /campaign/:id.
func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid request: id must be an integer")
	}

	campaign, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			return notFound(c, "Campaign ID "+strconv.Itoa(id)+" doesn't exist, or campaign doesn't have any coupon types")
		}
		log.Error().Err(err).Int("campaign_id", id).Msg("failed to get campaign")
		return internalError(c)
	}
	return c.JSON(campaign)
}
