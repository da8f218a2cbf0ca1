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

// UserServiceInterface defines the user business logic used by UserHandler.
type UserServiceInterface interface {
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	Delete(ctx context.Context, id int) error
}

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	service   UserServiceInterface
	validator *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserServiceInterface, v *validator.Validate) *UserHandler {
	return &UserHandler{service: svc, validator: v}
}

// ListUsers handles GET /user.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return internalError(c)
	}
	return c.JSON(users)
}

// CreateUser handles POST /user.
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req model.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	user, err := h.service.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrPhoneExists) {
			return conflict(c, "phone already registered: "+req.Phone)
		}
		log.Error().Err(err).Msg("failed to create user")
		return internalError(c)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// DeleteUser handles DELETE /user/:id.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid request: id must be an integer")
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return notFound(c, "id = "+strconv.Itoa(id))
		}
		log.Error().Err(err).Int("user_id", id).Msg("failed to delete user")
		return internalError(c)
	}
	return c.SendStatus(fiber.StatusOK)
}
