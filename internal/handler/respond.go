package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Error envelopes are tagged unions: a single key naming the variant with a
// human message value, e.g. {"Conflict": "..."} or {"NotFound": "..."}.

func conflict(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"Conflict": msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"NotFound": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"BadRequest": msg})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"Internal": "internal server error"})
}

// formatValidationError converts validator errors into a client-facing
// message, naming the offending field in its JSON form.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "invalid request"
	}
	for _, fe := range ve {
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			return "invalid request: " + field + " is required"
		case "notblank":
			return "invalid request: " + field + " cannot be blank"
		case "min":
			return "invalid request: " + field + " must not be empty"
		case "max":
			return "invalid request: " + field + " exceeds maximum length"
		case "gte", "lte":
			return "invalid request: " + field + " is out of range"
		default:
			return "invalid request: " + field + " is invalid"
		}
	}
	return "invalid request"
}

// jsonFieldName lowers a Go struct field name to its snake_case JSON tag form.
func jsonFieldName(field string) string {
	var b strings.Builder
	prevUpper := true
	for _, r := range field {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if !prevUpper {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
		prevUpper = upper
	}
	return b.String()
}
