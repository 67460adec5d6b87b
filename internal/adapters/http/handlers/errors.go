package handlers

import (
	"errors"
	"log"

	"libtrack/internal/core/domain"
	"libtrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// domainError translates a core error into an HTTP response.
// Unknown errors are logged and reported as 500 with fallback as message.
func domainError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrNotAvailable):
		return response.Conflict(c, "Book is not available")
	case errors.Is(err, domain.ErrStudentRequired):
		return response.BadRequest(c, "Student is required")
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return response.Forbidden(c, "Not allowed to return this book")
	case errors.Is(err, domain.ErrDuplicateID):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid credentials")
	default:
		log.Printf("❌ %s: %v", fallback, err)
		return response.InternalServerError(c, fallback)
	}
}
