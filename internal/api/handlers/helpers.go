package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postpipe/internal/repository"
	"github.com/maheshrc27/postpipe/internal/service"
)

func errorResponse(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrRowNotFound), errors.Is(err, service.ErrUnknownPlatform):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidApproval):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrExtraction):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrStoreAccess), errors.Is(err, service.ErrGeneration):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// splitEmails accepts approver lists separated by ";" or ",".
func splitEmails(raw string) []string {
	var emails []string
	for _, e := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' }) {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}

func validArticleURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
