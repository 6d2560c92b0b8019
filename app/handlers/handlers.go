// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/amirphl/crud-project/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must contain at least " + err.Param() + " item(s)"
	case "max":
		return err.Field() + " must contain at most " + err.Param() + " item(s)"
	case "gt":
		return err.Field() + " must be greater than " + err.Param()
	default:
		return err.Field() + " is invalid"
	}
}

// validationDetails flattens validator errors into readable messages
func validationDetails(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, getValidationErrorMessage(fe))
	}
	return details
}

// createRequestContext derives a request-scoped context carrying client metadata.
// The caller must invoke cancel once the flow returns.
func createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), utils.RequestTimeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, utils.RequestTimeout)
	return ctx, cancel
}

func requestID(c fiber.Ctx) string {
	if id := requestid.FromContext(c); id != "" {
		return id
	}
	return strings.TrimSpace(c.Get("X-Request-ID"))
}
