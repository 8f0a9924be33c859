package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/sciencepath/internal/domain"
)

// TopicsRedirect is the view a client returns to when a lesson cannot be
// shown.
const TopicsRedirect = "/topics"

// MapErrorToStatusCode maps domain errors to HTTP status codes so that
// internal error types never decide the reply on their own.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrImportFormat):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	// Requests that are well formed but not allowed in the current state.
	case errors.Is(err, domain.ErrConfirmationRequired),
		errors.Is(err, domain.ErrNoActiveUser),
		errors.Is(err, domain.ErrNoSession),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict

	case errors.Is(err, domain.ErrContentLoad):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes err's own text.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return SanitizeValidationError(err)
	case errors.Is(err, domain.ErrImportFormat):
		return "Import file is not a valid progress export"
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"
	case errors.Is(err, domain.ErrConfirmationRequired):
		return "Import replaces all local data and must be confirmed"
	case errors.Is(err, domain.ErrNoActiveUser):
		return "No learner is selected"
	case errors.Is(err, domain.ErrNoSession):
		return "No lesson is open"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "That step is not available yet"
	case errors.Is(err, domain.ErrContentLoad):
		return "Lesson content could not be loaded"
	case errors.Is(err, domain.ErrStorage):
		return "Progress could not be saved"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError names the first failing field and rule of a
// struct validation error. Other validation errors get a generic message.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too short"
	case "max", "lte":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
