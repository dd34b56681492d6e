package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eimribar/ads-command-center/pkg/models"
)

// Error is returned for input rejected before any network call is made.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errorf builds a validation error for field.
func Errorf(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err wraps a *Error.
func IsValidationError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

// ConversionValidator checks conversion events and campaign updates.
type ConversionValidator struct {
	validator *validator.Validate
}

// NewConversionValidator constructs a ConversionValidator with struct tag validation.
func NewConversionValidator() *ConversionValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ConversionValidator{validator: v}
}

// ValidateEvent rejects events outside the supported taxonomy and malformed
// user or commercial data.
func (v *ConversionValidator) ValidateEvent(event models.ConversionEvent) error {
	if _, ok := models.ParseEventType(string(event.EventType)); !ok {
		names := make([]string, 0, len(models.SupportedEvents))
		for _, e := range models.SupportedEvents {
			names = append(names, string(e))
		}
		return Errorf("event_type", "unsupported event %q (supported: %s)", event.EventType, strings.Join(names, ", "))
	}
	if err := v.validator.Struct(event); err != nil {
		return translate(err)
	}
	return nil
}

// ValidateUpdate rejects empty updates, unknown statuses and non-positive budgets.
func (v *ConversionValidator) ValidateUpdate(campaignID string, update models.CampaignUpdate) error {
	if strings.TrimSpace(campaignID) == "" {
		return Errorf("id", "campaign id is required")
	}
	if update.IsEmpty() {
		return Errorf("update", "nothing to change")
	}
	if err := v.validator.Struct(update); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &Error{Message: err.Error()}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return Errorf(fe.Field(), "is required")
	case "email":
		return Errorf(fe.Field(), "%q is not a valid email address", fe.Value())
	case "url":
		return Errorf(fe.Field(), "%q is not a valid URL", fe.Value())
	case "ip":
		return Errorf(fe.Field(), "%q is not a valid IP address", fe.Value())
	case "len", "alpha":
		return Errorf(fe.Field(), "must be a 3-letter currency code")
	case "oneof":
		return Errorf(fe.Field(), "must be one of: %s", fe.Param())
	case "gt":
		return Errorf(fe.Field(), "must be greater than %s", fe.Param())
	case "gte":
		return Errorf(fe.Field(), "must not be negative")
	default:
		return Errorf(fe.Field(), "failed %s validation", fe.Tag())
	}
}
