package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// SetupValidator configures gin's validator with JSON field names, decimal
// support and the billing enum tags used by the request DTOs
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return RegisterValidations(v)
}

// RegisterValidations installs the billing validation tags on v
func RegisterValidations(v *validator.Validate) error {
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	// decimal.Decimal is a struct; validate its canonical string form instead
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	validations := map[string]validator.Func{
		"decimal_gt0":    decimalSign(func(d decimal.Decimal) bool { return d.IsPositive() }),
		"decimal_gte0":   decimalSign(func(d decimal.Decimal) bool { return !d.IsNegative() }),
		"payment_method": enumOf(func(s string) error { _, err := billing.ParsePaymentMethod(s); return err }),
		"channel":        enumOf(func(s string) error { _, err := billing.ParseChannel(s); return err }),
		"reminder_type":  enumOf(func(s string) error { _, err := billing.ParseReminderType(s); return err }),
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func decimalSign(ok func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return ok(d)
	}
}

func enumOf(parse func(string) error) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return parse(fl.Field().String()) == nil
	}
}

// FormatValidationErrors lists each rejected field, or reports a body that
// could not be decoded at all.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse("Malformed request body: "+err.Error(), requestID, nil)
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError answers 400 VALIDATION_FAILED
func HandleValidationError(c *gin.Context, err error) {
	c.Set(ErrorCodeKey, dto.ErrCodeValidation)
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, c.GetString(RequestIDKey)))
}

var fixedMessages = map[string]string{
	"required":       "This field is required",
	"email":          "Invalid email format",
	"uuid":           "Invalid UUID format",
	"url":            "Invalid URL format",
	"decimal_gt0":    "Must be a decimal greater than zero",
	"decimal_gte0":   "Must be a decimal greater than or equal to zero",
	"payment_method": "Unknown payment method",
	"channel":        "Unknown notification channel",
	"reminder_type":  "Unknown reminder type",
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}
	bound := map[string]string{"min": "at least", "max": "at most"}[fe.Tag()]
	switch {
	case fe.Tag() == "oneof":
		return "Must be one of: " + fe.Param()
	case bound == "":
		return "Invalid value"
	case fe.Kind() == reflect.String:
		return "Must be " + bound + " " + fe.Param() + " characters"
	case fe.Kind() == reflect.Slice:
		return "Must contain " + bound + " " + fe.Param() + " item(s)"
	}
	return "Must be " + bound + " " + fe.Param()
}
