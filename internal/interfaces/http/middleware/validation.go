package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// sessionKeyPattern is the accepted shape of an X-Session-Key value
var sessionKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{16,128}$`)

var setupOnce sync.Once

// SetupValidator configures gin's validator: JSON field names in errors,
// decimal.Decimal values validated through their string form, and the
// decimal_gte0 and session_key tags. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
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
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("decimal_gte0", validateDecimalGTE0)
		_ = v.RegisterValidation("session_key", validateSessionKey)
	})
}

func validateDecimalGTE0(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(s)
	return err == nil && !d.IsNegative()
}

func validateSessionKey(fl validator.FieldLevel) bool {
	return ValidSessionKey(fl.Field().String())
}

// ValidSessionKey reports whether key has the accepted session key shape
func ValidSessionKey(key string) bool {
	return sessionKeyPattern.MatchString(key)
}

// ValidationDetails turns validator errors into per-field messages
func ValidationDetails(err error) []dto.ValidationDetail {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: getValidationMessage(e),
		})
	}
	return details
}

// HandleValidationError writes the error response for a failed bind. Validator
// errors carry per-field details, oversized bodies get 413 and anything
// else (malformed JSON, wrong types) is reported as a bad request.
func HandleValidationError(c *gin.Context, err error) {
	requestID := logger.GetRequestID(c.Request.Context())
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortPayloadTooLarge(c, tooLarge.Limit)
		return
	}
	if fields := ValidationDetails(err); len(fields) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			dto.NewValidationErrorResponse("Request validation failed", requestID, fields))
		return
	}
	resp := dto.NewErrorResponse(dto.ErrCodeBadRequest, "Invalid request body: "+err.Error())
	resp.Error.RequestID = requestID
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " item(s)"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at most " + e.Param() + " items"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "ne":
		return "Must not be " + e.Param()
	case "decimal_gte0":
		return "Must be a number greater than or equal to 0"
	case "session_key":
		return "Must be 16 to 128 letters, digits, dots, dashes or underscores"
	default:
		return "Invalid value"
	}
}
