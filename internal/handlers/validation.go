package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	pkgauth "github.com/mystic-aac/accountcenter/pkg/auth"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
)

// ValidationErrorResponse represents a validation error with field-level details
type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var charNamePattern = regexp.MustCompile(`^[a-zA-Z ]{3,20}$`)

// Global validator instance (reused across all handlers)
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"form", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return pkgauth.ValidUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("charname", func(fl validator.FieldLevel) bool {
		return charNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateRequest validates a request struct using go-playground/validator
// Returns a user-friendly error message if validation fails
func ValidateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fmt.Errorf("validation failed: %s: %s", ve[0].Field(), formatValidationError(ve[0]))
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidationDetails lists every failing field of req, or nil when req is valid
func ValidationDetails(req any) []ValidationErrorResponse {
	var ve validator.ValidationErrors
	if err := validate.Struct(req); !errors.As(err, &ve) {
		return nil
	}

	details := make([]ValidationErrorResponse, 0, len(ve))
	for _, fe := range ve {
		details = append(details, ValidationErrorResponse{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return details
}

// ValidationFailure is the 400 body for JSON endpoints
type ValidationFailure struct {
	Error   string                    `json:"error"`
	Message string                    `json:"message"`
	Fields  []ValidationErrorResponse `json:"fields,omitempty"`
}

func writeValidationError(w http.ResponseWriter, req any, err error) {
	pkghttp.WriteJSON(w, http.StatusBadRequest, ValidationFailure{
		Error:   "invalid_data",
		Message: err.Error(),
		Fields:  ValidationDetails(req),
	})
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "eqfield":
		return fmt.Sprintf("must match %s", fe.Param())
	case "numeric":
		return "must be a number"
	case "username":
		return "must be 3 to 50 letters, digits or underscores"
	case "charname":
		return "must be 3 to 20 letters or spaces"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
