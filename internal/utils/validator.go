// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/ipnexus-backend/internal/models"
)

var validate *validator.Validate

var (
	// Base32 Algorand account address, or the short mock form.
	algorandAddressPattern = regexp.MustCompile(`^[A-Z2-7]{58}$`)
	mockAddressPattern     = regexp.MustCompile(`^ALGO[A-Z0-9]{8}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("ip_type", validateIPType)
	validate.RegisterValidation("wallet_address", validateWalletAddress)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateIPType(fl validator.FieldLevel) bool {
	return models.IPType(fl.Field().String()).Valid()
}

func validateWalletAddress(fl validator.FieldLevel) bool {
	return IsWalletAddress(fl.Field().String())
}

func IsWalletAddress(address string) bool {
	return algorandAddressPattern.MatchString(address) || mockAddressPattern.MatchString(address)
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   lowerFirst(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		if e.Kind().String() == "string" {
			return e.Field() + " must be at least " + e.Param() + " characters"
		}
		return e.Field() + " must be at least " + e.Param()
	case "max":
		if e.Kind().String() == "string" {
			return e.Field() + " must be at most " + e.Param() + " characters"
		}
		return e.Field() + " cannot exceed " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "url":
		return e.Field() + " must be a valid URL"
	case "ip_type":
		return "ipType must be one of patent, copyright, trademark, trade_secret"
	case "wallet_address":
		return "Invalid wallet address"
	case "oneof":
		return e.Field() + " must be one of " + e.Param()
	default:
		return e.Field() + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
