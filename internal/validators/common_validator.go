package validators

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"dealtrail/internal/models"
	"dealtrail/internal/utils"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validation functions
	validate.RegisterValidation("coordinates", validateCoordinates)
	validate.RegisterValidation("deal_type", validateDealType)
	validate.RegisterValidation("day_of_week", validateDayOfWeek)
}

// Common validation errors
var (
	ErrInvalidCoordinates = errors.New("invalid GPS coordinates")
	ErrInvalidDealType    = errors.New("invalid deal type")
	ErrInvalidDayOfWeek   = errors.New("invalid day of week")
)

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			validationError := ValidationError{
				Field:   err.Field(),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			}
			validationErrors = append(validationErrors, validationError)
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "coordinates":
		return "Invalid GPS coordinates"
	case "deal_type":
		return "Invalid deal type"
	case "day_of_week":
		return "Invalid day of week"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// Custom validation functions
func validateCoordinates(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().(models.Coordinates)
	if !ok {
		return false
	}
	return utils.IsValidCoordinates(coords.Latitude, coords.Longitude)
}

func validateDealType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	return models.IsValidDealType(models.DealType(models.CanonicalDealType(value)))
}

func validateDayOfWeek(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	return models.IsValidDay(models.DayOfWeek(strings.ToLower(value)))
}
