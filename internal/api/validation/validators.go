// Package validation holds the request validator shared by all handlers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"villagework/pkg/models"
	"villagework/pkg/utils"
)

// PhonePattern accepts 10 to 15 digits with an optional leading +
var PhonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// ValidatePhone checks a phone number after separators are stripped
func ValidatePhone(fl validator.FieldLevel) bool {
	return PhonePattern.MatchString(models.NormalizePhone(fl.Field().String()))
}

// ValidateExperienceLevel accepts the canonical levels and their aliases
func ValidateExperienceLevel(fl validator.FieldLevel) bool {
	_, ok := models.NormalizeExperienceLevel(fl.Field().String())
	return ok
}

// MaxPasswordBytes is the longest input bcrypt hashes
const MaxPasswordBytes = 72

// ValidatePasswordBytes rejects passwords whose UTF-8 encoding bcrypt cannot hash
func ValidatePasswordBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPasswordBytes
}

// RegisterMarketplaceValidators registers the custom tags used by request models
func RegisterMarketplaceValidators(v *validator.Validate) {
	v.RegisterValidation("phone", ValidatePhone)
	v.RegisterValidation("experience_level", ValidateExperienceLevel)
	v.RegisterValidation("password_bytes", ValidatePasswordBytes)
}

// Validator adapts validator/v10 to echo.Validator
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	RegisterMarketplaceValidators(v)
	return &Validator{validate: v}
}

// Validate returns a *utils.CustomError describing every failed field
func (cv *Validator) Validate(i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}
	return utils.NewValidationError(Describe(err))
}

// Describe turns validator errors into one readable sentence per field
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "phone":
		return field + " must be a valid phone number"
	case "experience_level":
		return field + " must be helper, worker, expert or any"
	case "password_bytes":
		return fmt.Sprintf("%s must be at most %d bytes", field, MaxPasswordBytes)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
