// internal/utils/validator.go
package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	businessIDPattern  = regexp.MustCompile(`^[0-9]{7}-[0-9]$`)
	postcodePattern    = regexp.MustCompile(`^[0-9]{5}$`)
	bankAccountPattern = regexp.MustCompile(`^FI[0-9]{16}$`)
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
	validate.RegisterValidation("business_id", validateBusinessID)
	validate.RegisterValidation("postcode", validatePostcode)
	validate.RegisterValidation("fi_bank_account", validateBankAccount)
	validate.RegisterValidation("blank_or_email", validateBlankOrEmail)
	validate.RegisterValidation("blank_or_oneof", validateBlankOrOneOf)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateBusinessID checks the Finnish business id format and check digit.
func validateBusinessID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if !businessIDPattern.MatchString(value) {
		return false
	}
	weights := []int{7, 9, 10, 5, 8, 4, 2}
	sum := 0
	for i, w := range weights {
		sum += int(value[i]-'0') * w
	}
	remainder := sum % 11
	if remainder == 1 {
		return false
	}
	check := 0
	if remainder > 1 {
		check = 11 - remainder
	}
	return int(value[8]-'0') == check
}

// The optional-field rules below accept a blank value. Views echo unset
// fields as "", and a pointer to "" is not skipped by omitempty, so a client
// resending what it read must not fail on them.

func validatePostcode(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || postcodePattern.MatchString(value)
}

func validateBankAccount(fl validator.FieldLevel) bool {
	value := strings.ReplaceAll(fl.Field().String(), " ", "")
	return value == "" || bankAccountPattern.MatchString(strings.ToUpper(value))
}

func validateBlankOrEmail(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || validate.Var(value, "email") == nil
}

// validateBlankOrOneOf takes a space separated list like oneof.
func validateBlankOrOneOf(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, allowed := range strings.Fields(fl.Param()) {
		if value == allowed {
			return true
		}
	}
	return false
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fieldPath(e.Namespace()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// fieldPath drops the root struct name from a validator namespace, so
// "UpdateApplicationRequest.employee.monthly_pay" becomes "employee.monthly_pay".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email", "blank_or_email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "lte":
		return e.Field() + " must be less than or equal to " + e.Param()
	case "oneof", "blank_or_oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "datetime":
		return e.Field() + " must be a date in format YYYY-MM-DD"
	case "business_id":
		return "Invalid business id"
	case "postcode":
		return "Postcode must be five digits"
	case "fi_bank_account":
		return "Bank account number must be a Finnish IBAN"
	default:
		return e.Field() + " is invalid"
	}
}
