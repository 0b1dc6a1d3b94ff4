package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"bakehouse/internal/pricing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

var (
	phoneRegex     = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	promoCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{2,31}$`)
	htmlRegex      = regexp.MustCompile(`<[^>]*>`)
)

func init() {
	validate = validator.New()
	registerCustom(validate)
}

func registerCustom(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	v.RegisterValidation("object_id", validateObjectID)
	v.RegisterValidation("phone_number", validatePhoneNumber)
	v.RegisterValidation("promo_code", validatePromoCodeTag)
	v.RegisterValidation("discount_type", validateDiscountType)
	v.RegisterValidation("non_negative", validateNonNegative)
}

// RegisterWithGin adds the custom tags to gin's binding validator so
// `binding:` tags can use them too.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	registerCustom(v)
	return nil
}

var (
	ErrInvalidObjectID = errors.New("invalid object ID format")
	ErrInvalidPromo    = errors.New("invalid promo code")
	ErrInvalidProduct  = errors.New("invalid product")
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

// Details maps field to message for the API error envelope.
func (v ValidationErrors) Details() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Field] = err.Message
	}
	return out
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: "struct", Message: err.Error()}}
	}
	for _, fe := range verrs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "object_id":
		return "Invalid ID format"
	case "phone_number":
		return "Invalid phone number format"
	case "promo_code":
		return "Code must be 3-32 upper-case letters, digits, '-' or '_'"
	case "discount_type":
		return "Discount type must be percentage, fixed_amount, free_shipping or bxgy"
	case "non_negative":
		return fmt.Sprintf("%s must not be negative", err.Field())
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// decimalValue lets numeric tags see a decimal.Decimal as a float.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || IsValidObjectID(value)
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return phoneRegex.MatchString(phone)
}

func validatePromoCodeTag(fl validator.FieldLevel) bool {
	return promoCodeRegex.MatchString(fl.Field().String())
}

func validateDiscountType(fl validator.FieldLevel) bool {
	return pricing.DiscountType(fl.Field().String()).IsValid()
}

func validateNonNegative(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return f.Float() >= 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() >= 0
	case reflect.String:
		d, err := decimal.NewFromString(f.String())
		return err == nil && !d.IsNegative()
	case reflect.Ptr, reflect.Invalid:
		return true
	}
	return false
}

func IsValidObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// ParseObjectIDs converts hex ids, failing on the first malformed one.
func ParseObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidObjectID, id)
		}
		out = append(out, oid)
	}
	return out, nil
}

func SanitizeInput(input string) string {
	return strings.TrimSpace(htmlRegex.ReplaceAllString(input, ""))
}
