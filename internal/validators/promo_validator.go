package validators

import (
	"strings"

	"bakehouse/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NormalizePromoCode upper-cases and trims a code as entered by a customer.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidatePromoCode normalizes p in place and checks rules that span fields.
func ValidatePromoCode(p *models.PromoCode) ValidationErrors {
	p.Code = NormalizePromoCode(p.Code)
	p.Description = SanitizeInput(p.Description)

	errs := ValidateStruct(p)

	if p.DiscountType == models.DiscountTypePercentage && p.DiscountValue.GreaterThan(hundred) {
		errs = append(errs, ValidationError{
			Field:   "discount_value",
			Tag:     "max",
			Value:   p.DiscountValue.String(),
			Message: "Percentage discount cannot exceed 100",
		})
	}

	if p.MinOrderAmount != nil && p.MinOrderAmount.IsNegative() {
		errs = append(errs, ValidationError{
			Field:   "min_order_amount",
			Tag:     "non_negative",
			Value:   p.MinOrderAmount.String(),
			Message: "min_order_amount must not be negative",
		})
	}

	if p.MaxDiscountAmount != nil && p.MaxDiscountAmount.IsNegative() {
		errs = append(errs, ValidationError{
			Field:   "max_discount_amount",
			Tag:     "non_negative",
			Value:   p.MaxDiscountAmount.String(),
			Message: "max_discount_amount must not be negative",
		})
	}

	if !p.ValidFrom.IsZero() && !p.ValidUntil.IsZero() && !p.ValidUntil.After(p.ValidFrom) {
		errs = append(errs, ValidationError{
			Field:   "valid_until",
			Tag:     "gtfield",
			Value:   p.ValidUntil.String(),
			Message: "valid_until must be after valid_from",
		})
	}

	return errs
}
