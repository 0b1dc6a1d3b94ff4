package validators

import (
	"fmt"
	"strings"

	"bakehouse/internal/models"
)

// ValidateProduct checks a product and its variants before they are stored.
func ValidateProduct(p *models.Product) ValidationErrors {
	p.Name = SanitizeInput(p.Name)
	p.Description = SanitizeInput(p.Description)
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))

	errs := ValidateStruct(p)

	seen := make(map[string]bool, len(p.Variants))
	for i := range p.Variants {
		errs = append(errs, validateVariant(i, &p.Variants[i])...)

		name := strings.ToLower(p.Variants[i].Name)
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("variants[%d].name", i),
				Tag:     "unique",
				Value:   p.Variants[i].Name,
				Message: "Variant names must be unique within a product",
			})
		}
		seen[name] = true
	}

	return errs
}

// ValidateVariant checks a single variant added to an existing product.
func ValidateVariant(v *models.ProductVariant) ValidationErrors {
	errs := ValidateStruct(v)
	return append(errs, validateVariant(0, v)...)
}

func validateVariant(i int, v *models.ProductVariant) ValidationErrors {
	var errs ValidationErrors
	v.Name = SanitizeInput(v.Name)

	if v.Price != nil && v.Price.IsNegative() {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("variants[%d].price", i),
			Tag:     "non_negative",
			Value:   v.Price.String(),
			Message: "Variant price must not be negative",
		})
	}

	if v.PriceBehavior == models.PriceBehaviorOverride && v.Price == nil && v.PriceModifier == nil {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("variants[%d].price_modifier", i),
			Tag:     "required_with",
			Message: "Override variants need a price or price_modifier",
		})
	}

	return errs
}
