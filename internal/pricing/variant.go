package pricing

import "github.com/shopspring/decimal"

type PriceBehavior string

const (
	PriceBehaviorAdd      PriceBehavior = "add"
	PriceBehaviorOverride PriceBehavior = "override"
)

// Normalize maps unset and unknown behaviors to add.
func (b PriceBehavior) Normalize() PriceBehavior {
	if b == PriceBehaviorOverride {
		return PriceBehaviorOverride
	}
	return PriceBehaviorAdd
}

// Variant carries the pricing fields of a product variant.
type Variant struct {
	Price         OptionalDecimal
	PriceModifier OptionalDecimal
	PriceBehavior PriceBehavior
}

// ResolveUnitPrice returns the unit price of base with a single variant
// selected. A direct Price always wins over a modifier.
func ResolveUnitPrice(base decimal.Decimal, v *Variant) decimal.Decimal {
	if v == nil {
		return base
	}
	if v.Price.Valid {
		return v.Price.Value
	}
	if v.PriceModifier.Valid {
		if v.PriceBehavior.Normalize() == PriceBehaviorOverride {
			return v.PriceModifier.Value
		}
		return base.Add(v.PriceModifier.Value)
	}
	return base
}

// AccumulatePrice folds variants over base in order. Overriding variants
// replace the running total with a price computed from the original base;
// additive variants add their own contribution relative to base.
func AccumulatePrice(base decimal.Decimal, variants []Variant) decimal.Decimal {
	current := base
	for i := range variants {
		v := &variants[i]
		if v.PriceBehavior.Normalize() == PriceBehaviorOverride {
			current = ResolveUnitPrice(base, v)
			continue
		}
		current = current.Add(ResolveUnitPrice(base, v).Sub(base))
	}
	return current
}
