package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixedAmount  DiscountType = "fixed_amount"
	DiscountFreeShipping DiscountType = "free_shipping"
	DiscountBuyXGetY     DiscountType = "bxgy"
)

func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountPercentage, DiscountFixedAmount, DiscountFreeShipping, DiscountBuyXGetY:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// DefaultBuyXGetYValue stands in for a bxgy promo stored without a value.
var DefaultBuyXGetYValue = decimal.NewFromInt(10)

// Promo is the read-only view of a promo code used by the calculators.
type Promo struct {
	Code              string
	DiscountType      DiscountType
	DiscountValue     decimal.Decimal
	MinOrderAmount    OptionalDecimal
	MaxDiscountAmount OptionalDecimal
	AutoApplyEligible bool
	IsActive          bool
	ValidFrom         time.Time
	ValidUntil        time.Time
}

type PromoResult struct {
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	AdjustedDeliveryFee decimal.Decimal `json:"adjusted_delivery_fee"`
	IsFreeShipping      bool            `json:"is_free_shipping"`
}

// IsRedeemable reports whether p is active and now lies inside its validity
// window. A zero bound is treated as open.
func IsRedeemable(p Promo, now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if !p.ValidFrom.IsZero() && now.Before(p.ValidFrom) {
		return false
	}
	if !p.ValidUntil.IsZero() && now.After(p.ValidUntil) {
		return false
	}
	return true
}

// MeetsMinimum reports whether orderTotal reaches the promo minimum. An
// absent minimum is zero.
func MeetsMinimum(p Promo, orderTotal decimal.Decimal) bool {
	return orderTotal.GreaterThanOrEqual(p.MinOrderAmount.Or(decimal.Zero))
}

// ApplyPromo computes the discount p grants on subtotal and deliveryFee.
// Callers must check IsRedeemable first.
func ApplyPromo(p Promo, subtotal, deliveryFee decimal.Decimal) PromoResult {
	res := PromoResult{
		DiscountAmount:      decimal.Zero,
		AdjustedDeliveryFee: deliveryFee,
	}

	switch p.DiscountType {
	case DiscountPercentage:
		d := subtotal.Mul(p.DiscountValue).Div(hundred)
		if p.MaxDiscountAmount.Valid && d.GreaterThan(p.MaxDiscountAmount.Value) {
			d = p.MaxDiscountAmount.Value
		}
		res.DiscountAmount = d
	case DiscountFixedAmount:
		res.DiscountAmount = capAt(p.DiscountValue, subtotal)
	case DiscountFreeShipping:
		res.DiscountAmount = deliveryFee
		res.AdjustedDeliveryFee = decimal.Zero
		res.IsFreeShipping = true
	case DiscountBuyXGetY:
		res.DiscountAmount = capAt(buyXGetYValue(p.DiscountValue, DefaultBuyXGetYValue), subtotal)
	}

	if res.DiscountAmount.IsNegative() {
		res.DiscountAmount = decimal.Zero
	}
	return res
}

func buyXGetYValue(v, def decimal.Decimal) decimal.Decimal {
	if v.IsPositive() {
		return v
	}
	return def
}

// capAt keeps a goods discount from exceeding the goods subtotal.
func capAt(d, limit decimal.Decimal) decimal.Decimal {
	if limit.IsNegative() {
		limit = decimal.Zero
	}
	if d.GreaterThan(limit) {
		return limit
	}
	return d
}
