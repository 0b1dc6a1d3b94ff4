package pricing

import "github.com/shopspring/decimal"

// Line is one cart line: a product at BasePrice with Variants selected.
type Line struct {
	BasePrice decimal.Decimal
	Variants  []Variant
	Quantity  int
}

type Totals struct {
	UnitPrices     []decimal.Decimal `json:"unit_prices"`
	LineTotals     []decimal.Decimal `json:"line_totals"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DeliveryFee    decimal.Decimal   `json:"delivery_fee"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	DeliveryFeeDue decimal.Decimal   `json:"delivery_fee_due"`
	IsFreeShipping bool              `json:"is_free_shipping"`
	PromoCode      string            `json:"promo_code,omitempty"`
	Total          decimal.Decimal   `json:"total"`
}

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeTotals prices lines, applies promo (may be nil) and returns the
// order figures. The total is subtotal + delivery fee - discount, floored at
// zero; a free shipping discount equals the fee so it is never counted twice.
func ComputeTotals(lines []Line, deliveryFee decimal.Decimal, promo *Promo) Totals {
	t := Totals{
		UnitPrices: make([]decimal.Decimal, len(lines)),
		LineTotals: make([]decimal.Decimal, len(lines)),
	}

	subtotal := decimal.Zero
	for i, l := range lines {
		unit := AccumulatePrice(l.BasePrice, l.Variants)
		qty := l.Quantity
		if qty < 0 {
			qty = 0
		}
		lt := unit.Mul(decimal.NewFromInt(int64(qty)))
		t.UnitPrices[i] = unit
		t.LineTotals[i] = lt
		subtotal = subtotal.Add(lt)
	}

	t.Subtotal = RoundMoney(subtotal)
	t.DeliveryFee = RoundMoney(deliveryFee)
	t.DiscountAmount = decimal.Zero
	t.DeliveryFeeDue = t.DeliveryFee

	if promo != nil {
		res := ApplyPromo(*promo, t.Subtotal, t.DeliveryFee)
		t.DiscountAmount = RoundMoney(res.DiscountAmount)
		t.DeliveryFeeDue = RoundMoney(res.AdjustedDeliveryFee)
		t.IsFreeShipping = res.IsFreeShipping
		t.PromoCode = promo.Code
	}

	total := t.Subtotal.Add(t.DeliveryFee).Sub(t.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	t.Total = RoundMoney(total)
	return t
}
