package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Estimator values promos for auto-apply ranking. Its free shipping and bxgy
// figures are placeholders for ranking only; the discount charged at checkout
// always comes from ApplyPromo.
type Estimator struct {
	FreeShipping decimal.Decimal
	BuyXGetY     decimal.Decimal
}

var DefaultEstimator = Estimator{
	FreeShipping: decimal.NewFromInt(8),
	BuyXGetY:     decimal.NewFromInt(10),
}

// EstimateSavings returns the advisory value of p on an order of orderTotal.
func (e Estimator) EstimateSavings(p Promo, orderTotal decimal.Decimal) decimal.Decimal {
	switch p.DiscountType {
	case DiscountPercentage, DiscountFixedAmount:
		return ApplyPromo(p, orderTotal, decimal.Zero).DiscountAmount
	case DiscountFreeShipping:
		return p.MaxDiscountAmount.Or(e.FreeShipping)
	case DiscountBuyXGetY:
		return buyXGetYValue(p.DiscountValue, e.BuyXGetY)
	}
	return decimal.Zero
}

// Eligible filters promos down to the ones auto-apply may consider.
func Eligible(promos []Promo, orderTotal decimal.Decimal) []Promo {
	var out []Promo
	for _, p := range promos {
		if !p.AutoApplyEligible || !p.IsActive {
			continue
		}
		if !MeetsMinimum(p, orderTotal) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SelectBest picks the eligible promo with the highest estimated savings.
// Ties prefer percentage promos, then the larger raw discount value, then the
// lexically smaller code.
func (e Estimator) SelectBest(promos []Promo, orderTotal decimal.Decimal) *Promo {
	candidates := Eligible(promos, orderTotal)
	if len(candidates) == 0 {
		return nil
	}

	savings := make([]decimal.Decimal, len(candidates))
	idx := make([]int, len(candidates))
	for i, p := range candidates {
		savings[i] = e.EstimateSavings(p, orderTotal)
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if !savings[i].Equal(savings[j]) {
			return savings[i].GreaterThan(savings[j])
		}
		pi := candidates[i].DiscountType == DiscountPercentage
		pj := candidates[j].DiscountType == DiscountPercentage
		if pi != pj {
			return pi
		}
		if !candidates[i].DiscountValue.Equal(candidates[j].DiscountValue) {
			return candidates[i].DiscountValue.GreaterThan(candidates[j].DiscountValue)
		}
		return candidates[i].Code < candidates[j].Code
	})

	best := candidates[idx[0]]
	return &best
}

// SelectBestPromo runs SelectBest with DefaultEstimator.
func SelectBestPromo(promos []Promo, orderTotal decimal.Decimal) *Promo {
	return DefaultEstimator.SelectBest(promos, orderTotal)
}
