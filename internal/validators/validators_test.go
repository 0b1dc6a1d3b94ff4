package validators

import (
	"testing"
	"time"

	"bakehouse/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func validPromo() *models.PromoCode {
	return &models.PromoCode{
		Code:          " welcome10 ",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: dec("10"),
		IsActive:      true,
		ValidFrom:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:    time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func fields(errs ValidationErrors) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidatePromoCodeAcceptsAndNormalizes(t *testing.T) {
	p := validPromo()
	errs := ValidatePromoCode(p)
	assert.Empty(t, errs)
	assert.Equal(t, "WELCOME10", p.Code)
}

func TestValidatePromoCodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(p *models.PromoCode)
		field string
	}{
		{"bad code", func(p *models.PromoCode) { p.Code = "a!" }, "Code"},
		{"unknown type", func(p *models.PromoCode) { p.DiscountType = "bogo" }, "DiscountType"},
		{"negative value", func(p *models.PromoCode) { p.DiscountValue = dec("-1") }, "DiscountValue"},
		{"percentage over 100", func(p *models.PromoCode) { p.DiscountValue = dec("150") }, "discount_value"},
		{"negative minimum", func(p *models.PromoCode) { p.MinOrderAmount = decPtr("-5") }, "min_order_amount"},
		{"negative max", func(p *models.PromoCode) { p.MaxDiscountAmount = decPtr("-5") }, "max_discount_amount"},
		{"window reversed", func(p *models.PromoCode) { p.ValidUntil = p.ValidFrom.Add(-time.Hour) }, "valid_until"},
		{"negative usage limit", func(p *models.PromoCode) { p.UsageLimit = -1 }, "UsageLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPromo()
			tt.mut(p)
			errs := ValidatePromoCode(p)
			require.NotEmpty(t, errs)
			assert.Contains(t, fields(errs), tt.field)
		})
	}
}

func TestValidatePromoCodeAllowsFixedOver100(t *testing.T) {
	p := validPromo()
	p.DiscountType = models.DiscountTypeFixedAmount
	p.DiscountValue = dec("150")
	assert.Empty(t, ValidatePromoCode(p))
}

func TestValidateProduct(t *testing.T) {
	p := &models.Product{
		Name:      "Sourdough <b>Loaf</b>",
		Category:  " Bread ",
		BasePrice: dec("6.50"),
		Variants: []models.ProductVariant{
			{ID: primitive.NewObjectID(), Name: "Large", PriceModifier: decPtr("2")},
			{ID: primitive.NewObjectID(), Name: "Sliced", PriceModifier: decPtr("-0.50")},
		},
	}
	assert.Empty(t, ValidateProduct(p))
	assert.Equal(t, "Sourdough Loaf", p.Name)
	assert.Equal(t, "bread", p.Category)

	p.BasePrice = dec("-1")
	assert.Contains(t, fields(ValidateProduct(p)), "BasePrice")
}

func TestValidateProductVariantRules(t *testing.T) {
	p := &models.Product{
		Name:      "Cake",
		Category:  "cakes",
		BasePrice: dec("20"),
		Variants: []models.ProductVariant{
			{Name: "Box", PriceBehavior: models.PriceBehaviorOverride},
			{Name: "box", Price: decPtr("-3")},
		},
	}
	got := fields(ValidateProduct(p))
	assert.Contains(t, got, "variants[0].price_modifier")
	assert.Contains(t, got, "variants[1].price")
	assert.Contains(t, got, "variants[1].name")
}

func TestParseObjectIDs(t *testing.T) {
	id := primitive.NewObjectID()
	ids, err := ParseObjectIDs([]string{id.Hex()})
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{id}, ids)

	_, err = ParseObjectIDs([]string{"nope"})
	assert.ErrorIs(t, err, ErrInvalidObjectID)
}

func TestValidationErrorsDetails(t *testing.T) {
	errs := ValidationErrors{{Field: "code", Message: "bad"}}
	assert.Equal(t, map[string]string{"code": "bad"}, errs.Details())
	assert.Equal(t, "code: bad", errs.Error())
}
