package models

import (
	"time"

	"bakehouse/internal/pricing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountType = pricing.DiscountType

const (
	DiscountTypePercentage   = pricing.DiscountPercentage
	DiscountTypeFixedAmount  = pricing.DiscountFixedAmount
	DiscountTypeFreeShipping = pricing.DiscountFreeShipping
	DiscountTypeBuyXGetY     = pricing.DiscountBuyXGetY
)

type PromoCode struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Code              string             `json:"code" bson:"code" validate:"required,promo_code"`
	Description       string             `json:"description" bson:"description" validate:"max=500"`
	DiscountType      DiscountType       `json:"discount_type" bson:"discount_type" validate:"required,discount_type"`
	DiscountValue     decimal.Decimal    `json:"discount_value" bson:"discount_value" validate:"non_negative"`
	MinOrderAmount    *decimal.Decimal   `json:"min_order_amount" bson:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount" bson:"max_discount_amount"`
	AutoApplyEligible bool               `json:"auto_apply_eligible" bson:"auto_apply_eligible"`
	IsActive          bool               `json:"is_active" bson:"is_active"`
	ValidFrom         time.Time          `json:"valid_from" bson:"valid_from"`
	ValidUntil        time.Time          `json:"valid_until" bson:"valid_until"`
	UsageLimit        int                `json:"usage_limit" bson:"usage_limit" validate:"gte=0"`
	PerCustomerLimit  int                `json:"per_customer_limit" bson:"per_customer_limit" validate:"gte=0"`
	UsedCount         int                `json:"used_count" bson:"used_count"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

// Terms converts the stored record into the calculator's view.
func (p *PromoCode) Terms() pricing.Promo {
	return pricing.Promo{
		Code:              p.Code,
		DiscountType:      p.DiscountType,
		DiscountValue:     p.DiscountValue,
		MinOrderAmount:    pricing.FromPtr(p.MinOrderAmount),
		MaxDiscountAmount: pricing.FromPtr(p.MaxDiscountAmount),
		AutoApplyEligible: p.AutoApplyEligible,
		IsActive:          p.IsActive,
		ValidFrom:         p.ValidFrom,
		ValidUntil:        p.ValidUntil,
	}
}

// PromoRedemption records one use of a promo by a customer on an order.
type PromoRedemption struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PromoID    primitive.ObjectID `json:"promo_id" bson:"promo_id"`
	Code       string             `json:"code" bson:"code"`
	CustomerID primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	OrderID    primitive.ObjectID `json:"order_id" bson:"order_id"`
	Discount   decimal.Decimal    `json:"discount" bson:"discount"`
	RedeemedAt time.Time          `json:"redeemed_at" bson:"redeemed_at"`
}

type PromoValidationRequest struct {
	Code        string          `json:"code" binding:"required"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
}

type PromoValidationResponse struct {
	Code                string          `json:"code"`
	DiscountType        DiscountType    `json:"discount_type"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	AdjustedDeliveryFee decimal.Decimal `json:"adjusted_delivery_fee"`
	IsFreeShipping      bool            `json:"is_free_shipping"`
}
