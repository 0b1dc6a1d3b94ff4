package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string
type FulfillmentType string
type PaymentStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"

	FulfillmentDelivery FulfillmentType = "delivery"
	FulfillmentPickup   FulfillmentType = "pickup"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// orderTransitions lists the statuses an order may move to from each status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusPaid, OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPaid:           {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:      {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:          {OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusPreparing, OrderStatusReady,
		OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	OrderNumber    string              `json:"order_number" bson:"order_number"`
	CustomerID     primitive.ObjectID  `json:"customer_id" bson:"customer_id"`
	Items          []OrderItem         `json:"items" bson:"items"`
	Fulfillment    FulfillmentType     `json:"fulfillment" bson:"fulfillment"`
	Address        *Address            `json:"address,omitempty" bson:"address,omitempty"`
	Subtotal       decimal.Decimal     `json:"subtotal" bson:"subtotal"`
	DeliveryFee    decimal.Decimal     `json:"delivery_fee" bson:"delivery_fee"`
	DiscountAmount decimal.Decimal     `json:"discount_amount" bson:"discount_amount"`
	PromoCode      string              `json:"promo_code,omitempty" bson:"promo_code,omitempty"`
	PromoID        *primitive.ObjectID `json:"promo_id,omitempty" bson:"promo_id,omitempty"`
	TotalAmount    decimal.Decimal     `json:"total_amount" bson:"total_amount"`
	Currency       string              `json:"currency" bson:"currency"`
	Status         OrderStatus         `json:"status" bson:"status"`
	Payment        OrderPayment        `json:"payment" bson:"payment"`
	Notes          string              `json:"notes" bson:"notes"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" bson:"updated_at"`
	CancelledAt    *time.Time          `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

type OrderItem struct {
	ProductID  primitive.ObjectID   `json:"product_id" bson:"product_id"`
	VariantIDs []primitive.ObjectID `json:"variant_ids" bson:"variant_ids"`
	Name       string               `json:"name" bson:"name"`
	Quantity   int                  `json:"quantity" bson:"quantity"`
	UnitPrice  decimal.Decimal      `json:"unit_price" bson:"unit_price"`
	LineTotal  decimal.Decimal      `json:"line_total" bson:"line_total"`
}

type OrderPayment struct {
	Provider      string        `json:"provider" bson:"provider"`
	TransactionID string        `json:"transaction_id" bson:"transaction_id"`
	ChargeID      string        `json:"charge_id,omitempty" bson:"charge_id,omitempty"`
	ClientSecret  string        `json:"client_secret,omitempty" bson:"-"`
	Status        PaymentStatus `json:"status" bson:"status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	RefundID      string        `json:"refund_id,omitempty" bson:"refund_id,omitempty"`
}

type CartItem struct {
	ProductID  string   `json:"product_id" binding:"required"`
	VariantIDs []string `json:"variant_ids"`
	Quantity   int      `json:"quantity" binding:"required,min=1,max=100"`
}

type CheckoutRequest struct {
	Items           []CartItem      `json:"items" binding:"required,min=1,dive"`
	PromoCode       string          `json:"promo_code"`
	SkipAutoApply   bool            `json:"skip_auto_apply"`
	Fulfillment     FulfillmentType `json:"fulfillment" binding:"omitempty,oneof=delivery pickup"`
	AddressID       string          `json:"address_id"`
	Notes           string          `json:"notes" binding:"max=500"`
	PaymentProvider string          `json:"payment_provider"`
	PaymentMethodID string          `json:"payment_method_id"`
}

// CheckoutQuote is a priced cart that has not been persisted.
type CheckoutQuote struct {
	Items          []OrderItem     `json:"items"`
	Fulfillment    FulfillmentType `json:"fulfillment"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DeliveryFeeDue decimal.Decimal `json:"delivery_fee_due"`
	IsFreeShipping bool            `json:"is_free_shipping"`
	PromoCode      string          `json:"promo_code,omitempty"`
	AutoApplied    bool            `json:"auto_applied"`
	PromoError     string          `json:"promo_error,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`

	promo *PromoCode
}

func (q *CheckoutQuote) SetPromo(p *PromoCode) {
	q.promo = p
}

func (q *CheckoutQuote) Promo() *PromoCode {
	return q.promo
}

type OrderFilter struct {
	CustomerID *primitive.ObjectID
	Status     OrderStatus
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
	Note   string      `json:"note"`
}
