package models

import (
	"time"

	"bakehouse/internal/pricing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PriceBehavior = pricing.PriceBehavior

const (
	PriceBehaviorAdd      = pricing.PriceBehaviorAdd
	PriceBehaviorOverride = pricing.PriceBehaviorOverride
)

type Product struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name" validate:"required,min=2,max=120"`
	Slug         string             `json:"slug" bson:"slug"`
	Description  string             `json:"description" bson:"description" validate:"max=2000"`
	Category     string             `json:"category" bson:"category" validate:"required"`
	BasePrice    decimal.Decimal    `json:"base_price" bson:"base_price" validate:"non_negative"`
	ImageURL     string             `json:"image_url" bson:"image_url"`
	ThumbnailURL string             `json:"thumbnail_url" bson:"thumbnail_url"`
	IsActive     bool               `json:"is_active" bson:"is_active"`
	Variants     []ProductVariant   `json:"variants" bson:"variants" validate:"dive"`
	RatingAvg    float64            `json:"rating_avg" bson:"rating_avg"`
	RatingCount  int                `json:"rating_count" bson:"rating_count"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Variant returns the variant with id, or nil.
func (p *Product) Variant(id primitive.ObjectID) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

type ProductVariant struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	Name          string             `json:"name" bson:"name" validate:"required,max=80"`
	Price         *decimal.Decimal   `json:"price" bson:"price"`
	PriceModifier *decimal.Decimal   `json:"price_modifier" bson:"price_modifier"`
	PriceBehavior PriceBehavior      `json:"price_behavior" bson:"price_behavior" validate:"omitempty,oneof=add override"`
	StockQuantity int                `json:"stock_quantity" bson:"stock_quantity" validate:"gte=0"`
}

func (v *ProductVariant) Pricing() pricing.Variant {
	return pricing.Variant{
		Price:         pricing.FromPtr(v.Price),
		PriceModifier: pricing.FromPtr(v.PriceModifier),
		PriceBehavior: v.PriceBehavior,
	}
}

type ProductFilter struct {
	Category   string
	ActiveOnly bool
}

type ProductQuoteRequest struct {
	VariantIDs []string `json:"variant_ids"`
	Quantity   int      `json:"quantity"`
}

type ProductQuote struct {
	ProductID primitive.ObjectID `json:"product_id"`
	UnitPrice decimal.Decimal    `json:"unit_price"`
	Quantity  int                `json:"quantity"`
	LineTotal decimal.Decimal    `json:"line_total"`
}
