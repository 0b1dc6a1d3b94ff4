package config

import (
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// StoreConfig holds the shop-level pricing settings.
type StoreConfig struct {
	Currency              string          `yaml:"currency"`
	DeliveryFee           decimal.Decimal `yaml:"delivery_fee"`
	FreeDeliveryThreshold decimal.Decimal `yaml:"free_delivery_threshold"`
	FreeShippingEstimate  decimal.Decimal `yaml:"free_shipping_estimate"`
	BuyXGetYEstimate      decimal.Decimal `yaml:"bxgy_estimate"`
	AutoApplyCacheTTL     time.Duration   `yaml:"auto_apply_cache_ttl"`
	OrderNumberPrefix     string          `yaml:"order_number_prefix"`
	ThumbnailWidth        int             `yaml:"thumbnail_width"`
	MaxImageSize          int64           `yaml:"max_image_size"`
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Currency:              getEnv("STORE_CURRENCY", "USD"),
		DeliveryFee:           getEnvAsDecimal("STORE_DELIVERY_FEE", decimal.RequireFromString("7.50")),
		FreeDeliveryThreshold: getEnvAsDecimal("STORE_FREE_DELIVERY_THRESHOLD", decimal.Zero),
		FreeShippingEstimate:  getEnvAsDecimal("AUTO_APPLY_FREE_SHIPPING_ESTIMATE", decimal.NewFromInt(8)),
		BuyXGetYEstimate:      getEnvAsDecimal("AUTO_APPLY_BXGY_ESTIMATE", decimal.NewFromInt(10)),
		AutoApplyCacheTTL:     getEnvAsDuration("AUTO_APPLY_CACHE_TTL", time.Minute),
		OrderNumberPrefix:     getEnv("ORDER_NUMBER_PREFIX", "BH"),
		ThumbnailWidth:        getEnvAsInt("THUMBNAIL_WIDTH", 400),
		MaxImageSize:          int64(getEnvAsInt("MAX_IMAGE_SIZE", 8<<20)),
	}
}

// DeliveryFeeFor returns the fee for a delivery order with the given subtotal.
// A zero threshold disables free delivery.
func (c *StoreConfig) DeliveryFeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if c.FreeDeliveryThreshold.IsPositive() && subtotal.GreaterThanOrEqual(c.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return c.DeliveryFee
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
