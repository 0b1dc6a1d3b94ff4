package utils

import "time"

const (
	AppName    = "Bakehouse"
	AppVersion = "1.0.0"

	DefaultCurrency    = "USD"
	DefaultCountryCode = "+1"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 30 * 24 * time.Hour
	OTPLength          = 6
	OTPExpiry          = 10 * time.Minute
	OTPRateLimit       = 3

	// Catalog
	ThumbnailWidth = 400
	MaxImageSize   = 8 * 1024 * 1024

	// Orders
	OrderNumberPrefix = "BH"
	MaxCartItems      = 50
)

// Gin context keys set by the auth middleware.
const (
	ContextKeyCustomerID = "customer_id"
	ContextKeyIsAdmin    = "is_admin"
	ContextKeyRequestID  = "request_id"
	HeaderRequestID      = "X-Request-ID"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrNotFound         = "not found"
	ErrValidationFailed = "validation failed"
	ErrInvalidToken     = "invalid token"
	ErrFileUploadFailed = "file upload failed"
)

// Error codes carried in APIError.Code.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodePromoInvalid       = "PROMO_INVALID"
	CodeOutOfStock         = "OUT_OF_STOCK"
	CodeInvalidState       = "INVALID_STATE"
	CodePaymentFailed      = "PAYMENT_FAILED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Cache keys
const (
	CacheAutoApplyPrefix = "promo:auto_apply:"
	CacheOTPPrefix       = "otp:"
	CacheRateLimitPrefix = "rate_limit:otp:"
)

// Websocket event types
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPaid          = "order.paid"
	EventOrderCancelled     = "order.cancelled"
)

var AllowedImageTypes = []string{".jpg", ".jpeg", ".png"}
