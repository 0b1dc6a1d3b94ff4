package services

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrProductInactive   = errors.New("product is not available")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSlugTaken         = errors.New("a product with this slug already exists")
	ErrInvalidImage      = errors.New("image must be a jpeg or png")
	ErrImageTooLarge     = errors.New("image is too large")

	ErrPromoNotFound      = errors.New("promo code not found")
	ErrPromoInactive      = errors.New("promo code is not active")
	ErrPromoNotStarted    = errors.New("promo code is not valid yet")
	ErrPromoExpired       = errors.New("promo code has expired")
	ErrPromoMinOrder      = errors.New("order does not meet the promo minimum")
	ErrPromoUsageLimit    = errors.New("promo code usage limit reached")
	ErrPromoCustomerLimit = errors.New("promo code already used the maximum number of times")
	ErrPromoCodeTaken     = errors.New("promo code already exists")

	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidTransition  = errors.New("order status change not allowed")
	ErrOrderNotCancelable = errors.New("order can no longer be cancelled")
	ErrAddressRequired    = errors.New("delivery orders need an address")
	ErrPaymentFailed      = errors.New("payment could not be created")
	ErrUnknownProvider    = errors.New("unknown payment provider")

	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidOTP      = errors.New("invalid or expired code")
	ErrTooManyRequests = errors.New("too many requests, try again later")
	ErrInvalidToken    = errors.New("invalid or expired token")

	ErrCustomerNotFound = errors.New("customer not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrAlreadyReviewed  = errors.New("you have already reviewed this product")
	ErrForbidden        = errors.New("not allowed")
)

// ValidationError wraps field errors from the validators package.
type ValidationError struct {
	Details map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
