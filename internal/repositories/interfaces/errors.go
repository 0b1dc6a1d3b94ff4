package interfaces

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrConflict          = errors.New("record changed concurrently")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUsageLimitReached = errors.New("promo usage limit reached")
	ErrCustomerLimit     = errors.New("promo per-customer limit reached")
)
