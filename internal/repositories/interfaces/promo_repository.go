package interfaces

import (
	"context"
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PromoRepository interface {
	Create(ctx context.Context, promo *models.PromoCode) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error)
	GetByCode(ctx context.Context, code string) (*models.PromoCode, error)
	Update(ctx context.Context, promo *models.PromoCode) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.PromoCode, int64, error)

	// ListAutoApply returns active, auto-apply promos whose window contains now.
	ListAutoApply(ctx context.Context, now time.Time) ([]*models.PromoCode, error)
}

// RedemptionLedger counts promo uses and enforces usage limits atomically.
type RedemptionLedger interface {
	// Redeem records redemption against promo. It fails with
	// ErrUsageLimitReached, ErrCustomerLimit or ErrDuplicate (same order)
	// and leaves the counts unchanged when it does.
	Redeem(ctx context.Context, promo *models.PromoCode, redemption *models.PromoRedemption) error

	// Release undoes the redemption recorded for orderID, if any.
	Release(ctx context.Context, orderID primitive.ObjectID) error

	// Usage returns total uses of the promo and uses by customerID.
	Usage(ctx context.Context, promoID, customerID primitive.ObjectID) (total int, byCustomer int, err error)
}
