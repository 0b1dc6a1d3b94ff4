package interfaces

import (
	"context"

	"bakehouse/internal/models"
	"bakehouse/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetByTransactionID(ctx context.Context, provider, transactionID string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error)

	// Transition moves the order from status from to to. It returns
	// ErrConflict when the stored status is no longer from. payment is
	// written too when non-nil.
	Transition(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, payment *models.OrderPayment) error
	UpdatePayment(ctx context.Context, id primitive.ObjectID, payment models.OrderPayment) error
}
