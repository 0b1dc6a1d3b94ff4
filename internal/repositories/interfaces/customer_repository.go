package interfaces

import (
	"context"
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	GetByID(ctx context.Context, customerID, id primitive.ObjectID) (*models.Address, error)
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*models.Address, error)
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, customerID, id primitive.ObjectID) error

	// ClearDefault unsets is_default on every address of the customer
	// except keepID.
	ClearDefault(ctx context.Context, customerID, keepID primitive.ObjectID) error
}

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ListByProduct(ctx context.Context, productID primitive.ObjectID, approvedOnly bool, params *utils.PaginationParams) ([]*models.Review, int64, error)
	ListPending(ctx context.Context, params *utils.PaginationParams) ([]*models.Review, int64, error)
	Approve(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// RatingSummary averages approved reviews of the product.
	RatingSummary(ctx context.Context, productID primitive.ObjectID) (avg float64, count int, err error)
}
