package interfaces

import (
	"context"

	"bakehouse/internal/models"
	"bakehouse/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter, params *utils.PaginationParams) ([]*models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error

	// Stock is held per variant. Decrement fails with ErrInsufficientStock
	// without changing anything when fewer than qty remain.
	DecrementStock(ctx context.Context, productID, variantID primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, productID, variantID primitive.ObjectID, qty int) error

	UpdateRating(ctx context.Context, id primitive.ObjectID, avg float64, count int) error
}
