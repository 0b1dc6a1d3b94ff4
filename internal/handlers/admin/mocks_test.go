package admin

import (
	"context"
	"io"

	"bakehouse/internal/models"
	"bakehouse/internal/utils"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) product(args mock.Arguments) (*models.Product, error) {
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *mockCatalog) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	return m.product(m.Called(ctx, product))
}

func (m *mockCatalog) UpdateProduct(ctx context.Context, id primitive.ObjectID, product *models.Product) (*models.Product, error) {
	return m.product(m.Called(ctx, id, product))
}

func (m *mockCatalog) GetProduct(ctx context.Context, id primitive.ObjectID, includeInactive bool) (*models.Product, error) {
	return m.product(m.Called(ctx, id, includeInactive))
}

func (m *mockCatalog) ListProducts(ctx context.Context, filter models.ProductFilter, params *utils.PaginationParams) ([]*models.Product, int64, error) {
	args := m.Called(ctx, filter, params)
	products, _ := args.Get(0).([]*models.Product)
	return products, args.Get(1).(int64), args.Error(2)
}

func (m *mockCatalog) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalog) AddVariant(ctx context.Context, productID primitive.ObjectID, variant *models.ProductVariant) (*models.Product, error) {
	return m.product(m.Called(ctx, productID, variant))
}

func (m *mockCatalog) UpdateVariant(ctx context.Context, productID, variantID primitive.ObjectID, variant *models.ProductVariant) (*models.Product, error) {
	return m.product(m.Called(ctx, productID, variantID, variant))
}

func (m *mockCatalog) RemoveVariant(ctx context.Context, productID, variantID primitive.ObjectID) (*models.Product, error) {
	return m.product(m.Called(ctx, productID, variantID))
}

func (m *mockCatalog) UploadProductImage(ctx context.Context, productID primitive.ObjectID, filename string, r io.Reader) (*models.Product, error) {
	data, _ := io.ReadAll(r)
	return m.product(m.Called(ctx, productID, filename, data))
}

func (m *mockCatalog) QuoteProduct(ctx context.Context, productID primitive.ObjectID, request *models.ProductQuoteRequest) (*models.ProductQuote, error) {
	args := m.Called(ctx, productID, request)
	q, _ := args.Get(0).(*models.ProductQuote)
	return q, args.Error(1)
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) order(args mock.Arguments) (*models.Order, error) {
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) Quote(ctx context.Context, customerID *primitive.ObjectID, request *models.CheckoutRequest) (*models.CheckoutQuote, error) {
	args := m.Called(ctx, customerID, request)
	q, _ := args.Get(0).(*models.CheckoutQuote)
	return q, args.Error(1)
}

func (m *mockOrders) PlaceOrder(ctx context.Context, customerID primitive.ObjectID, request *models.CheckoutRequest) (*models.Order, error) {
	return m.order(m.Called(ctx, customerID, request))
}

func (m *mockOrders) GetOrder(ctx context.Context, id primitive.ObjectID, customerID *primitive.ObjectID) (*models.Order, error) {
	return m.order(m.Called(ctx, id, customerID))
}

func (m *mockOrders) ListCustomerOrders(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	args := m.Called(ctx, customerID, params)
	orders, _ := args.Get(0).([]*models.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *mockOrders) ListOrders(ctx context.Context, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	args := m.Called(ctx, filter, params)
	orders, _ := args.Get(0).([]*models.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *mockOrders) UpdateStatus(ctx context.Context, id primitive.ObjectID, request *models.UpdateOrderStatusRequest) (*models.Order, error) {
	return m.order(m.Called(ctx, id, request))
}

func (m *mockOrders) CancelOrder(ctx context.Context, id primitive.ObjectID, customerID *primitive.ObjectID, reason string) (*models.Order, error) {
	return m.order(m.Called(ctx, id, customerID, reason))
}

func (m *mockOrders) HandlePaymentWebhook(ctx context.Context, provider string, payload []byte, signature string) error {
	return m.Called(ctx, provider, payload, signature).Error(0)
}
