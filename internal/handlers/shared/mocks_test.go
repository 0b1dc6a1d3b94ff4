package handlers

import (
	"context"
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/pricing"
	"bakehouse/internal/utils"
	"bakehouse/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) Quote(ctx context.Context, customerID *primitive.ObjectID, request *models.CheckoutRequest) (*models.CheckoutQuote, error) {
	args := m.Called(ctx, customerID, request)
	quote, _ := args.Get(0).(*models.CheckoutQuote)
	return quote, args.Error(1)
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, customerID primitive.ObjectID, request *models.CheckoutRequest) (*models.Order, error) {
	args := m.Called(ctx, customerID, request)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id primitive.ObjectID, customerID *primitive.ObjectID) (*models.Order, error) {
	args := m.Called(ctx, id, customerID)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) ListCustomerOrders(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	args := m.Called(ctx, customerID, params)
	orders, _ := args.Get(0).([]*models.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderService) ListOrders(ctx context.Context, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	args := m.Called(ctx, filter, params)
	orders, _ := args.Get(0).([]*models.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id primitive.ObjectID, request *models.UpdateOrderStatusRequest) (*models.Order, error) {
	args := m.Called(ctx, id, request)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, id primitive.ObjectID, customerID *primitive.ObjectID, reason string) (*models.Order, error) {
	args := m.Called(ctx, id, customerID, reason)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) HandlePaymentWebhook(ctx context.Context, provider string, payload []byte, signature string) error {
	return m.Called(ctx, provider, payload, signature).Error(0)
}

type mockPromoService struct {
	mock.Mock
}

func (m *mockPromoService) CreatePromo(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	args := m.Called(ctx, promo)
	p, _ := args.Get(0).(*models.PromoCode)
	return p, args.Error(1)
}

func (m *mockPromoService) UpdatePromo(ctx context.Context, id primitive.ObjectID, promo *models.PromoCode) (*models.PromoCode, error) {
	args := m.Called(ctx, id, promo)
	p, _ := args.Get(0).(*models.PromoCode)
	return p, args.Error(1)
}

func (m *mockPromoService) GetPromo(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.PromoCode)
	return p, args.Error(1)
}

func (m *mockPromoService) ListPromos(ctx context.Context, params *utils.PaginationParams) ([]*models.PromoCode, int64, error) {
	args := m.Called(ctx, params)
	promos, _ := args.Get(0).([]*models.PromoCode)
	return promos, args.Get(1).(int64), args.Error(2)
}

func (m *mockPromoService) DeactivatePromo(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPromoService) ValidateCode(ctx context.Context, code string, customerID *primitive.ObjectID, subtotal, deliveryFee decimal.Decimal, now time.Time) (*models.PromoCode, pricing.PromoResult, error) {
	args := m.Called(ctx, code, customerID, subtotal, deliveryFee, now)
	p, _ := args.Get(0).(*models.PromoCode)
	return p, args.Get(1).(pricing.PromoResult), args.Error(2)
}

func (m *mockPromoService) BestAutoApply(ctx context.Context, orderTotal decimal.Decimal, customerID *primitive.ObjectID, now time.Time) (*models.PromoCode, error) {
	args := m.Called(ctx, orderTotal, customerID, now)
	p, _ := args.Get(0).(*models.PromoCode)
	return p, args.Error(1)
}

func (m *mockPromoService) Redeem(ctx context.Context, promo *models.PromoCode, customerID, orderID primitive.ObjectID, discount decimal.Decimal) error {
	return m.Called(ctx, promo, customerID, orderID, discount).Error(0)
}

func (m *mockPromoService) Release(ctx context.Context, orderID primitive.ObjectID) error {
	return m.Called(ctx, orderID).Error(0)
}

// stubProvider only answers the webhook header lookup.
type stubProvider struct{}

func (stubProvider) Name() string            { return "stub" }
func (stubProvider) SignatureHeader() string { return "X-Stub-Signature" }

func (stubProvider) CreatePayment(context.Context, *payment.PaymentRequest) (*payment.PaymentResponse, error) {
	return &payment.PaymentResponse{}, nil
}

func (stubProvider) RefundPayment(context.Context, *payment.RefundRequest) (*payment.RefundResponse, error) {
	return &payment.RefundResponse{}, nil
}

func (stubProvider) ValidateWebhook(context.Context, []byte, string) (*payment.WebhookEvent, error) {
	return &payment.WebhookEvent{Outcome: payment.EventIgnored}, nil
}
