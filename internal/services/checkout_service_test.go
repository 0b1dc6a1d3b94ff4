package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/pkg/cache"
	"bakehouse/pkg/logger"
	"bakehouse/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type checkoutFixture struct {
	products  *fakeProducts
	promos    *fakePromos
	ledger    *fakeLedger
	orders    *fakeOrders
	addresses *fakeAddresses
	customers *fakeCustomers
	provider  *fakePaymentProvider
	sms       *fakeSMS
	events    *recordingBroadcaster
	svc       OrderService

	customer  *models.Customer
	croissant *models.Product
	almondID  primitive.ObjectID
	cake      *models.Product
}

func newCheckoutFixture(t *testing.T, promos ...*models.PromoCode) *checkoutFixture {
	t.Helper()

	almond := models.ProductVariant{
		ID:            primitive.NewObjectID(),
		Name:          "Almond",
		PriceModifier: decPtr("1.50"),
		StockQuantity: 10,
	}
	croissant := &models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Croissant",
		BasePrice: dec("3.00"),
		IsActive:  true,
		Variants:  []models.ProductVariant{almond},
	}
	cake := &models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Carrot Cake",
		BasePrice: dec("20"),
		IsActive:  true,
	}
	customer := &models.Customer{ID: primitive.NewObjectID(), Phone: "+15551234567", Name: "Ada"}

	f := &checkoutFixture{
		products:  newFakeProducts(croissant, cake),
		promos:    newFakePromos(promos...),
		orders:    newFakeOrders(),
		addresses: &fakeAddresses{},
		customers: newFakeCustomers(customer),
		provider:  &fakePaymentProvider{},
		sms:       &fakeSMS{},
		events:    &recordingBroadcaster{},
		customer:  customer,
		croissant: croissant,
		almondID:  almond.ID,
		cake:      cake,
	}
	f.ledger = newFakeLedger(f.promos)
	require.NoError(t, f.addresses.Create(context.Background(), &models.Address{
		CustomerID: customer.ID, Line1: "1 Baker St", City: "Springfield", PostalCode: "12345", IsDefault: true,
	}))

	log := logger.NewNop()
	promoSvc := NewPromoService(f.promos, f.ledger, cache.NewMemoryCache(), testStore(), log)
	svc := NewOrderService(
		f.products, f.orders, f.addresses, f.customers, promoSvc,
		payment.NewRegistry("fakepay", f.provider), f.sms, f.events, testStore(), log,
	)
	svc.(*orderService).now = func() time.Time { return promoNow }
	f.svc = svc
	return f
}

func (f *checkoutFixture) cart() *models.CheckoutRequest {
	return &models.CheckoutRequest{
		Items: []models.CartItem{
			{ProductID: f.croissant.ID.Hex(), VariantIDs: []string{f.almondID.Hex()}, Quantity: 2},
			{ProductID: f.cake.ID.Hex(), Quantity: 1},
		},
	}
}

func TestQuotePricesCartWithDeliveryFee(t *testing.T) {
	f := newCheckoutFixture(t)

	quote, err := f.svc.Quote(context.Background(), nil, f.cart())
	require.NoError(t, err)

	require.Len(t, quote.Items, 2)
	assert.Equal(t, "Croissant (Almond)", quote.Items[0].Name)
	assert.True(t, dec("4.50").Equal(quote.Items[0].UnitPrice), quote.Items[0].UnitPrice.String())
	assert.True(t, dec("9").Equal(quote.Items[0].LineTotal))
	assert.True(t, dec("29").Equal(quote.Subtotal))
	assert.True(t, dec("5").Equal(quote.DeliveryFee))
	assert.True(t, quote.DiscountAmount.IsZero())
	assert.True(t, dec("34").Equal(quote.TotalAmount))
	assert.Equal(t, models.FulfillmentDelivery, quote.Fulfillment)
	assert.Equal(t, "USD", quote.Currency)
	assert.False(t, quote.AutoApplied)
}

func TestQuotePickupHasNoDeliveryFee(t *testing.T) {
	f := newCheckoutFixture(t)
	cart := f.cart()
	cart.Fulfillment = models.FulfillmentPickup

	quote, err := f.svc.Quote(context.Background(), nil, cart)
	require.NoError(t, err)
	assert.True(t, quote.DeliveryFee.IsZero())
	assert.True(t, dec("29").Equal(quote.TotalAmount))
}

func TestQuoteAutoAppliesBestPromo(t *testing.T) {
	fiver := activePromo("FIVER", models.DiscountTypeFixedAmount, "5")
	fiver.AutoApplyEligible = true
	ship := activePromo("SHIP", models.DiscountTypeFreeShipping, "0")
	ship.AutoApplyEligible = true
	f := newCheckoutFixture(t, fiver, ship)

	quote, err := f.svc.Quote(context.Background(), nil, f.cart())
	require.NoError(t, err)
	assert.True(t, quote.AutoApplied)
	assert.Equal(t, "SHIP", quote.PromoCode)
	assert.True(t, quote.IsFreeShipping)
	assert.True(t, dec("5").Equal(quote.DiscountAmount))
	assert.True(t, quote.DeliveryFeeDue.IsZero())
	assert.True(t, dec("29").Equal(quote.TotalAmount))

	cart := f.cart()
	cart.SkipAutoApply = true
	quote, err = f.svc.Quote(context.Background(), nil, cart)
	require.NoError(t, err)
	assert.False(t, quote.AutoApplied)
	assert.Empty(t, quote.PromoCode)
}

func TestQuoteReportsInvalidExplicitCode(t *testing.T) {
	auto := activePromo("AUTO", models.DiscountTypeFixedAmount, "3")
	auto.AutoApplyEligible = true
	f := newCheckoutFixture(t, auto)
	cart := f.cart()
	cart.PromoCode = "NOPE"

	quote, err := f.svc.Quote(context.Background(), nil, cart)
	require.NoError(t, err)
	assert.Equal(t, ErrPromoNotFound.Error(), quote.PromoError)
	assert.Empty(t, quote.PromoCode)
	assert.True(t, quote.DiscountAmount.IsZero())
	assert.True(t, dec("34").Equal(quote.TotalAmount))
}

func TestQuoteCartErrors(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.svc.Quote(ctx, nil, &models.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.svc.Quote(ctx, nil, &models.CheckoutRequest{Items: []models.CartItem{{ProductID: "bogus", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.svc.Quote(ctx, nil, &models.CheckoutRequest{Items: []models.CartItem{
		{ProductID: f.croissant.ID.Hex(), VariantIDs: []string{primitive.NewObjectID().Hex()}, Quantity: 1},
	}})
	assert.ErrorIs(t, err, ErrVariantNotFound)

	_, err = f.svc.Quote(ctx, nil, &models.CheckoutRequest{Items: []models.CartItem{
		{ProductID: f.croissant.ID.Hex(), VariantIDs: []string{f.almondID.Hex()}, Quantity: 6},
		{ProductID: f.croissant.ID.Hex(), VariantIDs: []string{f.almondID.Hex()}, Quantity: 5},
	}})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	require.NoError(t, f.products.SetActive(ctx, f.cake.ID, false))
	_, err = f.svc.Quote(ctx, nil, &models.CheckoutRequest{Items: []models.CartItem{{ProductID: f.cake.ID.Hex(), Quantity: 1}}})
	assert.ErrorIs(t, err, ErrProductInactive)
}

func TestPlaceOrderReservesStockAndRedeemsPromo(t *testing.T) {
	promo := activePromo("TENOFF", models.DiscountTypePercentage, "10")
	f := newCheckoutFixture(t, promo)
	cart := f.cart()
	cart.PromoCode = "tenoff"

	order, err := f.svc.PlaceOrder(context.Background(), f.customer.ID, cart)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Regexp(t, `^BH-20260314-[A-Z0-9]{6}$`, order.OrderNumber)
	assert.Equal(t, "TENOFF", order.PromoCode)
	require.NotNil(t, order.PromoID)
	assert.True(t, dec("2.90").Equal(order.DiscountAmount), order.DiscountAmount.String())
	assert.True(t, dec("31.10").Equal(order.TotalAmount), order.TotalAmount.String())
	require.NotNil(t, order.Address)
	assert.Equal(t, "1 Baker St", order.Address.Line1)
	assert.Equal(t, "tx_"+order.ID.Hex(), order.Payment.TransactionID)
	assert.Equal(t, "secret_"+order.ID.Hex(), order.Payment.ClientSecret)

	assert.Equal(t, 8, f.products.stock(f.croissant.ID, f.almondID))
	total, byCustomer, err := f.ledger.Usage(context.Background(), promo.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, byCustomer)

	stored := f.orders.get(order.ID)
	require.NotNil(t, stored)
	assert.Equal(t, order.Payment.TransactionID, stored.Payment.TransactionID)
	require.Len(t, f.provider.created, 1)
	assert.True(t, dec("31.10").Equal(f.provider.created[0].Amount))
	assert.Equal(t, []string{"order.created"}, f.events.types())
}

func TestPlaceOrderRejectsInvalidExplicitPromo(t *testing.T) {
	f := newCheckoutFixture(t)
	cart := f.cart()
	cart.PromoCode = "NOPE"

	_, err := f.svc.PlaceOrder(context.Background(), f.customer.ID, cart)
	assert.ErrorIs(t, err, ErrPromoNotFound)
	assert.Equal(t, 10, f.products.stock(f.croissant.ID, f.almondID))
	assert.Empty(t, f.orders.items)
}

func TestPlaceOrderRequiresAddressForDelivery(t *testing.T) {
	f := newCheckoutFixture(t)
	stranger := primitive.NewObjectID()

	_, err := f.svc.PlaceOrder(context.Background(), stranger, f.cart())
	assert.ErrorIs(t, err, ErrAddressRequired)
	assert.Equal(t, 10, f.products.stock(f.croissant.ID, f.almondID))

	cart := f.cart()
	cart.AddressID = primitive.NewObjectID().Hex()
	_, err = f.svc.PlaceOrder(context.Background(), f.customer.ID, cart)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestPlaceOrderUnknownProvider(t *testing.T) {
	f := newCheckoutFixture(t)
	cart := f.cart()
	cart.PaymentProvider = "paypal"

	_, err := f.svc.PlaceOrder(context.Background(), f.customer.ID, cart)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestPlaceOrderPaymentFailureRollsBack(t *testing.T) {
	promo := activePromo("FIVER", models.DiscountTypeFixedAmount, "5")
	f := newCheckoutFixture(t, promo)
	f.provider.createErr = errBoom
	cart := f.cart()
	cart.PromoCode = "FIVER"

	_, err := f.svc.PlaceOrder(context.Background(), f.customer.ID, cart)
	assert.ErrorIs(t, err, ErrPaymentFailed)

	assert.Equal(t, 10, f.products.stock(f.croissant.ID, f.almondID))
	total, _, err := f.ledger.Usage(context.Background(), promo.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Zero(t, total)

	require.Len(t, f.orders.items, 1)
	for _, o := range f.orders.items {
		assert.Equal(t, models.OrderStatusCancelled, o.Status)
	}
	assert.Empty(t, f.events.types())
}

func TestPlaceOrderFreeOrderIsPaidImmediately(t *testing.T) {
	free := activePromo("ALLFREE", models.DiscountTypeFixedAmount, "100")
	f := newCheckoutFixture(t, free)
	cart := f.cart()
	cart.PromoCode = "ALLFREE"
	cart.Fulfillment = models.FulfillmentPickup

	order, err := f.svc.PlaceOrder(context.Background(), f.customer.ID, cart)
	require.NoError(t, err)
	assert.True(t, dec("29").Equal(order.DiscountAmount))
	assert.True(t, order.TotalAmount.IsZero())
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, models.PaymentStatusPaid, order.Payment.Status)
	assert.Nil(t, order.Address)
	assert.Empty(t, f.provider.created)
}

func TestPlaceOrderDropsExhaustedAutoPromo(t *testing.T) {
	auto := activePromo("AUTO", models.DiscountTypeFixedAmount, "5")
	auto.AutoApplyEligible = true
	f := newCheckoutFixture(t, auto)
	f.ledger.redeemErr = interfaces.ErrUsageLimitReached

	order, err := f.svc.PlaceOrder(context.Background(), f.customer.ID, f.cart())
	require.NoError(t, err)
	assert.Empty(t, order.PromoCode)
	assert.Nil(t, order.PromoID)
	assert.True(t, order.DiscountAmount.IsZero())
	assert.True(t, dec("34").Equal(order.TotalAmount))
	assert.Equal(t, 8, f.products.stock(f.croissant.ID, f.almondID))
}

func TestPlaceOrderDropsExhaustedAutoPromoOnLastUnits(t *testing.T) {
	auto := activePromo("AUTO", models.DiscountTypeFixedAmount, "5")
	auto.AutoApplyEligible = true
	f := newCheckoutFixture(t, auto)
	ctx := context.Background()
	require.NoError(t, f.products.DecrementStock(ctx, f.croissant.ID, f.almondID, 8))
	f.ledger.redeemErr = interfaces.ErrUsageLimitReached

	order, err := f.svc.PlaceOrder(ctx, f.customer.ID, f.cart())
	require.NoError(t, err)
	assert.Nil(t, order.PromoID)
	assert.True(t, dec("34").Equal(order.TotalAmount))
	assert.Equal(t, 0, f.products.stock(f.croissant.ID, f.almondID))
	assert.NotNil(t, f.orders.get(order.ID))
}

func (f *checkoutFixture) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.svc.PlaceOrder(context.Background(), f.customer.ID, f.cart())
	require.NoError(t, err)
	return order
}

func TestCancelOrderByCustomer(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()

	other := primitive.NewObjectID()
	_, err := f.svc.CancelOrder(ctx, order.ID, &other, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	cancelled, err := f.svc.CancelOrder(ctx, order.ID, &f.customer.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 10, f.products.stock(f.croissant.ID, f.almondID))
	assert.Equal(t, []string{"order.created", "order.cancelled"}, f.events.types())

	_, err = f.svc.CancelOrder(ctx, order.ID, &f.customer.ID, "")
	assert.ErrorIs(t, err, ErrOrderNotCancelable)
}

func TestCancelPaidOrderRequiresAdminAndRefunds(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "fakepay", webhookBody(t, payment.EventPaymentSucceeded, order), fakeSignature))

	_, err := f.svc.CancelOrder(ctx, order.ID, &f.customer.ID, "")
	assert.ErrorIs(t, err, ErrOrderNotCancelable)

	cancelled, err := f.svc.CancelOrder(ctx, order.ID, nil, "out of flour")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, cancelled.Payment.Status)
	assert.Equal(t, "re_"+order.Payment.TransactionID, cancelled.Payment.RefundID)
	require.Len(t, f.provider.refunds, 1)
	assert.Equal(t, "out of flour", f.provider.refunds[0].Reason)
	assert.True(t, order.TotalAmount.Equal(f.provider.refunds[0].Amount))
}

func TestCancelPaidOrderRefundFailureKeepsOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "fakepay", webhookBody(t, payment.EventPaymentSucceeded, order), fakeSignature))
	f.provider.refundErr = errors.New("gateway down")

	_, err := f.svc.CancelOrder(ctx, order.ID, nil, "out of flour")
	assert.ErrorIs(t, err, ErrPaymentFailed)

	stored := f.orders.get(order.ID)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	assert.Equal(t, models.PaymentStatusPaid, stored.Payment.Status)
	assert.Nil(t, stored.CancelledAt)
	assert.Equal(t, 8, f.products.stock(f.croissant.ID, f.almondID))
}

func TestPaymentAfterCancelIsRefunded(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()

	_, err := f.svc.CancelOrder(ctx, order.ID, &f.customer.ID, "changed my mind")
	require.NoError(t, err)

	body := webhookBody(t, payment.EventPaymentSucceeded, order)
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "fakepay", body, fakeSignature))
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "fakepay", body, fakeSignature))

	stored := f.orders.get(order.ID)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentStatusRefunded, stored.Payment.Status)
	assert.Equal(t, "re_"+order.Payment.TransactionID, stored.Payment.RefundID)
	require.Len(t, f.provider.refunds, 1)
	assert.True(t, order.TotalAmount.Equal(f.provider.refunds[0].Amount))
	assert.Equal(t, 10, f.products.stock(f.croissant.ID, f.almondID))
	assert.NotContains(t, f.events.types(), "order.paid")
}

func TestPaymentAfterCancelRetriesFailedRefund(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()

	_, err := f.svc.CancelOrder(ctx, order.ID, &f.customer.ID, "")
	require.NoError(t, err)

	body := webhookBody(t, payment.EventPaymentSucceeded, order)
	f.provider.refundErr = errors.New("gateway down")
	assert.ErrorIs(t, f.svc.HandlePaymentWebhook(ctx, "fakepay", body, fakeSignature), ErrPaymentFailed)
	assert.Equal(t, models.PaymentStatusPaid, f.orders.get(order.ID).Payment.Status)

	f.provider.refundErr = nil
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "fakepay", body, fakeSignature))
	assert.Equal(t, models.PaymentStatusRefunded, f.orders.get(order.ID).Payment.Status)
	assert.Len(t, f.provider.refunds, 1)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, status := range []models.OrderStatus{models.OrderStatusPreparing, models.OrderStatusReady} {
		updated, err := f.svc.UpdateStatus(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	sent := f.sms.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, f.customer.Phone, sent[0].To)
	assert.Contains(t, sent[0].Message, order.OrderNumber)
	assert.Contains(t, sent[0].Message, "ready")

	updated, err := f.svc.UpdateStatus(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: models.OrderStatusCancelled, Note: "burnt"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, primitive.NewObjectID(), &models.UpdateOrderStatusRequest{Status: models.OrderStatusPaid})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func webhookBody(t *testing.T, outcome string, order *models.Order) []byte {
	t.Helper()
	body, err := json.Marshal(payment.WebhookEvent{
		EventID:       "evt_" + order.ID.Hex(),
		Outcome:       outcome,
		TransactionID: order.Payment.TransactionID,
		ChargeID:      "ch_1",
	})
	require.NoError(t, err)
	return body
}

func TestHandlePaymentWebhook(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()

	err := f.svc.HandlePaymentWebhook(ctx, "fakepay", webhookBody(t, payment.EventPaymentSucceeded, order), "forged")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	err = f.svc.HandlePaymentWebhook(ctx, "paypal", nil, fakeSignature)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	body := webhookBody(t, payment.EventPaymentSucceeded, order)
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "fakepay", body, fakeSignature))
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "fakepay", body, fakeSignature))

	stored := f.orders.get(order.ID)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	assert.Equal(t, models.PaymentStatusPaid, stored.Payment.Status)
	assert.Equal(t, "ch_1", stored.Payment.ChargeID)
	assert.NotNil(t, stored.Payment.PaidAt)
	assert.Equal(t, []string{"order.created", "order.paid"}, f.events.types())

	unknown := &models.Order{ID: primitive.NewObjectID(), Payment: models.OrderPayment{TransactionID: "tx_missing"}}
	assert.NoError(t, f.svc.HandlePaymentWebhook(ctx, "fakepay", webhookBody(t, payment.EventPaymentSucceeded, unknown), fakeSignature))
}

func TestHandlePaymentWebhookFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.placeOrder(t)

	require.NoError(t, f.svc.HandlePaymentWebhook(context.Background(), "fakepay", webhookBody(t, payment.EventPaymentFailed, order), fakeSignature))

	stored := f.orders.get(order.ID)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, models.PaymentStatusFailed, stored.Payment.Status)
}

func TestListCustomerOrdersScopesToCustomer(t *testing.T) {
	f := newCheckoutFixture(t)
	f.placeOrder(t)
	require.NoError(t, f.orders.Create(context.Background(), &models.Order{CustomerID: primitive.NewObjectID()}))

	orders, total, err := f.svc.ListCustomerOrders(context.Background(), f.customer.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, f.customer.ID, orders[0].CustomerID)
}
