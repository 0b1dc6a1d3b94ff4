package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakehouse/internal/config"
	"bakehouse/internal/models"
	"bakehouse/internal/pricing"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"
	"bakehouse/internal/validators"
	"bakehouse/pkg/logger"
	"bakehouse/pkg/payment"
	"bakehouse/pkg/sms"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderService interface {
	// Quote prices a cart without side effects. customerID may be nil.
	Quote(ctx context.Context, customerID *primitive.ObjectID, request *models.CheckoutRequest) (*models.CheckoutQuote, error)
	PlaceOrder(ctx context.Context, customerID primitive.ObjectID, request *models.CheckoutRequest) (*models.Order, error)

	GetOrder(ctx context.Context, id primitive.ObjectID, customerID *primitive.ObjectID) (*models.Order, error)
	ListCustomerOrders(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error)
	ListOrders(ctx context.Context, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error)

	UpdateStatus(ctx context.Context, id primitive.ObjectID, request *models.UpdateOrderStatusRequest) (*models.Order, error)
	// CancelOrder cancels as the owning customer, or as an admin when
	// customerID is nil.
	CancelOrder(ctx context.Context, id primitive.ObjectID, customerID *primitive.ObjectID, reason string) (*models.Order, error)

	HandlePaymentWebhook(ctx context.Context, provider string, payload []byte, signature string) error
}

type orderService struct {
	productRepo  interfaces.ProductRepository
	orderRepo    interfaces.OrderRepository
	addressRepo  interfaces.AddressRepository
	customerRepo interfaces.CustomerRepository
	promos       PromoService
	payments     *payment.Registry
	sms          sms.SMSProvider
	events       EventBroadcaster
	store        *config.StoreConfig
	logger       *logger.Logger
	now          func() time.Time
}

func NewOrderService(
	productRepo interfaces.ProductRepository,
	orderRepo interfaces.OrderRepository,
	addressRepo interfaces.AddressRepository,
	customerRepo interfaces.CustomerRepository,
	promos PromoService,
	payments *payment.Registry,
	smsProvider sms.SMSProvider,
	events EventBroadcaster,
	store *config.StoreConfig,
	log *logger.Logger,
) OrderService {
	if events == nil {
		events = nopBroadcaster{}
	}
	return &orderService{
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		addressRepo:  addressRepo,
		customerRepo: customerRepo,
		promos:       promos,
		payments:     payments,
		sms:          smsProvider,
		events:       events,
		store:        store,
		logger:       log.WithField("service", "order"),
		now:          time.Now,
	}
}

// stockLine is the quantity of one variant a cart consumes.
type stockLine struct {
	productID primitive.ObjectID
	variantID primitive.ObjectID
	qty       int
}

// pricedCart is a quote plus what placing it needs.
type pricedCart struct {
	quote *models.CheckoutQuote
	stock []stockLine
	lines []pricing.Line
	items []models.OrderItem
	fee   decimal.Decimal
	// promoErr is set when an explicit code was rejected.
	promoErr error
}

// fillTotals prices the cart lines onto its quote with the given promo.
func (c *pricedCart) fillTotals(terms *pricing.Promo) {
	totals := pricing.ComputeTotals(c.lines, c.fee, terms)
	items := make([]models.OrderItem, len(c.items))
	copy(items, c.items)
	for i := range items {
		items[i].UnitPrice = totals.UnitPrices[i]
		items[i].LineTotal = pricing.RoundMoney(totals.LineTotals[i])
	}

	q := c.quote
	q.Items = items
	q.Subtotal = totals.Subtotal
	q.DeliveryFee = totals.DeliveryFee
	q.DiscountAmount = totals.DiscountAmount
	q.DeliveryFeeDue = totals.DeliveryFeeDue
	q.IsFreeShipping = totals.IsFreeShipping
	q.PromoCode = totals.PromoCode
	q.TotalAmount = totals.Total
}

// withoutPromo re-prices the cart with no promo. Stock was already checked
// when the cart was built, so it is not looked at again.
func (c *pricedCart) withoutPromo() {
	c.quote = &models.CheckoutQuote{Fulfillment: c.quote.Fulfillment, Currency: c.quote.Currency}
	c.fillTotals(nil)
}

func (s *orderService) Quote(ctx context.Context, customerID *primitive.ObjectID, request *models.CheckoutRequest) (*models.CheckoutQuote, error) {
	cart, err := s.price(ctx, customerID, request)
	if err != nil {
		return nil, err
	}
	return cart.quote, nil
}

func (s *orderService) price(ctx context.Context, customerID *primitive.ObjectID, request *models.CheckoutRequest) (*pricedCart, error) {
	if len(request.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if len(request.Items) > utils.MaxCartItems {
		return nil, &ValidationError{Details: map[string]string{"items": fmt.Sprintf("at most %d lines", utils.MaxCartItems)}}
	}

	fulfillment := request.Fulfillment
	if fulfillment == "" {
		fulfillment = models.FulfillmentDelivery
	}

	lines := make([]pricing.Line, 0, len(request.Items))
	items := make([]models.OrderItem, 0, len(request.Items))
	demand := make(map[[2]primitive.ObjectID]int)
	products := make(map[primitive.ObjectID]*models.Product)
	var stock []stockLine

	for _, item := range request.Items {
		product, err := s.activeProduct(ctx, products, item.ProductID)
		if err != nil {
			return nil, err
		}

		variantIDs, err := validators.ParseObjectIDs(item.VariantIDs)
		if err != nil {
			return nil, ErrVariantNotFound
		}
		variants, err := selectVariants(product, variantIDs)
		if err != nil {
			return nil, err
		}

		names := make([]string, 0, len(variantIDs))
		for _, vid := range variantIDs {
			v := product.Variant(vid)
			names = append(names, v.Name)

			key := [2]primitive.ObjectID{product.ID, vid}
			demand[key] += item.Quantity
			if demand[key] > v.StockQuantity {
				return nil, fmt.Errorf("%w: %s %s", ErrInsufficientStock, product.Name, v.Name)
			}
			stock = append(stock, stockLine{productID: product.ID, variantID: vid, qty: item.Quantity})
		}

		name := product.Name
		if len(names) > 0 {
			name += " (" + strings.Join(names, ", ") + ")"
		}

		lines = append(lines, pricing.Line{BasePrice: product.BasePrice, Variants: variants, Quantity: item.Quantity})
		items = append(items, models.OrderItem{
			ProductID:  product.ID,
			VariantIDs: variantIDs,
			Name:       name,
			Quantity:   item.Quantity,
		})
	}

	base := pricing.ComputeTotals(lines, decimal.Zero, nil)
	fee := decimal.Zero
	if fulfillment == models.FulfillmentDelivery {
		fee = s.store.DeliveryFeeFor(base.Subtotal)
	}

	cart := &pricedCart{stock: stock, lines: lines, items: items, fee: fee}
	quote := &models.CheckoutQuote{Fulfillment: fulfillment, Currency: s.store.Currency}
	now := s.now()

	var promo *models.PromoCode
	switch {
	case request.PromoCode != "":
		p, _, err := s.promos.ValidateCode(ctx, request.PromoCode, customerID, base.Subtotal, fee, now)
		if err != nil {
			if !isPromoError(err) {
				return nil, err
			}
			cart.promoErr = err
			quote.PromoError = err.Error()
		}
		promo = p
	case !request.SkipAutoApply:
		p, err := s.promos.BestAutoApply(ctx, base.Subtotal, customerID, now)
		if err != nil {
			return nil, err
		}
		promo = p
		quote.AutoApplied = p != nil
	}

	var terms *pricing.Promo
	if promo != nil {
		t := promo.Terms()
		terms = &t
		quote.SetPromo(promo)
	}

	cart.quote = quote
	cart.fillTotals(terms)
	return cart, nil
}

func (s *orderService) activeProduct(ctx context.Context, cache map[primitive.ObjectID]*models.Product, hexID string) (*models.Product, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	if p, ok := cache[id]; ok {
		return p, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrProductInactive, product.Name)
	}
	cache[id] = product
	return product, nil
}

func isPromoError(err error) bool {
	for _, target := range []error{
		ErrPromoNotFound, ErrPromoInactive, ErrPromoNotStarted, ErrPromoExpired,
		ErrPromoMinOrder, ErrPromoUsageLimit, ErrPromoCustomerLimit,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *orderService) PlaceOrder(ctx context.Context, customerID primitive.ObjectID, request *models.CheckoutRequest) (*models.Order, error) {
	provider, err := s.payments.Get(request.PaymentProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, request.PaymentProvider)
	}

	cart, err := s.price(ctx, &customerID, request)
	if err != nil {
		return nil, err
	}
	if cart.promoErr != nil {
		return nil, cart.promoErr
	}

	order := &models.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: utils.GenerateOrderNumber(s.store.OrderNumberPrefix, s.now()),
		CustomerID:  customerID,
		Fulfillment: cart.quote.Fulfillment,
		Currency:    cart.quote.Currency,
		Status:      models.OrderStatusPending,
		Notes:       validators.SanitizeInput(request.Notes),
		Payment: models.OrderPayment{
			Provider: provider.Name(),
			Status:   models.PaymentStatusPending,
		},
	}

	if order.Fulfillment == models.FulfillmentDelivery {
		address, err := s.deliveryAddress(ctx, customerID, request.AddressID)
		if err != nil {
			return nil, err
		}
		order.Address = address
	}

	if err := s.reserveStock(ctx, cart.stock); err != nil {
		return nil, err
	}

	if promo := cart.quote.Promo(); promo != nil {
		err := s.promos.Redeem(ctx, promo, customerID, order.ID, cart.quote.DiscountAmount)
		if err != nil {
			if !cart.quote.AutoApplied || !isPromoError(err) {
				s.releaseStock(ctx, cart.stock)
				return nil, err
			}
			// the auto-applied promo ran out between quote and order
			cart.withoutPromo()
		}
	}

	applyQuote(order, cart.quote)

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.rollbackPlacement(ctx, order, cart.stock)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	if err := s.startPayment(ctx, provider, order, request.PaymentMethodID); err != nil {
		s.rollbackPlacement(ctx, order, cart.stock)
		if terr := s.orderRepo.Transition(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled, &order.Payment); terr != nil {
			s.logger.WithError(terr).WithOrderID(order.ID).Error("Failed to cancel order after payment error")
		}
		return nil, err
	}

	s.logger.LogOrderEvent(order.ID, "created", map[string]interface{}{
		"order_number": order.OrderNumber,
		"customer_id":  customerID.Hex(),
		"total":        order.TotalAmount.StringFixed(2),
		"promo_code":   order.PromoCode,
	})
	publishOrder(s.events, utils.EventOrderCreated, order)
	return order, nil
}

func applyQuote(order *models.Order, quote *models.CheckoutQuote) {
	order.Items = quote.Items
	order.Subtotal = quote.Subtotal
	order.DeliveryFee = quote.DeliveryFee
	order.DiscountAmount = quote.DiscountAmount
	order.TotalAmount = quote.TotalAmount
	order.PromoCode = quote.PromoCode
	order.PromoID = nil
	if promo := quote.Promo(); promo != nil {
		id := promo.ID
		order.PromoID = &id
	}
}

// startPayment creates the provider payment, or marks a free order paid.
func (s *orderService) startPayment(ctx context.Context, provider payment.PaymentProvider, order *models.Order, methodID string) error {
	if !order.TotalAmount.IsPositive() {
		now := s.now()
		order.Payment.Status = models.PaymentStatusPaid
		order.Payment.PaidAt = &now
		if err := s.orderRepo.Transition(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPaid, &order.Payment); err != nil {
			return err
		}
		order.Status = models.OrderStatusPaid
		return nil
	}

	resp, err := provider.CreatePayment(ctx, &payment.PaymentRequest{
		OrderID:         order.ID.Hex(),
		OrderNumber:     order.OrderNumber,
		PaymentMethodID: methodID,
		Amount:          order.TotalAmount,
		Currency:        order.Currency,
		Description:     "Bakehouse order " + order.OrderNumber,
	})
	if err != nil {
		order.Payment.Status = models.PaymentStatusFailed
		s.logger.WithError(err).WithOrderID(order.ID).Error("Payment creation failed")
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	order.Payment.TransactionID = resp.TransactionID
	if err := s.orderRepo.UpdatePayment(ctx, order.ID, order.Payment); err != nil {
		return err
	}
	order.Payment.ClientSecret = resp.ClientSecret

	s.logger.LogPaymentEvent(order.ID, provider.Name(), "created", order.TotalAmount, order.Currency)
	return nil
}

func (s *orderService) deliveryAddress(ctx context.Context, customerID primitive.ObjectID, addressID string) (*models.Address, error) {
	if addressID != "" {
		id, err := primitive.ObjectIDFromHex(addressID)
		if err != nil {
			return nil, ErrAddressNotFound
		}
		address, err := s.addressRepo.GetByID(ctx, customerID, id)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return address, err
	}

	addresses, err := s.addressRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for _, a := range addresses {
		if a.IsDefault {
			return a, nil
		}
	}
	return nil, ErrAddressRequired
}

func (s *orderService) reserveStock(ctx context.Context, lines []stockLine) error {
	for i, l := range lines {
		if err := s.productRepo.DecrementStock(ctx, l.productID, l.variantID, l.qty); err != nil {
			s.releaseStock(ctx, lines[:i])
			if errors.Is(err, interfaces.ErrInsufficientStock) {
				return ErrInsufficientStock
			}
			return err
		}
	}
	return nil
}

func (s *orderService) releaseStock(ctx context.Context, lines []stockLine) {
	for _, l := range lines {
		if err := s.productRepo.IncrementStock(ctx, l.productID, l.variantID, l.qty); err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"product_id": l.productID.Hex(),
				"variant_id": l.variantID.Hex(),
				"quantity":   l.qty,
			}).Error("Failed to restore stock")
		}
	}
}

func (s *orderService) rollbackPlacement(ctx context.Context, order *models.Order, stock []stockLine) {
	s.releaseStock(ctx, stock)
	if order.PromoID == nil {
		return
	}
	if err := s.promos.Release(ctx, order.ID); err != nil {
		s.logger.WithError(err).WithOrderID(order.ID).Error("Failed to release promo redemption")
	}
}
