package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"bakehouse/internal/config"
	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"
	"bakehouse/pkg/payment"
	"bakehouse/pkg/sms"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testStore() *config.StoreConfig {
	return &config.StoreConfig{
		Currency:              "USD",
		DeliveryFee:           decimal.NewFromInt(5),
		FreeDeliveryThreshold: decimal.NewFromInt(100),
		FreeShippingEstimate:  decimal.NewFromInt(8),
		BuyXGetYEstimate:      decimal.NewFromInt(10),
		AutoApplyCacheTTL:     time.Minute,
		OrderNumberPrefix:     "BH",
		ThumbnailWidth:        400,
		MaxImageSize:          1 << 20,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// products

type fakeProducts struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Product
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	f := &fakeProducts{items: make(map[primitive.ObjectID]*models.Product)}
	for _, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		f.items[p.ID] = cloneProduct(p)
	}
	return f
}

func cloneProduct(p *models.Product) *models.Product {
	c := *p
	c.Variants = append([]models.ProductVariant(nil), p.Variants...)
	return &c
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Slug == p.Slug {
			return interfaces.ErrDuplicate
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	f.items[p.ID] = cloneProduct(p)
	return nil
}

func (f *fakeProducts) GetByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (f *fakeProducts) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeProducts) List(_ context.Context, filter models.ProductFilter, _ *utils.PaginationParams) ([]*models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Product
	for _, p := range f.items {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out, int64(len(out)), nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[p.ID]; !ok {
		return interfaces.ErrNotFound
	}
	f.items[p.ID] = cloneProduct(p)
	return nil
}

func (f *fakeProducts) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (f *fakeProducts) variant(productID, variantID primitive.ObjectID) (*models.ProductVariant, error) {
	p, ok := f.items[productID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	v := p.Variant(variantID)
	if v == nil {
		return nil, interfaces.ErrNotFound
	}
	return v, nil
}

func (f *fakeProducts) DecrementStock(_ context.Context, productID, variantID primitive.ObjectID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, err := f.variant(productID, variantID)
	if err != nil {
		return err
	}
	if v.StockQuantity < qty {
		return interfaces.ErrInsufficientStock
	}
	v.StockQuantity -= qty
	return nil
}

func (f *fakeProducts) IncrementStock(_ context.Context, productID, variantID primitive.ObjectID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, err := f.variant(productID, variantID)
	if err != nil {
		return err
	}
	v.StockQuantity += qty
	return nil
}

func (f *fakeProducts) UpdateRating(_ context.Context, id primitive.ObjectID, avg float64, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	p.RatingAvg = avg
	p.RatingCount = count
	return nil
}

func (f *fakeProducts) stock(productID, variantID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, err := f.variant(productID, variantID)
	if err != nil {
		return -1
	}
	return v.StockQuantity
}

// promos

type fakePromos struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]*models.PromoCode
	autoCalls int
}

func newFakePromos(promos ...*models.PromoCode) *fakePromos {
	f := &fakePromos{items: make(map[primitive.ObjectID]*models.PromoCode)}
	for _, p := range promos {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		c := *p
		f.items[p.ID] = &c
	}
	return f
}

func (f *fakePromos) Create(_ context.Context, p *models.PromoCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Code == p.Code {
			return interfaces.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	c := *p
	f.items[p.ID] = &c
	return nil
}

func (f *fakePromos) GetByID(_ context.Context, id primitive.ObjectID) (*models.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakePromos) GetByCode(_ context.Context, code string) (*models.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.Code == code {
			c := *p
			return &c, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakePromos) Update(_ context.Context, p *models.PromoCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[p.ID]; !ok {
		return interfaces.ErrNotFound
	}
	c := *p
	f.items[p.ID] = &c
	return nil
}

func (f *fakePromos) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (f *fakePromos) List(_ context.Context, _ *utils.PaginationParams) ([]*models.PromoCode, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PromoCode
	for _, p := range f.items {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, int64(len(out)), nil
}

func (f *fakePromos) ListAutoApply(_ context.Context, _ time.Time) ([]*models.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoCalls++
	var out []*models.PromoCode
	for _, p := range f.items {
		if p.AutoApplyEligible && p.IsActive {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

// ledger

type fakeLedger struct {
	mu          sync.Mutex
	promos      *fakePromos
	redemptions map[primitive.ObjectID]models.PromoRedemption
	redeemErr   error
}

func newFakeLedger(promos *fakePromos) *fakeLedger {
	return &fakeLedger{promos: promos, redemptions: make(map[primitive.ObjectID]models.PromoRedemption)}
}

func (l *fakeLedger) Redeem(_ context.Context, promo *models.PromoCode, r *models.PromoRedemption) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.redeemErr != nil {
		return l.redeemErr
	}
	if _, ok := l.redemptions[r.OrderID]; ok {
		return interfaces.ErrDuplicate
	}
	total, byCustomer := l.count(promo.ID, r.CustomerID)
	if promo.UsageLimit > 0 && total >= promo.UsageLimit {
		return interfaces.ErrUsageLimitReached
	}
	if promo.PerCustomerLimit > 0 && byCustomer >= promo.PerCustomerLimit {
		return interfaces.ErrCustomerLimit
	}
	r.PromoID = promo.ID
	r.Code = promo.Code
	l.redemptions[r.OrderID] = *r
	return nil
}

func (l *fakeLedger) Release(_ context.Context, orderID primitive.ObjectID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.redemptions, orderID)
	return nil
}

func (l *fakeLedger) Usage(_ context.Context, promoID, customerID primitive.ObjectID) (int, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	total, byCustomer := l.count(promoID, customerID)
	return total, byCustomer, nil
}

func (l *fakeLedger) count(promoID, customerID primitive.ObjectID) (int, int) {
	var total, byCustomer int
	for _, r := range l.redemptions {
		if r.PromoID != promoID {
			continue
		}
		total++
		if r.CustomerID == customerID {
			byCustomer++
		}
	}
	return total, byCustomer
}

// orders

type fakeOrders struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]*models.Order
	createErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{items: make(map[primitive.ObjectID]*models.Order)}
}

func (f *fakeOrders) Create(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	c := *o
	f.items[o.ID] = &c
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (f *fakeOrders) GetByTransactionID(_ context.Context, provider, txID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.items {
		if o.Payment.Provider == provider && o.Payment.TransactionID == txID {
			c := *o
			return &c, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeOrders) List(_ context.Context, filter models.OrderFilter, _ *utils.PaginationParams) ([]*models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.items {
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		c := *o
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) Transition(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus, pay *models.OrderPayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if o.Status != from {
		return interfaces.ErrConflict
	}
	o.Status = to
	if pay != nil {
		o.Payment = *pay
	}
	if to == models.OrderStatusCancelled {
		now := time.Now()
		o.CancelledAt = &now
	}
	if from == models.OrderStatusCancelled {
		o.CancelledAt = nil
	}
	return nil
}

func (f *fakeOrders) UpdatePayment(_ context.Context, id primitive.ObjectID, pay models.OrderPayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	o.Payment = pay
	return nil
}

func (f *fakeOrders) get(id primitive.ObjectID) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return nil
	}
	c := *o
	return &c
}

// customers and addresses

type fakeCustomers struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Customer
}

func newFakeCustomers(customers ...*models.Customer) *fakeCustomers {
	f := &fakeCustomers{items: make(map[primitive.ObjectID]*models.Customer)}
	for _, c := range customers {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		cp := *c
		f.items[c.ID] = &cp
	}
	return f
}

func (f *fakeCustomers) Create(_ context.Context, c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Phone == c.Phone {
			return interfaces.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCustomers) GetByID(_ context.Context, id primitive.ObjectID) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomers) GetByPhone(_ context.Context, phone string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeCustomers) Update(_ context.Context, c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[c.ID]; !ok {
		return interfaces.ErrNotFound
	}
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCustomers) RecordLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	c.LastLoginAt = &at
	return nil
}

type fakeAddresses struct {
	mu    sync.Mutex
	items []*models.Address
}

func (f *fakeAddresses) Create(_ context.Context, a *models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = primitive.NewObjectID()
	cp := *a
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeAddresses) find(customerID, id primitive.ObjectID) (int, *models.Address) {
	for i, a := range f.items {
		if a.ID == id && a.CustomerID == customerID {
			return i, a
		}
	}
	return -1, nil
}

func (f *fakeAddresses) GetByID(_ context.Context, customerID, id primitive.ObjectID) (*models.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, a := f.find(customerID, id)
	if a == nil {
		return nil, interfaces.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAddresses) ListByCustomer(_ context.Context, customerID primitive.ObjectID) ([]*models.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Address
	for _, a := range f.items {
		if a.CustomerID == customerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsDefault && !out[j].IsDefault })
	return out, nil
}

func (f *fakeAddresses) Update(_ context.Context, a *models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := f.find(a.CustomerID, a.ID)
	if i < 0 {
		return interfaces.ErrNotFound
	}
	cp := *a
	f.items[i] = &cp
	return nil
}

func (f *fakeAddresses) Delete(_ context.Context, customerID, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := f.find(customerID, id)
	if i < 0 {
		return interfaces.ErrNotFound
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	return nil
}

func (f *fakeAddresses) ClearDefault(_ context.Context, customerID, keepID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.items {
		if a.CustomerID == customerID && a.ID != keepID {
			a.IsDefault = false
		}
	}
	return nil
}

// reviews

type fakeReviews struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{items: make(map[primitive.ObjectID]*models.Review)}
}

func (f *fakeReviews) Create(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.ProductID == r.ProductID && existing.CustomerID == r.CustomerID {
			return interfaces.ErrDuplicate
		}
	}
	r.ID = primitive.NewObjectID()
	cp := *r
	f.items[r.ID] = &cp
	return nil
}

func (f *fakeReviews) GetByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviews) ListByProduct(_ context.Context, productID primitive.ObjectID, approvedOnly bool, _ *utils.PaginationParams) ([]*models.Review, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Review
	for _, r := range f.items {
		if r.ProductID == productID && (!approvedOnly || r.IsApproved) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeReviews) ListPending(_ context.Context, _ *utils.PaginationParams) ([]*models.Review, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Review
	for _, r := range f.items {
		if !r.IsApproved {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeReviews) Approve(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	r.IsApproved = true
	return nil
}

func (f *fakeReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeReviews) RatingSummary(_ context.Context, productID primitive.ObjectID) (float64, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum, count int
	for _, r := range f.items {
		if r.ProductID == productID && r.IsApproved {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// payment, sms and events

const fakeSignature = "valid-signature"

type fakePaymentProvider struct {
	mu        sync.Mutex
	createErr error
	refundErr error
	created   []*payment.PaymentRequest
	refunds   []*payment.RefundRequest
}

func (p *fakePaymentProvider) Name() string { return "fakepay" }

func (p *fakePaymentProvider) SignatureHeader() string { return "X-Fake-Signature" }

func (p *fakePaymentProvider) CreatePayment(_ context.Context, r *payment.PaymentRequest) (*payment.PaymentResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.created = append(p.created, r)
	return &payment.PaymentResponse{
		TransactionID: "tx_" + r.OrderID,
		ClientSecret:  "secret_" + r.OrderID,
		Status:        "requires_payment_method",
		Amount:        r.Amount,
		Currency:      r.Currency,
	}, nil
}

func (p *fakePaymentProvider) RefundPayment(_ context.Context, r *payment.RefundRequest) (*payment.RefundResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	p.refunds = append(p.refunds, r)
	return &payment.RefundResponse{RefundID: "re_" + r.TransactionID, Status: "succeeded", Amount: r.Amount}, nil
}

func (p *fakePaymentProvider) ValidateWebhook(_ context.Context, body []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != fakeSignature {
		return nil, payment.ErrInvalidSignature
	}
	var event payment.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []*sms.SMSRequest
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, r *sms.SMSRequest) (*sms.SMSResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, r)
	return &sms.SMSResponse{MessageID: "SM1", Status: "queued"}, nil
}

func (f *fakeSMS) messages() []*sms.SMSRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*sms.SMSRequest(nil), f.sent...)
}

type broadcast struct {
	room    string
	msgType string
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
}

func (r *recordingBroadcaster) Broadcast(room, msgType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, broadcast{room: room, msgType: msgType})
}

func (r *recordingBroadcaster) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.room == "admins" {
			out = append(out, e.msgType)
		}
	}
	return out
}

var errBoom = errors.New("boom")
