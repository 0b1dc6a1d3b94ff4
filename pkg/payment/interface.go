package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// Normalized webhook outcomes.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventRefunded         = "payment.refunded"
	EventIgnored          = "ignored"
)

type PaymentProvider interface {
	Name() string
	CreatePayment(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error)
	RefundPayment(ctx context.Context, request *RefundRequest) (*RefundResponse, error)
	// SignatureHeader is the HTTP header carrying the webhook signature.
	SignatureHeader() string
	ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type PaymentRequest struct {
	OrderID         string            `json:"order_id"`
	OrderNumber     string            `json:"order_number"`
	PaymentMethodID string            `json:"payment_method_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Description     string            `json:"description"`
	Metadata        map[string]string `json:"metadata"`
}

type PaymentResponse struct {
	TransactionID string          `json:"transaction_id"`
	ClientSecret  string          `json:"client_secret,omitempty"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CreatedAt     int64           `json:"created_at"`
}

type RefundRequest struct {
	TransactionID string          `json:"transaction_id"`
	ChargeID      string          `json:"charge_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

type RefundResponse struct {
	RefundID  string          `json:"refund_id"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt int64           `json:"created_at"`
}

// WebhookEvent is a provider callback reduced to what order handling needs.
type WebhookEvent struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	Outcome       string `json:"outcome"`
	TransactionID string `json:"transaction_id"`
	ChargeID      string `json:"charge_id"`
	OrderID       string `json:"order_id"`
	CreatedAt     int64  `json:"created_at"`
}

// ToMinorUnits converts an amount to cents (or paise), rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -2)
}

// Registry looks providers up by name.
type Registry struct {
	providers       map[string]PaymentProvider
	defaultProvider string
}

func NewRegistry(defaultProvider string, providers ...PaymentProvider) *Registry {
	r := &Registry{providers: make(map[string]PaymentProvider), defaultProvider: defaultProvider}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the named provider, or the default one when name is empty.
func (r *Registry) Get(name string) (PaymentProvider, error) {
	if name == "" {
		name = r.defaultProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("payment provider %q is not configured", name)
	}
	return p, nil
}
