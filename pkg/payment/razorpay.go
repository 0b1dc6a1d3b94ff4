package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

type RazorpayProvider struct {
	client        *razorpay.Client
	webhookSecret string
}

func NewRazorpayProvider(keyID, keySecret, webhookSecret string) *RazorpayProvider {
	return &RazorpayProvider{
		client:        razorpay.NewClient(keyID, keySecret),
		webhookSecret: webhookSecret,
	}
}

func (r *RazorpayProvider) Name() string { return "razorpay" }

func (r *RazorpayProvider) SignatureHeader() string { return "X-Razorpay-Signature" }

// CreatePayment creates a Razorpay order; the checkout widget collects the
// payment and the result arrives by webhook.
func (r *RazorpayProvider) CreatePayment(_ context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	notes := map[string]interface{}{
		"order_id":     request.OrderID,
		"order_number": request.OrderNumber,
	}
	for k, v := range request.Metadata {
		notes[k] = v
	}

	order, err := r.client.Order.Create(map[string]interface{}{
		"amount":   ToMinorUnits(request.Amount),
		"currency": strings.ToUpper(request.Currency),
		"receipt":  request.OrderNumber,
		"notes":    notes,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}

	return &PaymentResponse{
		TransactionID: stringField(order, "id"),
		Status:        stringField(order, "status"),
		Amount:        FromMinorUnits(intField(order, "amount")),
		Currency:      stringField(order, "currency"),
		CreatedAt:     intField(order, "created_at"),
	}, nil
}

// RefundPayment refunds the captured payment (ChargeID), not the order.
func (r *RazorpayProvider) RefundPayment(_ context.Context, request *RefundRequest) (*RefundResponse, error) {
	if request.ChargeID == "" {
		return nil, fmt.Errorf("razorpay refund needs the captured payment id")
	}

	amount := int(ToMinorUnits(request.Amount))
	refund, err := r.client.Payment.Refund(request.ChargeID, amount, map[string]interface{}{
		"notes": map[string]interface{}{"reason": request.Reason},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &RefundResponse{
		RefundID:  stringField(refund, "id"),
		Status:    stringField(refund, "status"),
		Amount:    FromMinorUnits(intField(refund, "amount")),
		CreatedAt: intField(refund, "created_at"),
	}, nil
}

type razorpayWebhook struct {
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity struct {
				ID      string          `json:"id"`
				OrderID string          `json:"order_id"`
				Status  string          `json:"status"`
				Notes   json.RawMessage `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (r *RazorpayProvider) ValidateWebhook(_ context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	if signature == "" || !utils.VerifyWebhookSignature(string(payload), signature, r.webhookSecret) {
		return nil, ErrInvalidSignature
	}

	var hook razorpayWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %w", err)
	}

	entity := hook.Payload.Payment.Entity
	out := &WebhookEvent{
		EventID:       entity.ID + ":" + hook.Event,
		EventType:     hook.Event,
		Outcome:       EventIgnored,
		TransactionID: entity.OrderID,
		ChargeID:      entity.ID,
		CreatedAt:     hook.CreatedAt,
	}

	// notes is an empty JSON array when no notes were set.
	var notes map[string]interface{}
	if json.Unmarshal(entity.Notes, &notes) == nil {
		out.OrderID, _ = notes["order_id"].(string)
	}

	switch hook.Event {
	case "payment.captured", "order.paid":
		out.Outcome = EventPaymentSucceeded
	case "payment.failed":
		out.Outcome = EventPaymentFailed
	case "refund.processed":
		out.Outcome = EventRefunded
	}

	return out, nil
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// intField reads a JSON number, which decodes as float64.
func intField(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}
