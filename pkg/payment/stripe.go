package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeProvider struct {
	client        *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeProvider{
		client:        sc,
		webhookSecret: webhookSecret,
	}
}

func (s *StripeProvider) Name() string { return "stripe" }

func (s *StripeProvider) SignatureHeader() string { return "Stripe-Signature" }

// CreatePayment opens a PaymentIntent. The client secret is returned for the
// storefront to confirm the card.
func (s *StripeProvider) CreatePayment(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(ToMinorUnits(request.Amount)),
		Currency:    stripe.String(strings.ToLower(request.Currency)),
		Description: stripe.String(request.Description),
	}
	params.Context = ctx

	if request.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(request.PaymentMethodID)
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}

	params.AddMetadata("order_id", request.OrderID)
	params.AddMetadata("order_number", request.OrderNumber)
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentResponse{
		TransactionID: pi.ID,
		ClientSecret:  pi.ClientSecret,
		Status:        string(pi.Status),
		Amount:        FromMinorUnits(pi.Amount),
		Currency:      strings.ToUpper(string(pi.Currency)),
		CreatedAt:     pi.Created,
	}, nil
}

func (s *StripeProvider) RefundPayment(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(request.TransactionID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.AddMetadata("reason", request.Reason)

	if request.Amount.IsPositive() {
		params.Amount = stripe.Int64(ToMinorUnits(request.Amount))
	}

	refund, err := s.client.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &RefundResponse{
		RefundID:  refund.ID,
		Status:    string(refund.Status),
		Amount:    FromMinorUnits(refund.Amount),
		CreatedAt: refund.Created,
	}, nil
}

func (s *StripeProvider) ValidateWebhook(_ context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Outcome:   EventIgnored,
		CreatedAt: event.Created,
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payment intent: %w", err)
		}
		out.TransactionID = pi.ID
		out.OrderID = pi.Metadata["order_id"]
		if pi.LatestCharge != nil {
			out.ChargeID = pi.LatestCharge.ID
		}
		out.Outcome = EventPaymentSucceeded
		if event.Type == "payment_intent.payment_failed" {
			out.Outcome = EventPaymentFailed
		}
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal charge: %w", err)
		}
		out.ChargeID = ch.ID
		out.OrderID = ch.Metadata["order_id"]
		if ch.PaymentIntent != nil {
			out.TransactionID = ch.PaymentIntent.ID
		}
		out.Outcome = EventRefunded
	}

	return out, nil
}
