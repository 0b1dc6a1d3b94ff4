package services

import (
	"context"
	"errors"
	"fmt"

	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"
	"bakehouse/pkg/payment"
	"bakehouse/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *orderService) GetOrder(ctx context.Context, id primitive.ObjectID, customerID *primitive.ObjectID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if customerID != nil && order.CustomerID != *customerID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListCustomerOrders(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	return s.orderRepo.List(ctx, models.OrderFilter{CustomerID: &customerID}, params)
}

func (s *orderService) ListOrders(ctx context.Context, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	return s.orderRepo.List(ctx, filter, params)
}

var statusMessages = map[models.OrderStatus]string{
	models.OrderStatusReady:          "Your Bakehouse order %s is ready.",
	models.OrderStatusOutForDelivery: "Your Bakehouse order %s is out for delivery.",
}

func (s *orderService) UpdateStatus(ctx context.Context, id primitive.ObjectID, request *models.UpdateOrderStatusRequest) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id, nil)
	if err != nil {
		return nil, err
	}

	if request.Status == models.OrderStatusCancelled {
		return s.CancelOrder(ctx, id, nil, request.Note)
	}
	if !order.Status.CanTransitionTo(request.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, request.Status)
	}

	if err := s.orderRepo.Transition(ctx, id, order.Status, request.Status, nil); err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	previous := order.Status
	order.Status = request.Status
	order.UpdatedAt = s.now()

	s.logger.LogOrderEvent(order.ID, "status_changed", map[string]interface{}{
		"from": previous,
		"to":   order.Status,
		"note": request.Note,
	})
	publishOrder(s.events, utils.EventOrderStatusChanged, order)

	if msg, ok := statusMessages[order.Status]; ok {
		s.notifyCustomer(ctx, order, fmt.Sprintf(msg, order.OrderNumber))
	}
	return order, nil
}

// notifyCustomer texts the order's customer. Failures are logged only.
func (s *orderService) notifyCustomer(ctx context.Context, order *models.Order, message string) {
	if s.sms == nil {
		return
	}
	customer, err := s.customerRepo.GetByID(ctx, order.CustomerID)
	if err != nil {
		s.logger.WithError(err).WithOrderID(order.ID).Warn("Could not load customer for order SMS")
		return
	}

	if _, err := s.sms.SendSMS(ctx, &sms.SMSRequest{
		To:      customer.Phone,
		Message: message,
		Type:    sms.TypeTransactional,
	}); err != nil {
		s.logger.WithError(err).WithOrderID(order.ID).Warn("Order SMS failed")
	}
}

func (s *orderService) CancelOrder(ctx context.Context, id primitive.ObjectID, customerID *primitive.ObjectID, reason string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id, customerID)
	if err != nil {
		return nil, err
	}

	if customerID != nil && order.Status != models.OrderStatusPending {
		return nil, ErrOrderNotCancelable
	}
	if !order.Status.CanTransitionTo(models.OrderStatusCancelled) {
		return nil, ErrOrderNotCancelable
	}

	// Claim the cancellation before refunding so a concurrent status change
	// cannot leave a refunded order that is still live.
	from := order.Status
	if err := s.orderRepo.Transition(ctx, id, from, models.OrderStatusCancelled, nil); err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return nil, ErrOrderNotCancelable
		}
		return nil, err
	}

	pay := order.Payment
	if pay.Status == models.PaymentStatusPaid {
		if err := s.refund(ctx, order, &pay, reason); err != nil {
			if rerr := s.orderRepo.Transition(ctx, id, models.OrderStatusCancelled, from, nil); rerr != nil {
				s.logger.WithError(rerr).WithOrderID(id).Error("Failed to restore order after refund failure")
			}
			return nil, err
		}
		if err := s.orderRepo.UpdatePayment(ctx, id, pay); err != nil {
			s.logger.WithError(err).WithOrderID(id).Error("Failed to record refund")
		}
	}

	now := s.now()
	order.Status = models.OrderStatusCancelled
	order.Payment = pay
	order.CancelledAt = &now

	if order.PromoID != nil {
		if err := s.promos.Release(ctx, order.ID); err != nil {
			s.logger.WithError(err).WithOrderID(order.ID).Error("Failed to release promo redemption")
		}
	}
	s.releaseStock(ctx, orderStock(order))

	s.logger.LogOrderEvent(order.ID, "cancelled", map[string]interface{}{
		"reason":       reason,
		"by_admin":     customerID == nil,
		"refund_id":    pay.RefundID,
		"order_number": order.OrderNumber,
	})
	publishOrder(s.events, utils.EventOrderCancelled, order)
	return order, nil
}

func (s *orderService) refund(ctx context.Context, order *models.Order, pay *models.OrderPayment, reason string) error {
	provider, err := s.payments.Get(pay.Provider)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, pay.Provider)
	}

	resp, err := provider.RefundPayment(ctx, &payment.RefundRequest{
		TransactionID: pay.TransactionID,
		ChargeID:      pay.ChargeID,
		Amount:        order.TotalAmount,
		Reason:        reason,
	})
	if err != nil {
		return fmt.Errorf("%w: refund failed: %v", ErrPaymentFailed, err)
	}

	pay.Status = models.PaymentStatusRefunded
	pay.RefundID = resp.RefundID
	s.logger.LogPaymentEvent(order.ID, provider.Name(), "refunded", order.TotalAmount, order.Currency)
	return nil
}

// refundLatePayment returns money captured after the order was cancelled.
// A failed refund is recorded as paid so the next delivery of the event
// retries it.
func (s *orderService) refundLatePayment(ctx context.Context, order *models.Order, pay models.OrderPayment) error {
	if err := s.refund(ctx, order, &pay, "order cancelled before payment completed"); err != nil {
		if uerr := s.orderRepo.UpdatePayment(ctx, order.ID, pay); uerr != nil {
			s.logger.WithError(uerr).WithOrderID(order.ID).Error("Failed to record late payment")
		}
		return err
	}
	if err := s.orderRepo.UpdatePayment(ctx, order.ID, pay); err != nil {
		return err
	}
	order.Payment = pay
	return nil
}

func orderStock(order *models.Order) []stockLine {
	var lines []stockLine
	for _, item := range order.Items {
		for _, vid := range item.VariantIDs {
			lines = append(lines, stockLine{productID: item.ProductID, variantID: vid, qty: item.Quantity})
		}
	}
	return lines
}

func (s *orderService) HandlePaymentWebhook(ctx context.Context, providerName string, body []byte, signature string) error {
	provider, err := s.payments.Get(providerName)
	if err != nil || providerName == "" {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, providerName)
	}

	event, err := provider.ValidateWebhook(ctx, body, signature)
	if err != nil {
		s.logger.LogSecurityEvent("webhook_rejected", "medium", map[string]interface{}{
			"provider": providerName,
			"error":    err.Error(),
		})
		return err
	}
	if event.Outcome == payment.EventIgnored {
		return nil
	}

	order, err := s.orderForEvent(ctx, provider.Name(), event)
	if errors.Is(err, ErrOrderNotFound) {
		s.logger.WithFields(map[string]interface{}{
			"provider":       providerName,
			"event_id":       event.EventID,
			"transaction_id": event.TransactionID,
		}).Warn("Webhook for unknown order")
		return nil
	}
	if err != nil {
		return err
	}

	pay := order.Payment
	switch event.Outcome {
	case payment.EventPaymentSucceeded:
		if pay.Status == models.PaymentStatusRefunded {
			return nil
		}
		if pay.Status == models.PaymentStatusPaid && order.Status != models.OrderStatusCancelled {
			return nil
		}
		if pay.Status != models.PaymentStatusPaid {
			now := s.now()
			pay.Status = models.PaymentStatusPaid
			pay.PaidAt = &now
			if event.ChargeID != "" {
				pay.ChargeID = event.ChargeID
			}
		}

		if order.Status == models.OrderStatusCancelled {
			return s.refundLatePayment(ctx, order, pay)
		}
		if order.Status == models.OrderStatusPending {
			err = s.orderRepo.Transition(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPaid, &pay)
			if err == nil {
				order.Status = models.OrderStatusPaid
			}
		} else {
			err = s.orderRepo.UpdatePayment(ctx, order.ID, pay)
		}
		if err != nil {
			return err
		}
		order.Payment = pay
		s.logger.LogPaymentEvent(order.ID, provider.Name(), "succeeded", order.TotalAmount, order.Currency)
		publishOrder(s.events, utils.EventOrderPaid, order)

	case payment.EventPaymentFailed:
		if pay.Status != models.PaymentStatusPending {
			return nil
		}
		pay.Status = models.PaymentStatusFailed
		if err := s.orderRepo.UpdatePayment(ctx, order.ID, pay); err != nil {
			return err
		}
		s.logger.LogPaymentEvent(order.ID, provider.Name(), "failed", order.TotalAmount, order.Currency)

	case payment.EventRefunded:
		if pay.Status == models.PaymentStatusRefunded {
			return nil
		}
		pay.Status = models.PaymentStatusRefunded
		if err := s.orderRepo.UpdatePayment(ctx, order.ID, pay); err != nil {
			return err
		}
		s.logger.LogPaymentEvent(order.ID, provider.Name(), "refunded", order.TotalAmount, order.Currency)
	}

	return nil
}

func (s *orderService) orderForEvent(ctx context.Context, provider string, event *payment.WebhookEvent) (*models.Order, error) {
	if event.TransactionID != "" {
		order, err := s.orderRepo.GetByTransactionID(ctx, provider, event.TransactionID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
	}

	id, err := primitive.ObjectIDFromHex(event.OrderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	return s.GetOrder(ctx, id, nil)
}
