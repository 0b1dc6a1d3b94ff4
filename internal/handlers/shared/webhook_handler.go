package handlers

import (
	"io"
	"net/http"

	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"
	"bakehouse/pkg/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	orders   services.OrderService
	payments *payment.Registry
	logger   *logger.Logger
}

func NewWebhookHandler(orders services.OrderService, payments *payment.Registry, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		orders:   orders,
		payments: payments,
		logger:   log.WithField("handler", "webhook"),
	}
}

// PaymentWebhook receives signed payment notifications from a provider
func (h *WebhookHandler) PaymentWebhook(c *gin.Context) {
	name := c.Param("provider")
	if name == "" {
		utils.NotFoundResponse(c, "Payment provider")
		return
	}
	provider, err := h.payments.Get(name)
	if err != nil {
		utils.NotFoundResponse(c, "Payment provider")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		utils.BadRequestResponse(c, "Could not read body")
		return
	}
	if len(body) > maxWebhookBody {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, utils.CodeBadRequest, "Payload too large")
		return
	}

	signature := c.GetHeader(provider.SignatureHeader())
	if err := h.orders.HandlePaymentWebhook(c.Request.Context(), name, body, signature); err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Webhook processed", nil)
}
