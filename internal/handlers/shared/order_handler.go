package handlers

import (
	"bakehouse/internal/models"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders services.OrderService
	logger *logger.Logger
}

func NewOrderHandler(orders services.OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: log,
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=300"`
}

// Quote prices a cart without placing it
func (h *OrderHandler) Quote(c *gin.Context) {
	var request models.CheckoutRequest
	if !BindJSON(c, &request) {
		return
	}

	quote, err := h.orders.Quote(c.Request.Context(), optionalCustomer(c), &request)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Cart priced successfully", quote)
}

// PlaceOrder places the cart as an order and starts payment
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}

	var request models.CheckoutRequest
	if !BindJSON(c, &request) {
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), customerID, &request)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Order placed successfully", order)
}

// ListOrders lists the customer's orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, "created_at", "total_amount")
	orders, total, err := h.orders.ListCustomerOrders(c.Request.Context(), customerID, params)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Orders retrieved successfully", gin.H{"orders": orders}, ListMeta(params, total))
}

// GetOrder retrieves one of the customer's orders
func (h *OrderHandler) GetOrder(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}
	id, ok := ParseID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id, &customerID)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Order retrieved successfully", order)
}

// CancelOrder cancels a pending order
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}
	id, ok := ParseID(c, "id", "order")
	if !ok {
		return
	}

	var request cancelOrderRequest
	if c.Request.ContentLength > 0 && !BindJSON(c, &request) {
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), id, &customerID, request.Reason)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Order cancelled successfully", order)
}
