package admin

import (
	handlers "bakehouse/internal/handlers/shared"
	"bakehouse/internal/models"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderHandler struct {
	orders services.OrderService
	logger *logger.Logger
}

func NewOrderHandler(orders services.OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: log.WithField("handler", "admin_orders"),
	}
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required,max=300"`
}

// ListOrders lists orders, optionally filtered by ?status= and ?customer_id=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at", "total_amount", "status")

	var filter models.OrderFilter
	if status := c.Query("status"); status != "" {
		if !models.OrderStatus(status).IsValid() {
			utils.BadRequestResponse(c, "Unknown order status")
			return
		}
		filter.Status = models.OrderStatus(status)
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid customer ID")
			return
		}
		filter.CustomerID = &id
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), filter, params)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Orders retrieved successfully", gin.H{"orders": orders}, handlers.ListMeta(params, total))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id, nil)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Order retrieved successfully", order)
}

// UpdateStatus moves an order along its lifecycle
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "order")
	if !ok {
		return
	}

	var request models.UpdateOrderStatusRequest
	if !handlers.BindJSON(c, &request) {
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, &request)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Order status updated", order)
}

// CancelOrder cancels any order that has not been delivered and refunds it
// when it was paid
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "order")
	if !ok {
		return
	}

	var request cancelRequest
	if !handlers.BindJSON(c, &request) {
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), id, nil, request.Reason)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Order cancelled", order)
}
