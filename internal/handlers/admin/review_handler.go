package admin

import (
	handlers "bakehouse/internal/handlers/shared"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	customers services.CustomerService
	logger    *logger.Logger
}

func NewReviewHandler(customers services.CustomerService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		customers: customers,
		logger:    log.WithField("handler", "admin_reviews"),
	}
}

func (h *ReviewHandler) ListPending(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at", "rating")

	reviews, total, err := h.customers.ListPendingReviews(c.Request.Context(), params)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Pending reviews retrieved", gin.H{"reviews": reviews}, handlers.ListMeta(params, total))
}

func (h *ReviewHandler) Approve(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "review")
	if !ok {
		return
	}

	if err := h.customers.ApproveReview(c.Request.Context(), id); err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Review approved", nil)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "review")
	if !ok {
		return
	}

	if err := h.customers.DeleteReview(c.Request.Context(), id); err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Review deleted", nil)
}
