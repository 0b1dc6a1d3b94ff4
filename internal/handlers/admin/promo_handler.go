package admin

import (
	handlers "bakehouse/internal/handlers/shared"
	"bakehouse/internal/models"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
)

type PromoHandler struct {
	promos services.PromoService
	logger *logger.Logger
}

func NewPromoHandler(promos services.PromoService, log *logger.Logger) *PromoHandler {
	return &PromoHandler{
		promos: promos,
		logger: log.WithField("handler", "admin_promos"),
	}
}

func (h *PromoHandler) ListPromos(c *gin.Context) {
	params := utils.GetPaginationParams(c, "code", "created_at", "valid_until", "used_count")

	promos, total, err := h.promos.ListPromos(c.Request.Context(), params)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Promo codes retrieved successfully", gin.H{"promos": promos}, handlers.ListMeta(params, total))
}

func (h *PromoHandler) GetPromo(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "promo")
	if !ok {
		return
	}

	promo, err := h.promos.GetPromo(c.Request.Context(), id)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Promo code retrieved successfully", promo)
}

func (h *PromoHandler) CreatePromo(c *gin.Context) {
	var promo models.PromoCode
	if !handlers.BindJSON(c, &promo) {
		return
	}

	created, err := h.promos.CreatePromo(c.Request.Context(), &promo)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Promo code created successfully", created)
}

func (h *PromoHandler) UpdatePromo(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "promo")
	if !ok {
		return
	}

	var promo models.PromoCode
	if !handlers.BindJSON(c, &promo) {
		return
	}

	updated, err := h.promos.UpdatePromo(c.Request.Context(), id, &promo)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Promo code updated successfully", updated)
}

func (h *PromoHandler) DeactivatePromo(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "promo")
	if !ok {
		return
	}

	if err := h.promos.DeactivatePromo(c.Request.Context(), id); err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Promo code deactivated", nil)
}
