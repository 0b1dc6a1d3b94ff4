package handlers

import (
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PromoHandler struct {
	promos services.PromoService
	logger *logger.Logger
	now    func() time.Time
}

func NewPromoHandler(promos services.PromoService, log *logger.Logger) *PromoHandler {
	return &PromoHandler{
		promos: promos,
		logger: log,
		now:    time.Now,
	}
}

// Validate checks a code against a subtotal and reports the discount
func (h *PromoHandler) Validate(c *gin.Context) {
	var request models.PromoValidationRequest
	if !BindJSON(c, &request) {
		return
	}
	if request.Subtotal.IsNegative() || request.DeliveryFee.IsNegative() {
		utils.BadRequestResponse(c, "Amounts cannot be negative")
		return
	}

	promo, result, err := h.promos.ValidateCode(c.Request.Context(), request.Code, optionalCustomer(c), request.Subtotal, request.DeliveryFee, h.now())
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Promo code is valid", &models.PromoValidationResponse{
		Code:                promo.Code,
		DiscountType:        promo.DiscountType,
		DiscountAmount:      result.DiscountAmount,
		AdjustedDeliveryFee: result.AdjustedDeliveryFee,
		IsFreeShipping:      result.IsFreeShipping,
	})
}

// AutoApply returns the best automatic promo for ?subtotal=, or null
func (h *PromoHandler) AutoApply(c *gin.Context) {
	subtotal, err := decimal.NewFromString(c.DefaultQuery("subtotal", "0"))
	if err != nil || subtotal.IsNegative() {
		utils.BadRequestResponse(c, "Invalid subtotal")
		return
	}

	promo, err := h.promos.BestAutoApply(c.Request.Context(), subtotal, optionalCustomer(c), h.now())
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Auto-apply promo retrieved", gin.H{"promo": promo})
}
