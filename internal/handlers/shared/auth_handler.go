package handlers

import (
	"bakehouse/internal/models"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	verification services.VerificationService
	audit        *logger.AuditLogger
	logger       *logger.Logger
}

func NewAuthHandler(verification services.VerificationService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		verification: verification,
		audit:        logger.NewAuditLogger(log),
		logger:       log,
	}
}

// RequestOTP sends a login code to the phone number
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var request models.OTPRequest
	if !BindJSON(c, &request) {
		return
	}

	challenge, err := h.verification.RequestCode(c.Request.Context(), request.Phone)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Verification code sent", challenge)
}

// VerifyOTP exchanges a valid code for a token pair
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var request models.OTPVerifyRequest
	if !BindJSON(c, &request) {
		return
	}

	response, err := h.verification.VerifyCode(c.Request.Context(), &request)
	if err != nil {
		h.audit.LogAuthEvent("otp_verify", nil, c.ClientIP(), c.Request.UserAgent(), false)
		HandleServiceError(c, h.logger, err)
		return
	}

	h.audit.LogAuthEvent("otp_verify", &response.Customer.ID, c.ClientIP(), c.Request.UserAgent(), true)
	utils.SuccessResponse(c, "Phone verified successfully", response)
}

// RefreshToken issues a new token pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var request models.RefreshTokenRequest
	if !BindJSON(c, &request) {
		return
	}

	response, err := h.verification.RefreshToken(c.Request.Context(), request.RefreshToken)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Token refreshed successfully", response)
}
