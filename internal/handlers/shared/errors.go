package handlers

import (
	"errors"
	"net/http"

	"bakehouse/internal/middleware"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"
	"bakehouse/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrProductNotFound, http.StatusNotFound, utils.CodeNotFound},
	{services.ErrVariantNotFound, http.StatusNotFound, utils.CodeNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound, utils.CodeNotFound},
	{services.ErrCustomerNotFound, http.StatusNotFound, utils.CodeNotFound},
	{services.ErrAddressNotFound, http.StatusNotFound, utils.CodeNotFound},
	{services.ErrReviewNotFound, http.StatusNotFound, utils.CodeNotFound},
	{services.ErrPromoNotFound, http.StatusNotFound, utils.CodePromoInvalid},

	{services.ErrPromoInactive, http.StatusUnprocessableEntity, utils.CodePromoInvalid},
	{services.ErrPromoNotStarted, http.StatusUnprocessableEntity, utils.CodePromoInvalid},
	{services.ErrPromoExpired, http.StatusUnprocessableEntity, utils.CodePromoInvalid},
	{services.ErrPromoMinOrder, http.StatusUnprocessableEntity, utils.CodePromoInvalid},
	{services.ErrPromoUsageLimit, http.StatusUnprocessableEntity, utils.CodePromoInvalid},
	{services.ErrPromoCustomerLimit, http.StatusUnprocessableEntity, utils.CodePromoInvalid},

	{services.ErrInsufficientStock, http.StatusConflict, utils.CodeOutOfStock},
	{services.ErrProductInactive, http.StatusConflict, utils.CodeInvalidState},
	{services.ErrInvalidTransition, http.StatusConflict, utils.CodeInvalidState},
	{services.ErrOrderNotCancelable, http.StatusConflict, utils.CodeInvalidState},
	{services.ErrSlugTaken, http.StatusConflict, utils.CodeConflict},
	{services.ErrPromoCodeTaken, http.StatusConflict, utils.CodeConflict},
	{services.ErrAlreadyReviewed, http.StatusConflict, utils.CodeConflict},

	{services.ErrEmptyCart, http.StatusBadRequest, utils.CodeBadRequest},
	{services.ErrAddressRequired, http.StatusBadRequest, utils.CodeBadRequest},
	{services.ErrUnknownProvider, http.StatusBadRequest, utils.CodeBadRequest},
	{services.ErrInvalidPhone, http.StatusBadRequest, utils.CodeBadRequest},
	{services.ErrInvalidImage, http.StatusBadRequest, utils.CodeBadRequest},
	{services.ErrImageTooLarge, http.StatusRequestEntityTooLarge, utils.CodeBadRequest},

	{services.ErrPaymentFailed, http.StatusPaymentRequired, utils.CodePaymentFailed},
	{services.ErrInvalidOTP, http.StatusUnauthorized, utils.CodeUnauthorized},
	{services.ErrInvalidToken, http.StatusUnauthorized, utils.CodeUnauthorized},
	{payment.ErrInvalidSignature, http.StatusBadRequest, utils.CodeBadRequest},
	{services.ErrForbidden, http.StatusForbidden, utils.CodeForbidden},
	{services.ErrTooManyRequests, http.StatusTooManyRequests, utils.CodeTooManyRequests},
}

// HandleServiceError writes the envelope for err. Unknown errors are logged
// and reported as 500 without their message.
func HandleServiceError(c *gin.Context, log *logger.Logger, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		utils.ValidationErrorResponse(c, verr.Details)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			utils.ErrorResponse(c, m.status, m.code, err.Error())
			return
		}
	}

	log.WithContext(c.Request.Context()).WithError(err).WithFields(map[string]interface{}{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("Request failed")
	utils.InternalServerErrorResponse(c)
}

// BindJSON binds the body into dst and writes a validation response on
// failure.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.ValidationErrorResponse(c, utils.BindingErrorDetails(err))
		return false
	}
	return true
}

// ParseID reads an ObjectID path parameter.
func ParseID(c *gin.Context, param, resource string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+resource+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

// RequireCustomer returns the authenticated customer or writes a 401.
func RequireCustomer(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.CustomerID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
	}
	return id, ok
}

// optionalCustomer returns the authenticated customer or nil.
func optionalCustomer(c *gin.Context) *primitive.ObjectID {
	if id, ok := middleware.CustomerID(c); ok {
		return &id
	}
	return nil
}

// ListMeta builds pagination metadata for list responses.
func ListMeta(params *utils.PaginationParams, total int64) *utils.Meta {
	return &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
	}
}
