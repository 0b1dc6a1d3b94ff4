package handlers

import (
	"bakehouse/internal/models"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customers services.CustomerService
	logger    *logger.Logger
}

func NewCustomerHandler(customers services.CustomerService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		logger:    log,
	}
}

func (h *CustomerHandler) GetProfile(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}

	customer, err := h.customers.GetProfile(c.Request.Context(), customerID)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", customer)
}

func (h *CustomerHandler) UpdateProfile(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}

	var request models.UpdateProfileRequest
	if !BindJSON(c, &request) {
		return
	}

	customer, err := h.customers.UpdateProfile(c.Request.Context(), customerID, &request)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile updated successfully", customer)
}

func (h *CustomerHandler) ListAddresses(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}

	addresses, err := h.customers.ListAddresses(c.Request.Context(), customerID)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Addresses retrieved successfully", gin.H{"addresses": addresses})
}

func (h *CustomerHandler) AddAddress(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}

	var address models.Address
	if !BindJSON(c, &address) {
		return
	}

	created, err := h.customers.AddAddress(c.Request.Context(), customerID, &address)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Address added successfully", created)
}

func (h *CustomerHandler) UpdateAddress(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}
	id, ok := ParseID(c, "id", "address")
	if !ok {
		return
	}

	var address models.Address
	if !BindJSON(c, &address) {
		return
	}

	updated, err := h.customers.UpdateAddress(c.Request.Context(), customerID, id, &address)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Address updated successfully", updated)
}

func (h *CustomerHandler) DeleteAddress(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}
	id, ok := ParseID(c, "id", "address")
	if !ok {
		return
	}

	if err := h.customers.DeleteAddress(c.Request.Context(), customerID, id); err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Address deleted successfully", nil)
}
