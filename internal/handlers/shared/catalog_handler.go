package handlers

import (
	"strings"

	"bakehouse/internal/models"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
)

var productSortFields = []string{"name", "base_price", "created_at", "rating_avg"}

type CatalogHandler struct {
	catalog   services.CatalogService
	customers services.CustomerService
	logger    *logger.Logger
}

func NewCatalogHandler(catalog services.CatalogService, customers services.CustomerService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		customers: customers,
		logger:    log,
	}
}

// ListProducts lists active products for the storefront
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c, productSortFields...)
	filter := models.ProductFilter{
		Category:   strings.ToLower(strings.TrimSpace(c.Query("category"))),
		ActiveOnly: true,
	}

	products, total, err := h.catalog.ListProducts(c.Request.Context(), filter, params)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Products retrieved successfully", gin.H{"products": products}, ListMeta(params, total))
}

// GetProduct retrieves one active product
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := ParseID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id, false)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Product retrieved successfully", product)
}

// QuoteProduct prices a product with the selected variants
func (h *CatalogHandler) QuoteProduct(c *gin.Context) {
	id, ok := ParseID(c, "id", "product")
	if !ok {
		return
	}

	var request models.ProductQuoteRequest
	if !BindJSON(c, &request) {
		return
	}

	quote, err := h.catalog.QuoteProduct(c.Request.Context(), id, &request)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Price calculated successfully", quote)
}

// ListReviews lists approved reviews of a product
func (h *CatalogHandler) ListReviews(c *gin.Context) {
	id, ok := ParseID(c, "id", "product")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, "created_at", "rating")
	reviews, total, err := h.customers.ListProductReviews(c.Request.Context(), id, params)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Reviews retrieved successfully", gin.H{"reviews": reviews}, ListMeta(params, total))
}

// CreateReview submits a review for moderation
func (h *CatalogHandler) CreateReview(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}
	productID, ok := ParseID(c, "id", "product")
	if !ok {
		return
	}

	var review models.Review
	if !BindJSON(c, &review) {
		return
	}

	created, err := h.customers.CreateReview(c.Request.Context(), customerID, productID, &review)
	if err != nil {
		HandleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Review submitted for approval", created)
}
