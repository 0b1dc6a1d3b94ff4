package admin

import (
	"net/http"

	handlers "bakehouse/internal/handlers/shared"
	"bakehouse/internal/models"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	catalog services.CatalogService
	logger  *logger.Logger
}

func NewProductHandler(catalog services.CatalogService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  log.WithField("handler", "admin_products"),
	}
}

// ListProducts lists the catalog including inactive products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c, "name", "base_price", "created_at", "rating_avg")
	filter := models.ProductFilter{
		Category:   c.Query("category"),
		ActiveOnly: c.Query("active") == "true",
	}

	products, total, err := h.catalog.ListProducts(c.Request.Context(), filter, params)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Products retrieved successfully", gin.H{"products": products}, handlers.ListMeta(params, total))
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id, true)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Product retrieved successfully", product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if !handlers.BindJSON(c, &product) {
		return
	}

	created, err := h.catalog.CreateProduct(c.Request.Context(), &product)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Product created successfully", created)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "product")
	if !ok {
		return
	}

	var product models.Product
	if !handlers.BindJSON(c, &product) {
		return
	}

	updated, err := h.catalog.UpdateProduct(c.Request.Context(), id, &product)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Product updated successfully", updated)
}

// DeleteProduct hides a product from the storefront
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Product deleted successfully", nil)
}

func (h *ProductHandler) AddVariant(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "product")
	if !ok {
		return
	}

	var variant models.ProductVariant
	if !handlers.BindJSON(c, &variant) {
		return
	}

	product, err := h.catalog.AddVariant(c.Request.Context(), id, &variant)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Variant added successfully", product)
}

func (h *ProductHandler) UpdateVariant(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "product")
	if !ok {
		return
	}
	variantID, ok := handlers.ParseID(c, "variantId", "variant")
	if !ok {
		return
	}

	var variant models.ProductVariant
	if !handlers.BindJSON(c, &variant) {
		return
	}

	product, err := h.catalog.UpdateVariant(c.Request.Context(), id, variantID, &variant)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Variant updated successfully", product)
}

func (h *ProductHandler) RemoveVariant(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "product")
	if !ok {
		return
	}
	variantID, ok := handlers.ParseID(c, "variantId", "variant")
	if !ok {
		return
	}

	product, err := h.catalog.RemoveVariant(c.Request.Context(), id, variantID)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Variant removed successfully", product)
}

// UploadImage accepts a multipart "image" field
func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id", "product")
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "Missing image file")
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeBadRequest, utils.ErrFileUploadFailed)
		return
	}
	defer file.Close()

	product, err := h.catalog.UploadProductImage(c.Request.Context(), id, header.Filename, file)
	if err != nil {
		handlers.HandleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Image uploaded successfully", product)
}
