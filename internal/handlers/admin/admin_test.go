package admin

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bakehouse/internal/middleware"
	"bakehouse/internal/models"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var tokens = utils.NewTokenIssuer("admin-secret", time.Hour, 24*time.Hour)

func authHeader(t *testing.T, isAdmin bool) string {
	t.Helper()
	pair, err := tokens.GenerateTokenPair(primitive.NewObjectID(), "+15550001111", isAdmin)
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func newAdminRouter(catalog services.CatalogService, orders services.OrderService) *gin.Engine {
	products := NewProductHandler(catalog, logger.NewNop())
	orderHandler := NewOrderHandler(orders, logger.NewNop())

	r := gin.New()
	g := r.Group("/admin", middleware.AuthRequired(tokens), middleware.AdminRequired())
	g.POST("/products", products.CreateProduct)
	g.POST("/products/:id/image", products.UploadImage)
	g.DELETE("/products/:id/variants/:variantId", products.RemoveVariant)
	g.GET("/orders", orderHandler.ListOrders)
	g.PUT("/orders/:id/status", orderHandler.UpdateStatus)
	g.POST("/orders/:id/cancel", orderHandler.CancelOrder)
	return r
}

func send(r http.Handler, method, path, contentType string, body []byte, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r := newAdminRouter(&mockCatalog{}, &mockOrders{})

	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodGet, "/admin/orders", "", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/admin/orders", "", nil, authHeader(t, false)).Code)
}

func TestListOrdersFilters(t *testing.T) {
	orders := &mockOrders{}
	customer := primitive.NewObjectID()
	expected := models.OrderFilter{Status: models.OrderStatusPreparing, CustomerID: &customer}
	orders.On("ListOrders", mock.Anything, expected, mock.Anything).Return([]*models.Order{{OrderNumber: "BH-7"}}, int64(1), nil).Once()
	r := newAdminRouter(&mockCatalog{}, orders)
	auth := authHeader(t, true)

	w := send(r, http.MethodGet, "/admin/orders?status=preparing&customer_id="+customer.Hex(), "", nil, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "BH-7")

	w = send(r, http.MethodGet, "/admin/orders?status=burnt", "", nil, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	orders.AssertExpectations(t)
}

func TestUpdateStatusConflict(t *testing.T) {
	orders := &mockOrders{}
	id := primitive.NewObjectID()
	orders.On("UpdateStatus", mock.Anything, id, &models.UpdateOrderStatusRequest{Status: models.OrderStatusDelivered}).
		Return(nil, services.ErrInvalidTransition).Once()
	r := newAdminRouter(&mockCatalog{}, orders)

	w := send(r, http.MethodPut, "/admin/orders/"+id.Hex()+"/status", "application/json", []byte(`{"status":"delivered"}`), authHeader(t, true))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), utils.CodeInvalidState)
	orders.AssertExpectations(t)
}

func TestAdminCancelNeedsReason(t *testing.T) {
	orders := &mockOrders{}
	id := primitive.NewObjectID()
	orders.On("CancelOrder", mock.Anything, id, (*primitive.ObjectID)(nil), "oven broke").
		Return(&models.Order{ID: id, Status: models.OrderStatusCancelled}, nil).Once()
	r := newAdminRouter(&mockCatalog{}, orders)
	auth := authHeader(t, true)

	w := send(r, http.MethodPost, "/admin/orders/"+id.Hex()+"/cancel", "application/json", []byte(`{}`), auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/admin/orders/"+id.Hex()+"/cancel", "application/json", []byte(`{"reason":"oven broke"}`), auth)
	assert.Equal(t, http.StatusOK, w.Code)
	orders.AssertExpectations(t)
}

func TestCreateProductValidationError(t *testing.T) {
	catalog := &mockCatalog{}
	catalog.On("CreateProduct", mock.Anything, mock.Anything).
		Return(nil, &services.ValidationError{Details: map[string]string{"name": "required"}}).Once()
	r := newAdminRouter(catalog, &mockOrders{})

	w := send(r, http.MethodPost, "/admin/products", "application/json", []byte(`{"base_price":"4"}`), authHeader(t, true))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), utils.CodeValidation)
	catalog.AssertExpectations(t)
}

func TestUploadImage(t *testing.T) {
	catalog := &mockCatalog{}
	id := primitive.NewObjectID()
	catalog.On("UploadProductImage", mock.Anything, id, "loaf.png", []byte("png-bytes")).
		Return(&models.Product{ID: id, ImageURL: "http://cdn.test/loaf.png"}, nil).Once()
	r := newAdminRouter(catalog, &mockOrders{})
	auth := authHeader(t, true)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "loaf.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := send(r, http.MethodPost, "/admin/products/"+id.Hex()+"/image", mw.FormDataContentType(), body.Bytes(), auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Body.String(), "http://cdn.test/loaf.png"))

	w = send(r, http.MethodPost, "/admin/products/"+id.Hex()+"/image", "application/json", []byte(`{}`), auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	catalog.AssertExpectations(t)
}

func TestRemoveUnknownVariant(t *testing.T) {
	catalog := &mockCatalog{}
	id, variant := primitive.NewObjectID(), primitive.NewObjectID()
	catalog.On("RemoveVariant", mock.Anything, id, variant).Return(nil, services.ErrVariantNotFound).Once()
	r := newAdminRouter(catalog, &mockOrders{})

	w := send(r, http.MethodDelete, "/admin/products/"+id.Hex()+"/variants/"+variant.Hex(), "", nil, authHeader(t, true))
	assert.Equal(t, http.StatusNotFound, w.Code)
	catalog.AssertExpectations(t)
}
