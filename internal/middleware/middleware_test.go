package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bakehouse/internal/utils"
	"bakehouse/pkg/cache"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	id, ok := CustomerID(c)
	c.JSON(http.StatusOK, gin.H{"authenticated": ok, "customer_id": id.Hex(), "is_admin": IsAdmin(c)})
}

func newAuthRouter(tokens *utils.TokenIssuer) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(tokens), whoami)
	r.GET("/maybe", OptionalAuth(tokens), whoami)
	r.GET("/admin", AuthRequired(tokens), AdminRequired(), whoami)
	r.GET("/ws", AuthRequired(tokens), whoami)
	return r
}

func get(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	tokens := utils.NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	r := newAuthRouter(tokens)
	customer := primitive.NewObjectID()
	pair, err := tokens.GenerateTokenPair(customer, "+15551234567", false)
	require.NoError(t, err)

	w := get(r, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/me", map[string]string{"Authorization": "Bearer " + pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh tokens are not access tokens")

	w = get(r, "/me", map[string]string{"Authorization": "Bearer " + pair.AccessToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), customer.Hex())

	w = get(r, "/admin", map[string]string{"Authorization": "Bearer " + pair.AccessToken})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRequired(t *testing.T) {
	tokens := utils.NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	r := newAuthRouter(tokens)
	pair, err := tokens.GenerateTokenPair(primitive.NewObjectID(), "+15551234567", true)
	require.NoError(t, err)

	w := get(r, "/admin", map[string]string{"Authorization": "Bearer " + pair.AccessToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_admin":true`)
}

func TestOptionalAuth(t *testing.T) {
	tokens := utils.NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	r := newAuthRouter(tokens)

	w := get(r, "/maybe", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	w = get(r, "/maybe", map[string]string{"Authorization": "Bearer junk"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestWebsocketTokenFromQuery(t *testing.T) {
	tokens := utils.NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	r := newAuthRouter(tokens)
	pair, err := tokens.GenerateTokenPair(primitive.NewObjectID(), "+15551234567", false)
	require.NoError(t, err)

	w := get(r, "/ws?access_token="+pair.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "query tokens only count for upgrades")

	w = get(r, "/ws?access_token="+pair.AccessToken, map[string]string{"Upgrade": "websocket"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://shop.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/x", map[string]string{"Origin": "https://shop.example.com"})
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "/x", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(utils.ContextKeyRequestID)) })

	w := get(r, "/x", nil)
	generated := w.Header().Get(utils.HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = get(r, "/x", map[string]string{utils.HeaderRequestID: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(utils.HeaderRequestID))
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(logger.NewNop()), LoggingMiddleware(logger.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("oven on fire") })

	w := get(r, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), utils.CodeInternal)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(cache.NewMemoryCache(), logger.NewNop(), "otp", 2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/x", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/x", nil).Code)
	w := get(r, "/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestAuditResource(t *testing.T) {
	assert.Equal(t, "products.variants", auditResource("/api/v1/admin/products/:id/variants/:variantId"))
	assert.Equal(t, "orders.status", auditResource("/api/v1/admin/orders/:id/status"))
	assert.Equal(t, "", auditResource(""))
}

func TestAuditMiddlewareSkipsReadsAndFailures(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewNop()
	log.SetOutput(&buf)
	audit := logger.NewAuditLogger(log)

	r := gin.New()
	r.Use(AuditMiddleware(audit))
	r.GET("/admin/promos", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/admin/promos", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.PUT("/admin/promos/:id", func(c *gin.Context) { c.Status(http.StatusConflict) })

	get(r, "/admin/promos", nil)
	req := httptest.NewRequest(http.MethodPut, "/admin/promos/1", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, buf.String())

	req = httptest.NewRequest(http.MethodPost, "/admin/promos", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Contains(t, buf.String(), "Audit log entry")
	assert.Contains(t, buf.String(), "promos")
}
