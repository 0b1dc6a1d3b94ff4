package middleware

import (
	"net/http"
	"strings"

	"bakehouse/internal/utils"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditMiddleware records every successful admin write.
func AuditMiddleware(audit *logger.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		var actor *primitive.ObjectID
		if id, ok := CustomerID(c); ok {
			actor = &id
		}
		audit.LogAction(strings.ToLower(c.Request.Method), auditResource(c.FullPath()), actor, map[string]interface{}{
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString(utils.ContextKeyRequestID),
		})
	}
}

// auditResource turns /api/v1/admin/products/:id/variants into
// "products.variants".
func auditResource(route string) string {
	route = strings.TrimPrefix(route, "/api/v1")
	route = strings.TrimPrefix(route, "/admin")
	var parts []string
	for _, seg := range strings.Split(route, "/") {
		if seg == "" || strings.HasPrefix(seg, ":") {
			continue
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, ".")
}
