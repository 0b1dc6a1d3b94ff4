package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"bakehouse/internal/utils"
	"bakehouse/pkg/cache"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware configures CORS headers for the allowed origins. A "*"
// entry allows any origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+utils.HeaderRequestID)
			c.Header("Access-Control-Expose-Headers", "Content-Length, "+utils.HeaderRequestID)
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware adds a request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(utils.HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = utils.GenerateRequestID()
		}
		c.Set(utils.ContextKeyRequestID, requestID)
		c.Header(utils.HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// LoggingMiddleware writes one structured line per request
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		reqLog := log.WithRequestID(c.GetString(utils.ContextKeyRequestID))
		if id, ok := CustomerID(c); ok {
			reqLog.LogAPIRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start), &id)
			return
		}
		reqLog.LogAPIRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start), nil)
	}
}

// RecoveryMiddleware turns panics into a 500 envelope
func RecoveryMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithRequestID(c.GetString(utils.ContextKeyRequestID)).WithFields(map[string]interface{}{
					"panic": fmt.Sprint(r),
					"path":  c.Request.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("Recovered from panic")
				utils.InternalServerErrorResponse(c)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// RateLimitMiddleware allows limit requests per client IP in each window.
func RateLimitMiddleware(c cache.Cache, log *logger.Logger, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", name, ctx.ClientIP())
		count, err := c.IncrementWithExpiry(ctx.Request.Context(), key, window)
		if err != nil {
			log.WithError(err).Warn("Rate limit check failed")
			ctx.Next()
			return
		}

		if count > int64(limit) {
			ctx.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			utils.TooManyRequestsResponse(ctx, "Too many requests, try again later")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
