package middleware

import (
	"net/http"
	"strings"

	"bakehouse/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// tokenFromRequest reads the bearer token. Websocket upgrades may pass it
// as the access_token query parameter since browsers cannot set headers.
func tokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader && token != "" {
		return token
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("access_token")
	}
	return ""
}

func setIdentity(c *gin.Context, claims *utils.JWTClaims) {
	c.Set(utils.ContextKeyCustomerID, claims.CustomerID)
	c.Set(utils.ContextKeyIsAdmin, claims.IsAdmin)
	c.Set("phone", claims.Phone)
}

// AuthRequired validates the access token and sets the customer context
func AuthRequired(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Bearer token required")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(tokenString, utils.TokenTypeAccess)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the customer context when a valid token is present and
// lets anonymous requests through.
func OptionalAuth(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			if claims, err := tokens.ValidateToken(tokenString, utils.TokenTypeAccess); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// AdminRequired middleware ensures the customer is an admin
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CustomerID(c); !ok {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		if !IsAdmin(c) {
			utils.ForbiddenResponse(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// CustomerID returns the authenticated customer, if any.
func CustomerID(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get(utils.ContextKeyCustomerID)
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok && !id.IsZero()
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(utils.ContextKeyIsAdmin)
}
