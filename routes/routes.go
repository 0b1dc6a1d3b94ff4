package routes

import (
	"time"

	"bakehouse/internal/handlers/admin"
	handlers "bakehouse/internal/handlers/shared"
	"bakehouse/internal/middleware"
	"bakehouse/internal/utils"
	"bakehouse/pkg/cache"
	"bakehouse/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every handler the route table needs.
type Handlers struct {
	Catalog  *handlers.CatalogHandler
	Auth     *handlers.AuthHandler
	Orders   *handlers.OrderHandler
	Customer *handlers.CustomerHandler
	Promos   *handlers.PromoHandler
	Webhooks *handlers.WebhookHandler
	Health   *handlers.HealthHandler
	Feed     *handlers.FeedHandler

	AdminProducts *admin.ProductHandler
	AdminPromos   *admin.PromoHandler
	AdminOrders   *admin.OrderHandler
	AdminReviews  *admin.ReviewHandler
}

// Deps are the middleware dependencies shared by the route groups.
type Deps struct {
	Tokens *utils.TokenIssuer
	Cache  cache.Cache
	Logger *logger.Logger
	Audit  *logger.AuditLogger

	// OTPRequestsPerMinute bounds OTP requests per client IP.
	OTPRequestsPerMinute int
}

// Setup mounts the whole API under /api/v1
func Setup(r *gin.Engine, h *Handlers, deps Deps) {
	r.GET("/health", h.Health.Health)

	v1 := r.Group("/api/v1")
	v1.GET("/health", h.Health.Health)

	SetupPublicRoutes(v1, h, deps)
	SetupCustomerRoutes(v1, h, deps)
	SetupAdminRoutes(v1, h, deps)
}

// SetupPublicRoutes sets up storefront routes that work without a token
func SetupPublicRoutes(r *gin.RouterGroup, h *Handlers, deps Deps) {
	products := r.Group("/products")
	{
		products.GET("", h.Catalog.ListProducts)
		products.GET("/:id", h.Catalog.GetProduct)
		products.POST("/:id/quote", h.Catalog.QuoteProduct)
		products.GET("/:id/reviews", h.Catalog.ListReviews)
	}

	limit := deps.OTPRequestsPerMinute
	if limit <= 0 {
		limit = 10
	}
	auth := r.Group("/auth")
	{
		auth.POST("/otp/request", middleware.RateLimitMiddleware(deps.Cache, deps.Logger, "otp_request", limit, time.Minute), h.Auth.RequestOTP)
		auth.POST("/otp/verify", middleware.RateLimitMiddleware(deps.Cache, deps.Logger, "otp_verify", limit*2, time.Minute), h.Auth.VerifyOTP)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}

	// Anonymous carts are priced too; a token only adds per-customer limits
	optional := r.Group("", middleware.OptionalAuth(deps.Tokens))
	{
		optional.POST("/checkout/quote", h.Orders.Quote)
		optional.POST("/promos/validate", h.Promos.Validate)
		optional.GET("/promos/auto-apply", h.Promos.AutoApply)
	}

	// Provider callbacks are authenticated by signature
	r.POST("/webhooks/:provider", h.Webhooks.PaymentWebhook)
}

// SetupCustomerRoutes sets up routes for signed-in customers
func SetupCustomerRoutes(r *gin.RouterGroup, h *Handlers, deps Deps) {
	authed := r.Group("", middleware.AuthRequired(deps.Tokens))

	me := authed.Group("/me")
	{
		me.GET("", h.Customer.GetProfile)
		me.PUT("", h.Customer.UpdateProfile)

		me.GET("/addresses", h.Customer.ListAddresses)
		me.POST("/addresses", h.Customer.AddAddress)
		me.PUT("/addresses/:id", h.Customer.UpdateAddress)
		me.DELETE("/addresses/:id", h.Customer.DeleteAddress)
	}

	orders := authed.Group("/orders")
	{
		orders.POST("", h.Orders.PlaceOrder)
		orders.GET("", h.Orders.ListOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.POST("/:id/cancel", h.Orders.CancelOrder)
	}

	authed.POST("/products/:id/reviews", h.Catalog.CreateReview)
	authed.GET("/ws", h.Feed.CustomerFeed)
}

// SetupAdminRoutes sets up back-office routes
func SetupAdminRoutes(r *gin.RouterGroup, h *Handlers, deps Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(deps.Tokens), middleware.AdminRequired())
	if deps.Audit != nil {
		adminGroup.Use(middleware.AuditMiddleware(deps.Audit))
	}

	products := adminGroup.Group("/products")
	{
		products.GET("", h.AdminProducts.ListProducts)
		products.POST("", h.AdminProducts.CreateProduct)
		products.GET("/:id", h.AdminProducts.GetProduct)
		products.PUT("/:id", h.AdminProducts.UpdateProduct)
		products.DELETE("/:id", h.AdminProducts.DeleteProduct)
		products.POST("/:id/image", h.AdminProducts.UploadImage)

		products.POST("/:id/variants", h.AdminProducts.AddVariant)
		products.PUT("/:id/variants/:variantId", h.AdminProducts.UpdateVariant)
		products.DELETE("/:id/variants/:variantId", h.AdminProducts.RemoveVariant)
	}

	promos := adminGroup.Group("/promos")
	{
		promos.GET("", h.AdminPromos.ListPromos)
		promos.POST("", h.AdminPromos.CreatePromo)
		promos.GET("/:id", h.AdminPromos.GetPromo)
		promos.PUT("/:id", h.AdminPromos.UpdatePromo)
		promos.POST("/:id/deactivate", h.AdminPromos.DeactivatePromo)
	}

	orders := adminGroup.Group("/orders")
	{
		orders.GET("", h.AdminOrders.ListOrders)
		orders.GET("/:id", h.AdminOrders.GetOrder)
		orders.PUT("/:id/status", h.AdminOrders.UpdateStatus)
		orders.POST("/:id/cancel", h.AdminOrders.CancelOrder)
	}

	reviews := adminGroup.Group("/reviews")
	{
		reviews.GET("/pending", h.AdminReviews.ListPending)
		reviews.POST("/:id/approve", h.AdminReviews.Approve)
		reviews.DELETE("/:id", h.AdminReviews.Delete)
	}

	adminGroup.GET("/ws", h.Feed.AdminFeed)
}
