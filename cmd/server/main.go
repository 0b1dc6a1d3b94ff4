package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bakehouse/internal/config"
	"bakehouse/internal/handlers/admin"
	handlers "bakehouse/internal/handlers/shared"
	"bakehouse/internal/middleware"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/repositories/mongodb"
	"bakehouse/internal/repositories/postgres"
	"bakehouse/internal/services"
	"bakehouse/internal/utils"
	"bakehouse/internal/validators"
	"bakehouse/pkg/cache"
	"bakehouse/pkg/database"
	"bakehouse/pkg/logger"
	"bakehouse/pkg/payment"
	"bakehouse/pkg/sms"
	"bakehouse/pkg/storage"
	"bakehouse/pkg/websocket"
	"bakehouse/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.WithError(err).Fatal("Server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) error {
	// Datastores
	mongo, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		Username:       cfg.Database.Username,
		Password:       cfg.Database.Password,
		AuthSource:     cfg.Database.AuthSource,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return err
	}
	defer mongo.Close()

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    cfg.Redis.KeyPrefix,
	})
	if err != nil {
		return err
	}
	defer redisCache.Close()

	ledger, ledgerDB, err := redemptionLedger(cfg, mongo)
	if err != nil {
		return err
	}
	if ledgerDB != nil {
		defer ledgerDB.Close()
	}

	// External providers
	smsProvider, err := newSMSProvider(cfg.SMS, appLogger)
	if err != nil {
		return err
	}

	payments := payment.NewRegistry(cfg.Payment.DefaultProvider,
		payment.NewStripeProvider(cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.WebhookSecret),
		payment.NewRazorpayProvider(cfg.Payment.Razorpay.KeyID, cfg.Payment.Razorpay.KeySecret, cfg.Payment.Razorpay.Webhook),
	)

	imageStorage, err := storage.NewProvider(ctx, storage.Settings{
		Provider:           cfg.Storage.Provider,
		LocalPath:          cfg.Storage.Local.BasePath,
		LocalURL:           cfg.Storage.Local.BaseURL,
		AWSRegion:          cfg.Storage.AWS.Region,
		AWSBucket:          cfg.Storage.AWS.Bucket,
		AWSCDNDomain:       cfg.Storage.AWS.CDNDomain,
		GCPBucket:          cfg.Storage.GCP.Bucket,
		GCPCredentialsFile: cfg.Storage.GCP.CredentialsFile,
		GCPCDNDomain:       cfg.Storage.GCP.CDNDomain,
	})
	if err != nil {
		return fmt.Errorf("failed to create storage provider: %w", err)
	}

	// Realtime order feed, relayed through redis so every instance sees
	// every event
	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)
	relay := websocket.NewRelay(redisCache, hub, appLogger)
	go consumeRelay(ctx, redisCache, relay, appLogger)

	// Repositories
	db := mongo.Database
	productRepo := mongodb.NewProductRepository(db)
	promoRepo := mongodb.NewPromoRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)
	customerRepo := mongodb.NewCustomerRepository(db)
	addressRepo := mongodb.NewAddressRepository(db)
	reviewRepo := mongodb.NewReviewRepository(db)

	// Services
	tokens := utils.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTAccessTokenTTL, cfg.Security.JWTRefreshTokenTTL)
	catalogService := services.NewCatalogService(productRepo, imageStorage, cfg.Store, appLogger)
	promoService := services.NewPromoService(promoRepo, ledger, redisCache, cfg.Store, appLogger)
	orderService := services.NewOrderService(productRepo, orderRepo, addressRepo, customerRepo, promoService, payments, smsProvider, relay, cfg.Store, appLogger)
	verificationService := services.NewVerificationService(customerRepo, redisCache, smsProvider, tokens, cfg.Security, appLogger)
	customerService := services.NewCustomerService(customerRepo, addressRepo, reviewRepo, productRepo, appLogger)

	// Handlers
	wsHandler := websocket.NewHandler(hub, websocket.Options{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		PingInterval:    cfg.WebSocket.PingInterval,
		PongTimeout:     cfg.WebSocket.PongTimeout,
		MaxMessageSize:  cfg.WebSocket.MaxMessageSize,
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
	})
	h := &routes.Handlers{
		Catalog:  handlers.NewCatalogHandler(catalogService, customerService, appLogger),
		Auth:     handlers.NewAuthHandler(verificationService, appLogger),
		Orders:   handlers.NewOrderHandler(orderService, appLogger),
		Customer: handlers.NewCustomerHandler(customerService, appLogger),
		Promos:   handlers.NewPromoHandler(promoService, appLogger),
		Webhooks: handlers.NewWebhookHandler(orderService, payments, appLogger),
		Health: handlers.NewHealthHandler(cfg.App.Version,
			handlers.HealthCheck{Name: "mongodb", Check: mongo.Ping},
			handlers.HealthCheck{Name: "redis", Check: redisCache.Ping},
		),
		Feed: handlers.NewFeedHandler(wsHandler, appLogger),

		AdminProducts: admin.NewProductHandler(catalogService, appLogger),
		AdminPromos:   admin.NewPromoHandler(promoService, appLogger),
		AdminOrders:   admin.NewOrderHandler(orderService, appLogger),
		AdminReviews:  admin.NewReviewHandler(customerService, appLogger),
	}

	// Initialize Gin router
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validators.RegisterWithGin(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	if cfg.Storage.Provider == "local" || cfg.Storage.Provider == "" {
		router.Static("/uploads", cfg.Storage.Local.BasePath)
	}

	routes.Setup(router, h, routes.Deps{
		Tokens:               tokens,
		Cache:                redisCache,
		Logger:               appLogger,
		Audit:                logger.NewAuditLogger(appLogger),
		OTPRequestsPerMinute: cfg.Security.OTPRequestsPerIP,
	})

	// Start server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// redemptionLedger picks where promo redemptions are counted. The returned
// *sql.DB is nil unless the postgres ledger is in use.
func redemptionLedger(cfg *config.Config, mongo *database.MongoDB) (interfaces.RedemptionLedger, *sql.DB, error) {
	if cfg.Database.RedemptionStore != config.RedemptionStorePostgres {
		return mongodb.NewRedemptionLedger(mongo.Database), nil, nil
	}

	db, err := database.NewPostgres(&database.PostgresConfig{
		DSN:             cfg.Postgres.DSN(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewRedemptionLedger(db), db, nil
}

func newSMSProvider(cfg *config.SMSConfig, appLogger *logger.Logger) (sms.SMSProvider, error) {
	if cfg.Provider == "log" {
		if config.IsProduction() {
			return nil, fmt.Errorf("SMS_PROVIDER=log is not allowed in production")
		}
		return sms.NewLogProvider(appLogger), nil
	}

	provider, err := sms.NewProvider(sms.Settings{
		Provider:         cfg.Provider,
		TwilioAccountSID: cfg.Twilio.AccountSID,
		TwilioAuthToken:  cfg.Twilio.AuthToken,
		TwilioFromNumber: cfg.Twilio.FromNumber,
		AWSRegion:        cfg.AWS.Region,
		SenderID:         cfg.DefaultFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sms provider: %w", err)
	}
	return provider, nil
}

// consumeRelay forwards events published by any instance to this
// instance's hub until ctx is done.
func consumeRelay(ctx context.Context, redisCache *cache.RedisCache, relay *websocket.Relay, appLogger *logger.Logger) {
	sub := redisCache.Subscribe(ctx, websocket.RelayChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := relay.Deliver([]byte(msg.Payload)); err != nil {
				appLogger.WithError(err).Warn("Dropping malformed relay message")
			}
		}
	}
}
