package main

import (
	"context"
	"flag"
	"log"
	"time"

	"bakehouse/internal/config"
	"bakehouse/pkg/database"
	"bakehouse/pkg/logger"
)

func main() {
	down := flag.Int("down", -1, "revert mongo migrations down to this version")
	status := flag.Bool("status", false, "print the current mongo migration version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		TimeFormat: time.RFC3339,
		AppName:    cfg.App.Name + "-migrate",
		Version:    cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

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
		appLogger.WithError(err).Fatal("Failed to connect to mongodb")
	}
	defer mongo.Close()

	migrator := database.NewMigrator(mongo.Database, appLogger)

	switch {
	case *status:
		version, err := migrator.CurrentVersion(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to read migration version")
		}
		appLogger.WithField("version", version).Info("Current migration version")
		return
	case *down >= 0:
		if err := migrator.Down(ctx, *down); err != nil {
			appLogger.WithError(err).Fatal("Rollback failed")
		}
		appLogger.WithField("version", *down).Info("Rolled back migrations")
		return
	}

	if err := migrator.Up(ctx); err != nil {
		appLogger.WithError(err).Fatal("Migration failed")
	}
	appLogger.Info("Mongo migrations applied")

	if cfg.Database.RedemptionStore != config.RedemptionStorePostgres {
		return
	}

	db, err := database.NewPostgres(&database.PostgresConfig{
		DSN:             cfg.Postgres.DSN(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to postgres")
	}
	defer db.Close()

	if err := database.MigratePostgres(ctx, db); err != nil {
		appLogger.WithError(err).Fatal("Postgres ledger migration failed")
	}
	appLogger.Info("Postgres redemption ledger ready")
}
