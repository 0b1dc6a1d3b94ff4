package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bakehouse/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionProducts         = "products"
	CollectionPromoCodes       = "promo_codes"
	CollectionPromoRedemptions = "promo_redemptions"
	CollectionOrders           = "orders"
	CollectionCustomers        = "customers"
	CollectionAddresses        = "addresses"
	CollectionReviews          = "reviews"
	collectionMigrations       = "migrations"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		logger:     log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)
		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)
		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}
		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(collectionMigrations).FindOne(ctx, bson.D{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(collectionMigrations).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func dropIndexes(name string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(name).Indexes().DropAll(ctx)
		return err
	}
}

func createIndexes(name string, indexes []mongo.IndexModel) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(name).Indexes().CreateMany(ctx, indexes)
		return err
	}
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create products indexes",
			Up: createIndexes(CollectionProducts, []mongo.IndexModel{
				{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "category", Value: 1}, {Key: "is_active", Value: 1}}},
				{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
				{Keys: bson.D{{Key: "variants._id", Value: 1}}},
			}),
			Down: dropIndexes(CollectionProducts),
		},
		{
			Version:     2,
			Description: "Create promo code indexes",
			Up: createIndexes(CollectionPromoCodes, []mongo.IndexModel{
				{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "auto_apply_eligible", Value: 1}, {Key: "is_active", Value: 1}}},
				{Keys: bson.D{{Key: "valid_until", Value: 1}}},
			}),
			Down: dropIndexes(CollectionPromoCodes),
		},
		{
			Version:     3,
			Description: "Create promo redemption indexes",
			Up: createIndexes(CollectionPromoRedemptions, []mongo.IndexModel{
				{Keys: bson.D{{Key: "promo_id", Value: 1}, {Key: "customer_id", Value: 1}}},
				{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			}),
			Down: dropIndexes(CollectionPromoRedemptions),
		},
		{
			Version:     4,
			Description: "Create order indexes",
			Up: createIndexes(CollectionOrders, []mongo.IndexModel{
				{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
				{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
				{Keys: bson.D{{Key: "payment.transaction_id", Value: 1}}},
			}),
			Down: dropIndexes(CollectionOrders),
		},
		{
			Version:     5,
			Description: "Create customer, address and review indexes",
			Up: func(ctx context.Context, db *mongo.Database) error {
				steps := []func(context.Context, *mongo.Database) error{
					createIndexes(CollectionCustomers, []mongo.IndexModel{
						{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
					}),
					createIndexes(CollectionAddresses, []mongo.IndexModel{
						{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "is_default", Value: -1}}},
					}),
					createIndexes(CollectionReviews, []mongo.IndexModel{
						{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "customer_id", Value: 1}}, Options: options.Index().SetUnique(true)},
						{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "is_approved", Value: 1}, {Key: "created_at", Value: -1}}},
					}),
				}
				for _, step := range steps {
					if err := step(ctx, db); err != nil {
						return err
					}
				}
				return nil
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				for _, name := range []string{CollectionCustomers, CollectionAddresses, CollectionReviews} {
					if err := dropIndexes(name)(ctx, db); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
