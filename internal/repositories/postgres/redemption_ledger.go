package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const uniqueViolation = "23505"

// RedemptionLedger keeps promo usage counters in Postgres so that limits
// can be enforced under row locks. Promo ids and customer ids are stored
// as their hex form.
type RedemptionLedger struct {
	db  *sql.DB
	now func() time.Time
}

func NewRedemptionLedger(db *sql.DB) *RedemptionLedger {
	return &RedemptionLedger{db: db, now: time.Now}
}

var _ interfaces.RedemptionLedger = (*RedemptionLedger)(nil)

func (l *RedemptionLedger) Redeem(ctx context.Context, promo *models.PromoCode, redemption *models.PromoRedemption) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin redemption: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	promoID := promo.ID.Hex()
	customerID := redemption.CustomerID.Hex()

	total, err := lockPromoUsage(ctx, tx, promoID)
	if err != nil {
		return err
	}
	if promo.UsageLimit > 0 && total >= promo.UsageLimit {
		return interfaces.ErrUsageLimitReached
	}

	byCustomer, err := lockCustomerUsage(ctx, tx, promoID, customerID)
	if err != nil {
		return err
	}
	if promo.PerCustomerLimit > 0 && byCustomer >= promo.PerCustomerLimit {
		return interfaces.ErrCustomerLimit
	}

	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = l.now()
	}
	redemption.PromoID = promo.ID
	redemption.Code = promo.Code

	_, err = tx.ExecContext(ctx, `
		INSERT INTO promo_redemptions (order_id, promo_id, customer_id, code, discount, redeemed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		redemption.OrderID.Hex(), promoID, customerID, promo.Code, redemption.Discount.StringFixed(2), redemption.RedeemedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to insert redemption: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE promo_usage SET usage_count = usage_count + 1, updated_at = $2
		WHERE promo_id = $1`, promoID, redemption.RedeemedAt); err != nil {
		return fmt.Errorf("failed to increment promo usage: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE promo_customer_usage SET usage_count = usage_count + 1, last_used = $3
		WHERE promo_id = $1 AND customer_id = $2`, promoID, customerID, redemption.RedeemedAt); err != nil {
		return fmt.Errorf("failed to increment customer usage: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit redemption: %w", err)
	}
	return nil
}

// lockPromoUsage creates the usage row if missing and locks it.
func lockPromoUsage(ctx context.Context, tx *sql.Tx, promoID string) (int, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO promo_usage (promo_id, usage_count, updated_at)
		VALUES ($1, 0, NOW())
		ON CONFLICT (promo_id) DO NOTHING`, promoID); err != nil {
		return 0, fmt.Errorf("failed to create promo usage: %w", err)
	}

	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT usage_count FROM promo_usage
		WHERE promo_id = $1
		FOR UPDATE`, promoID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to lock promo usage: %w", err)
	}
	return count, nil
}

func lockCustomerUsage(ctx context.Context, tx *sql.Tx, promoID, customerID string) (int, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO promo_customer_usage (promo_id, customer_id, usage_count, last_used)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (promo_id, customer_id) DO NOTHING`, promoID, customerID); err != nil {
		return 0, fmt.Errorf("failed to create customer usage: %w", err)
	}

	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT usage_count FROM promo_customer_usage
		WHERE promo_id = $1 AND customer_id = $2
		FOR UPDATE`, promoID, customerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to lock customer usage: %w", err)
	}
	return count, nil
}

func (l *RedemptionLedger) Release(ctx context.Context, orderID primitive.ObjectID) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin release: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var promoID, customerID string
	err = tx.QueryRowContext(ctx, `
		DELETE FROM promo_redemptions WHERE order_id = $1
		RETURNING promo_id, customer_id`, orderID.Hex()).Scan(&promoID, &customerID)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return tx.Commit()
	}
	if err != nil {
		return fmt.Errorf("failed to delete redemption: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE promo_usage SET usage_count = usage_count - 1, updated_at = NOW()
		WHERE promo_id = $1 AND usage_count > 0`, promoID); err != nil {
		return fmt.Errorf("failed to release promo usage: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE promo_customer_usage SET usage_count = usage_count - 1
		WHERE promo_id = $1 AND customer_id = $2 AND usage_count > 0`, promoID, customerID); err != nil {
		return fmt.Errorf("failed to release customer usage: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}
	return nil
}

func (l *RedemptionLedger) Usage(ctx context.Context, promoID, customerID primitive.ObjectID) (int, int, error) {
	var total, byCustomer int
	err := l.db.QueryRowContext(ctx, `
		SELECT
			COALESCE((SELECT usage_count FROM promo_usage WHERE promo_id = $1), 0),
			COALESCE((SELECT usage_count FROM promo_customer_usage WHERE promo_id = $1 AND customer_id = $2), 0)`,
		promoID.Hex(), customerID.Hex()).Scan(&total, &byCustomer)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read promo usage: %w", err)
	}
	return total, byCustomer, nil
}
