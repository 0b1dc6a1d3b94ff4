package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// redemptionLedger keeps the usage counter on the promo document and one
// redemption document per order. The global limit is enforced by a
// conditional $inc; the per-customer limit is checked by count first.
type redemptionLedger struct {
	promos      *mongo.Collection
	redemptions *mongo.Collection
}

func NewRedemptionLedger(db *mongo.Database) interfaces.RedemptionLedger {
	return &redemptionLedger{
		promos:      db.Collection(database.CollectionPromoCodes),
		redemptions: db.Collection(database.CollectionPromoRedemptions),
	}
}

func (l *redemptionLedger) Redeem(ctx context.Context, promo *models.PromoCode, redemption *models.PromoRedemption) error {
	if promo.PerCustomerLimit > 0 {
		used, err := l.redemptions.CountDocuments(ctx, bson.M{
			"promo_id":    promo.ID,
			"customer_id": redemption.CustomerID,
		})
		if err != nil {
			return mapError(err, "count customer redemptions")
		}
		if used >= int64(promo.PerCustomerLimit) {
			return interfaces.ErrCustomerLimit
		}
	}

	filter := bson.M{
		"_id": promo.ID,
		"$or": bson.A{
			bson.M{"usage_limit": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}}},
		},
	}
	update := bson.M{"$inc": bson.M{"used_count": 1}}

	var updated models.PromoCode
	err := l.promos.FindOneAndUpdate(ctx, filter, update).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return interfaces.ErrUsageLimitReached
	}
	if err != nil {
		return mapError(err, "increment promo usage")
	}

	redemption.ID = primitive.NewObjectID()
	redemption.PromoID = promo.ID
	redemption.Code = promo.Code
	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = time.Now()
	}

	if _, err := l.redemptions.InsertOne(ctx, redemption); err != nil {
		// give the use back; the order was not redeemed
		if _, undoErr := l.promos.UpdateOne(ctx, bson.M{"_id": promo.ID}, bson.M{"$inc": bson.M{"used_count": -1}}); undoErr != nil {
			return fmt.Errorf("failed to record redemption: %v (usage rollback failed: %w)", err, undoErr)
		}
		return mapError(err, "record redemption")
	}

	return nil
}

func (l *redemptionLedger) Release(ctx context.Context, orderID primitive.ObjectID) error {
	var redemption models.PromoRedemption
	err := l.redemptions.FindOneAndDelete(ctx, bson.M{"order_id": orderID}).Decode(&redemption)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return mapError(err, "delete redemption")
	}

	_, err = l.promos.UpdateOne(ctx,
		bson.M{"_id": redemption.PromoID, "used_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"used_count": -1}},
	)
	return mapError(err, "release promo usage")
}

func (l *redemptionLedger) Usage(ctx context.Context, promoID, customerID primitive.ObjectID) (int, int, error) {
	var promo models.PromoCode
	if err := l.promos.FindOne(ctx, bson.M{"_id": promoID}).Decode(&promo); err != nil {
		return 0, 0, mapError(err, "get promo usage")
	}

	byCustomer, err := l.redemptions.CountDocuments(ctx, bson.M{"promo_id": promoID, "customer_id": customerID})
	if err != nil {
		return 0, 0, mapError(err, "count customer redemptions")
	}

	return promo.UsedCount, int(byCustomer), nil
}
