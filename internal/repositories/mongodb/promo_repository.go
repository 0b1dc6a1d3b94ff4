package mongodb

import (
	"context"
	"strings"
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"
	"bakehouse/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type promoRepository struct {
	collection *mongo.Collection
}

func NewPromoRepository(db *mongo.Database) interfaces.PromoRepository {
	return &promoRepository{
		collection: db.Collection(database.CollectionPromoCodes),
	}
}

func (r *promoRepository) Create(ctx context.Context, promo *models.PromoCode) error {
	now := time.Now()
	promo.ID = primitive.NewObjectID()
	promo.Code = strings.ToUpper(promo.Code)
	promo.UsedCount = 0
	promo.CreatedAt = now
	promo.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, promo)
	return mapError(err, "create promo code")
}

func (r *promoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&promo); err != nil {
		return nil, mapError(err, "get promo code")
	}
	return &promo, nil
}

func (r *promoRepository) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.collection.FindOne(ctx, bson.M{"code": strings.ToUpper(code)}).Decode(&promo)
	if err != nil {
		return nil, mapError(err, "get promo code by code")
	}
	return &promo, nil
}

// Update replaces the editable fields. used_count is owned by the ledger
// and left alone.
func (r *promoRepository) Update(ctx context.Context, promo *models.PromoCode) error {
	promo.UpdatedAt = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": promo.ID}, bson.M{"$set": bson.M{
		"code":                strings.ToUpper(promo.Code),
		"description":         promo.Description,
		"discount_type":       promo.DiscountType,
		"discount_value":      promo.DiscountValue,
		"min_order_amount":    promo.MinOrderAmount,
		"max_discount_amount": promo.MaxDiscountAmount,
		"auto_apply_eligible": promo.AutoApplyEligible,
		"is_active":           promo.IsActive,
		"valid_from":          promo.ValidFrom,
		"valid_until":         promo.ValidUntil,
		"usage_limit":         promo.UsageLimit,
		"per_customer_limit":  promo.PerCustomerLimit,
		"updated_at":          promo.UpdatedAt,
	}})
	if err != nil {
		return mapError(err, "update promo code")
	}
	return matchedOrNotFound(res)
}

func (r *promoRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now()}},
	)
	if err != nil {
		return mapError(err, "update promo status")
	}
	return matchedOrNotFound(res)
}

func (r *promoRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.PromoCode, int64, error) {
	return findPaged[models.PromoCode](ctx, r.collection, params.GetSearchFilter([]string{"code", "description"}), params)
}

func (r *promoRepository) ListAutoApply(ctx context.Context, now time.Time) ([]*models.PromoCode, error) {
	filter := bson.M{
		"is_active":           true,
		"auto_apply_eligible": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"valid_from": bson.M{"$lte": now}},
				bson.M{"valid_from": time.Time{}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"valid_until": bson.M{"$gte": now}},
				bson.M{"valid_until": time.Time{}},
			}},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, mapError(err, "list auto-apply promos")
	}
	defer cursor.Close(ctx)

	var promos []*models.PromoCode
	if err := cursor.All(ctx, &promos); err != nil {
		return nil, mapError(err, "decode auto-apply promos")
	}
	return promos, nil
}
