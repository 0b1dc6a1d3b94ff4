package mongodb

import (
	"context"
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"
	"bakehouse/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type reviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) interfaces.ReviewRepository {
	return &reviewRepository{
		collection: db.Collection(database.CollectionReviews),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	now := time.Now()
	review.ID = primitive.NewObjectID()
	review.CreatedAt = now
	review.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, review)
	return mapError(err, "create review")
}

func (r *reviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return nil, mapError(err, "get review")
	}
	return &review, nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID, approvedOnly bool, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	filter := bson.M{"product_id": productID}
	if approvedOnly {
		filter["is_approved"] = true
	}
	return findPaged[models.Review](ctx, r.collection, filter, params)
}

func (r *reviewRepository) ListPending(ctx context.Context, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	return findPaged[models.Review](ctx, r.collection, bson.M{"is_approved": false}, params)
}

func (r *reviewRepository) Approve(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_approved": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return mapError(err, "approve review")
	}
	return matchedOrNotFound(res)
}

func (r *reviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err, "delete review")
	}
	if res.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *reviewRepository) RatingSummary(ctx context.Context, productID primitive.ObjectID) (float64, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID, "is_approved": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, mapError(err, "aggregate ratings")
	}
	defer cursor.Close(ctx)

	var result struct {
		Avg   float64 `bson:"avg"`
		Count int     `bson:"count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, 0, mapError(err, "decode ratings")
		}
	}
	return result.Avg, result.Count, cursor.Err()
}
