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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) interfaces.ProductRepository {
	return &productRepository{
		collection: db.Collection(database.CollectionProducts),
	}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	for i := range product.Variants {
		if product.Variants[i].ID.IsZero() {
			product.Variants[i].ID = primitive.NewObjectID()
		}
	}

	_, err := r.collection.InsertOne(ctx, product)
	return mapError(err, "create product")
}

func (r *productRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		return nil, mapError(err, "get product")
	}
	return &product, nil
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&product)
	if err != nil {
		return nil, mapError(err, "get product by slug")
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter models.ProductFilter, params *utils.PaginationParams) ([]*models.Product, int64, error) {
	query := params.GetSearchFilter([]string{"name", "description"})
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.ActiveOnly {
		query["is_active"] = true
	}

	return findPaged[models.Product](ctx, r.collection, query, params)
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return mapError(err, "update product")
	}
	return matchedOrNotFound(res)
}

func (r *productRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now()}},
	)
	if err != nil {
		return mapError(err, "update product status")
	}
	return matchedOrNotFound(res)
}

func (r *productRepository) DecrementStock(ctx context.Context, productID, variantID primitive.ObjectID, qty int) error {
	filter := bson.M{
		"_id": productID,
		"variants": bson.M{"$elemMatch": bson.M{
			"_id":            variantID,
			"stock_quantity": bson.M{"$gte": qty},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"variants.$[v].stock_quantity": -qty},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"v._id": variantID}},
	})

	res, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return mapError(err, "decrement stock")
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrInsufficientStock
	}
	return nil
}

func (r *productRepository) IncrementStock(ctx context.Context, productID, variantID primitive.ObjectID, qty int) error {
	update := bson.M{
		"$inc": bson.M{"variants.$[v].stock_quantity": qty},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"v._id": variantID}},
	})

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": productID, "variants._id": variantID}, update, opts)
	if err != nil {
		return mapError(err, "increment stock")
	}
	return matchedOrNotFound(res)
}

func (r *productRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, avg float64, count int) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"rating_avg": avg, "rating_count": count}},
	)
	if err != nil {
		return mapError(err, "update product rating")
	}
	return matchedOrNotFound(res)
}
