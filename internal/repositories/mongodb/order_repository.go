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

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) interfaces.OrderRepository {
	return &orderRepository{
		collection: db.Collection(database.CollectionOrders),
	}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, order)
	return mapError(err, "create order")
}

func (r *orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, mapError(err, "get order")
	}
	return &order, nil
}

func (r *orderRepository) GetByTransactionID(ctx context.Context, provider, transactionID string) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{
		"payment.provider":       provider,
		"payment.transaction_id": transactionID,
	}).Decode(&order)
	if err != nil {
		return nil, mapError(err, "get order by transaction")
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	query := params.GetSearchFilter([]string{"order_number"})
	if filter.CustomerID != nil {
		query["customer_id"] = *filter.CustomerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	return findPaged[models.Order](ctx, r.collection, query, params)
}

func (r *orderRepository) Transition(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, payment *models.OrderPayment) error {
	now := time.Now()
	set := bson.M{"status": to, "updated_at": now}
	if to == models.OrderStatusCancelled {
		set["cancelled_at"] = now
	}
	if payment != nil {
		set["payment"] = payment
	}
	update := bson.M{"$set": set}
	if from == models.OrderStatusCancelled {
		update["$unset"] = bson.M{"cancelled_at": ""}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, update)
	if err != nil {
		return mapError(err, "update order status")
	}
	if res.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return mapError(err, "check order")
		}
		if count == 0 {
			return interfaces.ErrNotFound
		}
		return interfaces.ErrConflict
	}
	return nil
}

func (r *orderRepository) UpdatePayment(ctx context.Context, id primitive.ObjectID, payment models.OrderPayment) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment": payment, "updated_at": time.Now()}},
	)
	if err != nil {
		return mapError(err, "update order payment")
	}
	return matchedOrNotFound(res)
}
