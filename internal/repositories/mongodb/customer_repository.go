package mongodb

import (
	"context"
	"time"

	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type customerRepository struct {
	collection *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) interfaces.CustomerRepository {
	return &customerRepository{
		collection: db.Collection(database.CollectionCustomers),
	}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	now := time.Now()
	customer.ID = primitive.NewObjectID()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, customer)
	return mapError(err, "create customer")
}

func (r *customerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&customer); err != nil {
		return nil, mapError(err, "get customer")
	}
	return &customer, nil
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.collection.FindOne(ctx, bson.M{"phone": phone}).Decode(&customer); err != nil {
		return nil, mapError(err, "get customer by phone")
	}
	return &customer, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": customer.ID}, bson.M{"$set": bson.M{
		"name":       customer.Name,
		"email":      customer.Email,
		"is_admin":   customer.IsAdmin,
		"updated_at": customer.UpdatedAt,
	}})
	if err != nil {
		return mapError(err, "update customer")
	}
	return matchedOrNotFound(res)
}

func (r *customerRepository) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_login_at": at, "updated_at": at},
	})
	if err != nil {
		return mapError(err, "record customer login")
	}
	return matchedOrNotFound(res)
}

type addressRepository struct {
	collection *mongo.Collection
}

func NewAddressRepository(db *mongo.Database) interfaces.AddressRepository {
	return &addressRepository{
		collection: db.Collection(database.CollectionAddresses),
	}
}

func (r *addressRepository) Create(ctx context.Context, address *models.Address) error {
	now := time.Now()
	address.ID = primitive.NewObjectID()
	address.CreatedAt = now
	address.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, address)
	return mapError(err, "create address")
}

func (r *addressRepository) GetByID(ctx context.Context, customerID, id primitive.ObjectID) (*models.Address, error) {
	var address models.Address
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "customer_id": customerID}).Decode(&address)
	if err != nil {
		return nil, mapError(err, "get address")
	}
	return &address, nil
}

func (r *addressRepository) ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*models.Address, error) {
	opts := options.Find().SetSort(bson.D{{Key: "is_default", Value: -1}, {Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, mapError(err, "list addresses")
	}
	defer cursor.Close(ctx)

	addresses := []*models.Address{}
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, mapError(err, "decode addresses")
	}
	return addresses, nil
}

func (r *addressRepository) Update(ctx context.Context, address *models.Address) error {
	address.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": address.ID, "customer_id": address.CustomerID}, address)
	if err != nil {
		return mapError(err, "update address")
	}
	return matchedOrNotFound(res)
}

func (r *addressRepository) Delete(ctx context.Context, customerID, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "customer_id": customerID})
	if err != nil {
		return mapError(err, "delete address")
	}
	if res.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *addressRepository) ClearDefault(ctx context.Context, customerID, keepID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"customer_id": customerID, "_id": bson.M{"$ne": keepID}, "is_default": true},
		bson.M{"$set": bson.M{"is_default": false, "updated_at": time.Now()}},
	)
	return mapError(err, "clear default address")
}
