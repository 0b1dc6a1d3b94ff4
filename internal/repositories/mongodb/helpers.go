package mongodb

import (
	"context"
	"errors"
	"fmt"

	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// findPaged runs a paginated Find and a matching count.
func findPaged[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, params *utils.PaginationParams) ([]*T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", coll.Name(), err)
	}

	cursor, err := coll.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	items := make([]*T, 0, params.GetLimit())
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, 0, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
		}
		items = append(items, &item)
	}

	return items, total, cursor.Err()
}

// mapError converts driver errors into repository sentinels.
func mapError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return interfaces.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return interfaces.ErrDuplicate
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func matchedOrNotFound(res *mongo.UpdateResult) error {
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
