package audit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is where session events are stored.
const CollectionName = "session_events"

// MongoRecorder appends events to a Mongo collection.
type MongoRecorder struct {
	col *mongo.Collection
}

func NewMongoRecorder(col *mongo.Collection) *MongoRecorder {
	return &MongoRecorder{col: col}
}

// EnsureIndexes creates the lookup index on (userId, at). Idempotent.
func (r *MongoRecorder) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "at", Value: -1}},
		Options: options.Index().SetName("user_at"),
	})
	if err != nil {
		return fmt.Errorf("create audit index: %w", err)
	}
	return nil
}

func (r *MongoRecorder) Record(ctx context.Context, e Event) error {
	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

// ListByUser returns the most recent events for a user, newest first.
func (r *MongoRecorder) ListByUser(ctx context.Context, userID string, limit int64) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find session events: %w", err)
	}
	defer cur.Close(ctx)
	var out []Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode session events: %w", err)
	}
	return out, nil
}
