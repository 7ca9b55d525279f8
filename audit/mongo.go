package audit

import (
	"context"
	"fmt"
	"time"

	"food-marketplace-api/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoLog struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoLog(ctx context.Context, cfg *config.MongoDBConfig) (*MongoLog, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoLog{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *MongoLog) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := m.collection.InsertOne(ctx, entry)
	return err
}

// Entries returns the newest entries for an entity, optionally restricted to
// the given actions.
func (m *MongoLog) Entries(ctx context.Context, entityID uint, actions []string, limit int64) ([]Entry, error) {
	filter := bson.M{"entity_id": entityID}
	if len(actions) > 0 {
		filter["action"] = bson.M{"$in": actions}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ Reader = (*MongoLog)(nil)

func (m *MongoLog) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
