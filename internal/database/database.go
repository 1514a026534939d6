// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"time"

	"requisition-form-api-server/config"
	"requisition-form-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect mở kết nối MongoDB và ping để chắc chắn server sẵn sàng.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}
	return client, nil
}

// EnsureIndexes tạo các index cần thiết. requestNumber is unique per collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	requisitions := db.Collection(store.CollectionRequisitions)
	_, err := requisitions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "requestNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_requestNumber"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("idx_createdAt"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create requisition indexes: %w", err)
	}

	warehouse := db.Collection(store.CollectionWarehouse)
	_, err = warehouse.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("idx_createdAt"),
	})
	if err != nil {
		return fmt.Errorf("failed to create warehouse indexes: %w", err)
	}
	return nil
}
