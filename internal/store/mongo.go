package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	DB *mongo.Database
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{DB: db}
}

func (s *MongoStore) Create(ctx context.Context, collection string, record interface{}) (string, error) {
	result, err := s.DB.Collection(collection).InsertOne(ctx, record)
	if err != nil {
		return "", classify(err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(result.InsertedID), nil
}

// ListAll trả về các document theo thứ tự _id (tức là thứ tự tạo).
func (s *MongoStore) ListAll(ctx context.Context, collection string) (Cursor, error) {
	return s.find(ctx, collection, bson.M{})
}

func (s *MongoStore) FindByField(ctx context.Context, collection, field string, value interface{}) (Cursor, error) {
	return s.find(ctx, collection, bson.M{field: value})
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M) (Cursor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.DB.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, classify(err)
	}
	return mongoCursor{cursor}, nil
}

// mongoCursor routes iteration errors through classify like every other call.
type mongoCursor struct {
	*mongo.Cursor
}

func (c mongoCursor) Err() error {
	if err := c.Cursor.Err(); err != nil {
		return classify(err)
	}
	return nil
}

func (s *MongoStore) UpdateField(ctx context.Context, collection, id, field string, value interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}

	result, err := s.DB.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return classify(err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}

	result, err := s.DB.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return classify(err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

func (s *MongoStore) UpdateManyByField(ctx context.Context, collection, matchField string, matchValue interface{}, field string, value interface{}) (int, error) {
	result, err := s.DB.Collection(collection).UpdateMany(ctx,
		bson.M{matchField: matchValue},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return 0, classify(err)
	}
	return int(result.MatchedCount), nil
}

func (s *MongoStore) DeleteManyByField(ctx context.Context, collection, field string, value interface{}) (int, error) {
	result, err := s.DB.Collection(collection).DeleteMany(ctx, bson.M{field: value})
	if err != nil {
		return 0, classify(err)
	}
	return int(result.DeletedCount), nil
}

// classify maps connection-level driver failures onto ErrStoreUnavailable.
func classify(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
