// Package store is the record store adapter: a thin CRUD contract over named document
// collections, with a MongoDB implementation and an in-memory one.
package store

import (
	"context"
	"errors"
)

const (
	CollectionRequisitions = "requisicoes"
	CollectionWarehouse    = "almoxarifado"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// Cursor is a lazy, forward-only sequence of documents shaped like *mongo.Cursor.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
	Close(ctx context.Context) error
}

// Store is scoped per call to a collection name. Ids are the store's own identifiers
// (hex ObjectIDs), never business numbers.
type Store interface {
	Create(ctx context.Context, collection string, record interface{}) (string, error)
	ListAll(ctx context.Context, collection string) (Cursor, error)
	FindByField(ctx context.Context, collection, field string, value interface{}) (Cursor, error)
	UpdateField(ctx context.Context, collection, id, field string, value interface{}) error
	Delete(ctx context.Context, collection, id string) error
	// UpdateManyByField sets field on every record whose matchField equals matchValue,
	// in a single write, and returns the number of records matched.
	UpdateManyByField(ctx context.Context, collection, matchField string, matchValue interface{}, field string, value interface{}) (int, error)
	// DeleteManyByField removes every record whose field equals value in a single write.
	DeleteManyByField(ctx context.Context, collection, field string, value interface{}) (int, error)
}

// All drains and closes the cursor. The result is never nil.
func All[T any](ctx context.Context, cur Cursor) ([]T, error) {
	defer cur.Close(ctx)

	out := []T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
