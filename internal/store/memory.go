package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps BSON-encoded documents in process. Documents go through the same
// codec as MongoStore, so decoded records look exactly like the ones read from MongoDB.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]memoryDoc
}

type memoryDoc struct {
	id  primitive.ObjectID
	raw bson.Raw
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]memoryDoc)}
}

func (s *MemoryStore) Create(ctx context.Context, collection string, record interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	encoded, err := bson.Marshal(record)
	if err != nil {
		return "", err
	}
	var doc bson.D
	if err := bson.Unmarshal(encoded, &doc); err != nil {
		return "", err
	}

	// Giống driver: _id luôn là phần tử đầu tiên.
	id := primitive.NewObjectID()
	rest := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key == "_id" {
			if oid, ok := e.Value.(primitive.ObjectID); ok && !oid.IsZero() {
				id = oid
			}
			continue
		}
		rest = append(rest, e)
	}
	raw, err := bson.Marshal(append(bson.D{{Key: "_id", Value: id}}, rest...))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.collections[collection] {
		if d.id == id {
			return "", fmt.Errorf("duplicate _id %s in %s", id.Hex(), collection)
		}
	}
	s.collections[collection] = append(s.collections[collection], memoryDoc{id: id, raw: raw})
	return id.Hex(), nil
}

func (s *MemoryStore) ListAll(ctx context.Context, collection string) (Cursor, error) {
	return s.find(ctx, collection, func(bson.Raw) bool { return true })
}

// FindByField compares the encoded BSON value, so the value must have the same BSON type
// as the stored field. Dotted fields address embedded documents.
func (s *MemoryStore) FindByField(ctx context.Context, collection, field string, value interface{}) (Cursor, error) {
	match, err := fieldMatcher(field, value)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, collection, match)
}

func fieldMatcher(field string, value interface{}) (func(bson.Raw) bool, error) {
	t, data, err := bson.MarshalValue(value)
	if err != nil {
		return nil, err
	}
	want := bson.RawValue{Type: t, Value: data}
	path := strings.Split(field, ".")

	return func(raw bson.Raw) bool {
		got, err := raw.LookupErr(path...)
		return err == nil && got.Equal(want)
	}, nil
}

func (s *MemoryStore) find(ctx context.Context, collection string, match func(bson.Raw) bool) (Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []bson.Raw
	for _, d := range s.collections[collection] {
		if match(d.raw) {
			docs = append(docs, d.raw)
		}
	}
	return &memoryCursor{docs: docs}, nil
}

func (s *MemoryStore) UpdateField(ctx context.Context, collection, id, field string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	for i := range docs {
		if docs[i].id != oid {
			continue
		}
		raw, err := setField(docs[i].raw, field, value)
		if err != nil {
			return err
		}
		docs[i].raw = raw
		return nil
	}
	return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	for i := range docs {
		if docs[i].id == oid {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
}

// UpdateManyByField builds every replacement document before committing any of them.
func (s *MemoryStore) UpdateManyByField(ctx context.Context, collection, matchField string, matchValue interface{}, field string, value interface{}) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	match, err := fieldMatcher(matchField, matchValue)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	updated := make(map[int]bson.Raw)
	for i := range docs {
		if !match(docs[i].raw) {
			continue
		}
		raw, err := setField(docs[i].raw, field, value)
		if err != nil {
			return 0, err
		}
		updated[i] = raw
	}
	for i, raw := range updated {
		docs[i].raw = raw
	}
	return len(updated), nil
}

func (s *MemoryStore) DeleteManyByField(ctx context.Context, collection, field string, value interface{}) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	match, err := fieldMatcher(field, value)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	kept := make([]memoryDoc, 0, len(docs))
	for _, d := range docs {
		if !match(d.raw) {
			kept = append(kept, d)
		}
	}
	s.collections[collection] = kept
	return len(docs) - len(kept), nil
}

// setField giữ nguyên thứ tự các trường; trường chưa có sẽ được thêm vào cuối.
func setField(raw bson.Raw, field string, value interface{}) (bson.Raw, error) {
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	replaced := false
	for j := range doc {
		if doc[j].Key == field {
			doc[j].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		doc = append(doc, bson.E{Key: field, Value: value})
	}
	return bson.Marshal(doc)
}

// Raw returns the stored document bytes for id.
func (s *MemoryStore) Raw(collection, id string) (bson.Raw, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.collections[collection] {
		if d.id == oid {
			return d.raw, true
		}
	}
	return nil, false
}

// Count returns the number of documents in collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

type memoryCursor struct {
	docs    []bson.Raw
	pos     int
	current bson.Raw
	err     error
}

func (c *memoryCursor) Next(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		c.err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		return false
	}
	if c.pos >= len(c.docs) {
		return false
	}
	c.current = c.docs[c.pos]
	c.pos++
	return true
}

func (c *memoryCursor) Decode(val interface{}) error {
	if c.current == nil {
		return fmt.Errorf("cursor is not positioned on a document")
	}
	return bson.Unmarshal(c.current, val)
}

func (c *memoryCursor) Err() error { return c.err }

func (c *memoryCursor) Close(context.Context) error { return nil }
