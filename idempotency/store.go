package idempotency

import (
	"context"
	"errors"
	"fmt"

	"babumoshai/db"
	"babumoshai/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store keeps one record per scoped key. The unique index on key and the TTL index on
// expires_at are created by db.EnsureIndexes.
type Store interface {
	// Reserve inserts rec. If the key is taken it returns the existing record instead.
	Reserve(ctx context.Context, rec models.IdempotencyRecord) (*models.IdempotencyRecord, error)
	Complete(ctx context.Context, key string, status int, contentType string, body []byte) error
	// Release forgets a key so the request can be retried.
	Release(ctx context.Context, key string) error
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Reserve(ctx context.Context, rec models.IdempotencyRecord) (*models.IdempotencyRecord, error) {
	_, err := s.coll.InsertOne(ctx, rec)
	if err == nil {
		return nil, nil
	}
	if !db.IsDuplicateKey(err) {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}

	var existing models.IdempotencyRecord
	err = s.coll.FindOne(ctx, bson.M{"key": rec.Key}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// expired or released between the insert and the lookup
		return s.Reserve(ctx, rec)
	}
	if err != nil {
		return nil, fmt.Errorf("load idempotency record: %w", err)
	}
	return &existing, nil
}

func (s *MongoStore) Complete(ctx context.Context, key string, status int, contentType string, body []byte) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": bson.M{
		"completed":    true,
		"status":       status,
		"content_type": contentType,
		"body":         body,
	}})
	if err != nil {
		return fmt.Errorf("complete idempotency record: %w", err)
	}
	return nil
}

func (s *MongoStore) Release(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"key": key}); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
