package settings

import (
	"context"
	"fmt"
	"time"

	"babumoshai/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds the single site settings document.
type Store interface {
	// GetOrCreate returns the settings, inserting defaults first if there are none.
	GetOrCreate(ctx context.Context) (models.Settings, error)
	// Set applies fields (bson names) and returns the updated document.
	Set(ctx context.Context, fields bson.M) (models.Settings, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// GetOrCreate upserts with $setOnInsert so concurrent first reads create one document.
func (s *MongoStore) GetOrCreate(ctx context.Context) (models.Settings, error) {
	def := models.DefaultSettings()
	now := time.Now().UTC()
	def.CreatedAt, def.UpdatedAt = now, now

	var out models.Settings
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": models.SettingsID},
		bson.M{"$setOnInsert": def},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Set(ctx context.Context, fields bson.M) (models.Settings, error) {
	if _, err := s.GetOrCreate(ctx); err != nil {
		return models.Settings{}, err
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	var out models.Settings
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": models.SettingsID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return models.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	return out, nil
}
