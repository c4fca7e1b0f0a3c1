package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collections groups the storefront's MongoDB collections.
type Collections struct {
	Client      *mongo.Client
	Products    *mongo.Collection
	Users       *mongo.Collection
	Orders      *mongo.Collection
	Settings    *mongo.Collection
	Idempotency *mongo.Collection
}

// Connect dials MongoDB and pings the primary before returning.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Collections, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	d := client.Database(database)
	return &Collections{
		Client:      client,
		Products:    d.Collection("products"),
		Users:       d.Collection("users"),
		Orders:      d.Collection("orders"),
		Settings:    d.Collection("settings"),
		Idempotency: d.Collection("idempotency"),
	}, nil
}

// EnsureIndexes creates the indexes the stores rely on. It is safe to run on every start.
func (c *Collections) EnsureIndexes(ctx context.Context) error {
	specs := map[*mongo.Collection][]mongo.IndexModel{
		c.Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_email")},
		},
		c.Products: {
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subCategory", Value: 1}}, Options: options.Index().SetName("category")},
			{Keys: bson.D{{Key: "isFeatured", Value: 1}}, Options: options.Index().SetName("featured")},
		},
		c.Orders: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("user_created")},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("created")},
		},
		c.Idempotency: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_key")},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at")},
		},
	}
	for coll, idxs := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, idxs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (c *Collections) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
