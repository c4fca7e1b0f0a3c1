package models

import "time"

// IdempotencyRecord represents an idempotency key record stored in Mongo.
type IdempotencyRecord struct {
	Key         string    `bson:"key" json:"key"`
	Method      string    `bson:"method" json:"method"`
	Path        string    `bson:"path" json:"path"`
	UserID      string    `bson:"userid" json:"userid"`
	RequestHash string    `bson:"request_hash" json:"request_hash"`
	Completed   bool      `bson:"completed" json:"completed"`
	Status      int       `bson:"status,omitempty" json:"status,omitempty"`
	ContentType string    `bson:"content_type,omitempty" json:"content_type,omitempty"`
	Body        []byte    `bson:"body,omitempty" json:"-"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expires_at"`
}
