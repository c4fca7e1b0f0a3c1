package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"babumoshai/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("order not found")

// Store persists orders. Prices are written once at creation and never recomputed.
type Store interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	// MarkDelivered and MarkPaid report whether this call changed the order. A repeat
	// call returns the order untouched.
	MarkDelivered(ctx context.Context, id string, at time.Time) (models.Order, bool, error)
	MarkPaid(ctx context.Context, id string, at time.Time, result *models.PaymentResult) (models.Order, bool, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Order{}, ErrNotFound
	}
	var o models.Order
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("find order: %w", err)
	}
	return o, nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.find(ctx, bson.M{"user": userID})
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Order{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return out, nil
}

func (s *MongoStore) MarkDelivered(ctx context.Context, id string, at time.Time) (models.Order, bool, error) {
	return s.transition(ctx, id, "isDelivered", bson.M{"isDelivered": true, "deliveredAt": at, "updatedAt": at})
}

func (s *MongoStore) MarkPaid(ctx context.Context, id string, at time.Time, result *models.PaymentResult) (models.Order, bool, error) {
	set := bson.M{"isPaid": true, "paidAt": at, "updatedAt": at}
	if result != nil {
		set["paymentResult"] = result
	}
	return s.transition(ctx, id, "isPaid", set)
}

// transition applies set only while flag is still false, so the first timestamp wins.
func (s *MongoStore) transition(ctx context.Context, id, flag string, set bson.M) (models.Order, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Order{}, false, ErrNotFound
	}
	var o models.Order
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, flag: false},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, false, fmt.Errorf("update order %s: %w", flag, err)
	}
	o, err = s.Get(ctx, id)
	return o, false, err
}
