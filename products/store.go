package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"babumoshai/apperr"
	"babumoshai/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = apperr.NotFound("Product not found")

// Page is one page of a catalog listing.
type Page struct {
	Products []models.Product `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

// Update carries a partial product edit. Nil fields are left unchanged.
type Update struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price" validate:"omitnil,gt=0"`
	Category    *string   `json:"category"`
	SubCategory *string   `json:"subCategory"`
	Fabric      *string   `json:"fabric"`
	Occasion    *string   `json:"occasion"`
	Sizes       *[]string `json:"sizes"`
	Colors      *[]string `json:"colors"`
	Images      *[]string `json:"images"`
	Stock       *int      `json:"stock" validate:"omitnil,gte=0"`
	IsFeatured  *bool     `json:"isFeatured"`
}

func (u Update) set() bson.M {
	s := bson.M{}
	put := func(k string, v any, ok bool) {
		if ok {
			s[k] = v
		}
	}
	put("name", deref(u.Name), u.Name != nil)
	put("description", deref(u.Description), u.Description != nil)
	put("price", deref(u.Price), u.Price != nil)
	put("category", deref(u.Category), u.Category != nil)
	put("subCategory", deref(u.SubCategory), u.SubCategory != nil)
	put("fabric", deref(u.Fabric), u.Fabric != nil)
	put("occasion", deref(u.Occasion), u.Occasion != nil)
	put("sizes", deref(u.Sizes), u.Sizes != nil)
	put("colors", deref(u.Colors), u.Colors != nil)
	put("images", deref(u.Images), u.Images != nil)
	put("stock", deref(u.Stock), u.Stock != nil)
	put("isFeatured", deref(u.IsFeatured), u.IsFeatured != nil)
	return s
}

// Apply copies the set fields onto p.
func (u Update) Apply(p *models.Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.SubCategory != nil {
		p.SubCategory = *u.SubCategory
	}
	if u.Fabric != nil {
		p.Fabric = *u.Fabric
	}
	if u.Occasion != nil {
		p.Occasion = *u.Occasion
	}
	if u.Sizes != nil {
		p.Sizes = *u.Sizes
	}
	if u.Colors != nil {
		p.Colors = *u.Colors
	}
	if u.Images != nil {
		p.Images = *u.Images
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.IsFeatured != nil {
		p.IsFeatured = *u.IsFeatured
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Store is the catalog. DecrementStock only succeeds when enough stock remains, which
// keeps concurrent checkouts from overselling.
type Store interface {
	List(ctx context.Context, f Filter, page int) (Page, error)
	Get(ctx context.Context, id string) (models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id string, u Update) (models.Product, error)
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) List(ctx context.Context, f Filter, page int) (Page, error) {
	filter := f.BSON()
	count, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(PageSize * (page - 1))).
		SetLimit(PageSize)
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return Page{}, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return Page{}, fmt.Errorf("decode products: %w", err)
	}
	return Page{Products: products, Page: page, Pages: Pages(count)}, nil
}

// Get treats a malformed id as not found.
func (s *MongoStore) Get(ctx context.Context, id string) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, ErrNotFound
	}
	var p models.Product
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *MongoStore) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, id string, u Update) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, ErrNotFound
	}
	set := u.set()
	set["updatedAt"] = time.Now().UTC()

	var p models.Product
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock reports false when the product is missing or has fewer than qty left.
func (s *MongoStore) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock": qty}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}
