package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. Price is in whole currency units (taka).
type Product struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Price       int64              `json:"price" bson:"price"`
	Category    string             `json:"category" bson:"category"`
	SubCategory string             `json:"subCategory,omitempty" bson:"subCategory,omitempty"` // e.g. Formal, Casual
	Fabric      string             `json:"fabric,omitempty" bson:"fabric,omitempty"`
	Occasion    string             `json:"occasion,omitempty" bson:"occasion,omitempty"`
	Sizes       []string           `json:"sizes" bson:"sizes"` // e.g. S, M, L, XL
	Colors      []string           `json:"colors" bson:"colors"`
	Images      []string           `json:"images" bson:"images"`
	Stock       int                `json:"stock" bson:"stock"`
	IsFeatured  bool               `json:"isFeatured" bson:"isFeatured"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// OffersSize reports whether size can be ordered. Products without a size list
// are one-size and accept only the empty size.
func (p Product) OffersSize(size string) bool {
	if len(p.Sizes) == 0 {
		return size == ""
	}
	return slices.Contains(p.Sizes, size)
}

// MainImage returns the first image or "".
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
