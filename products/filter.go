package products

import (
	"net/url"
	"regexp"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
)

const PageSize = 10

// Filter narrows a catalog listing. Empty fields are ignored.
type Filter struct {
	Keyword     string
	Category    string
	SubCategory string
	Size        string
	Fabric      string
	Occasion    string
	Featured    *bool
}

// FilterFromQuery reads the listing query string and the 1-based page number.
// Missing or invalid page numbers mean page 1.
func FilterFromQuery(q url.Values) (Filter, int) {
	f := Filter{
		Keyword:     q.Get("keyword"),
		Category:    q.Get("category"),
		SubCategory: q.Get("subCategory"),
		Size:        q.Get("size"),
		Fabric:      q.Get("fabric"),
		Occasion:    q.Get("occasion"),
	}
	if v, err := strconv.ParseBool(q.Get("featured")); err == nil {
		f.Featured = &v
	}
	page, err := strconv.Atoi(q.Get("pageNumber"))
	if err != nil || page < 1 {
		page = 1
	}
	return f, page
}

// BSON builds the Mongo filter. The keyword is matched literally, case-insensitively,
// anywhere in the name.
func (f Filter) BSON() bson.M {
	m := bson.M{}
	if f.Keyword != "" {
		m["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Keyword), "$options": "i"}
	}
	if f.Category != "" {
		m["category"] = f.Category
	}
	if f.SubCategory != "" {
		m["subCategory"] = f.SubCategory
	}
	if f.Fabric != "" {
		m["fabric"] = f.Fabric
	}
	if f.Occasion != "" {
		m["occasion"] = f.Occasion
	}
	if f.Size != "" {
		m["sizes"] = bson.M{"$in": []string{f.Size}}
	}
	if f.Featured != nil {
		m["isFeatured"] = *f.Featured
	}
	return m
}

// Pages is the number of pages needed for count products.
func Pages(count int64) int {
	return int((count + PageSize - 1) / PageSize)
}
