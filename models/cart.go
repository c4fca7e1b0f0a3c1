package models

// CartLine is one cart entry. Name, image, price and stock are snapshots taken when the
// line was added.
type CartLine struct {
	ProductID    string `json:"product" bson:"product"`
	Name         string `json:"name" bson:"name"`
	Image        string `json:"image" bson:"image"`
	Price        int64  `json:"price" bson:"price"`
	CountInStock int    `json:"countInStock" bson:"countInStock"`
	Quantity     int    `json:"quantity" bson:"quantity"`
	Size         string `json:"size,omitempty" bson:"size,omitempty"`
}
