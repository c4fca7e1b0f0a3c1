package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment methods offered at checkout.
const (
	PaymentBKash          = "bKash"
	PaymentNagad          = "Nagad"
	PaymentSSLCommerz     = "SSLCommerz"
	PaymentCashOnDelivery = "Cash on Delivery"
)

var PaymentMethods = []string{PaymentBKash, PaymentNagad, PaymentSSLCommerz, PaymentCashOnDelivery}

func ValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

type ShippingAddress struct {
	Address    string `json:"address" bson:"address" validate:"required"`
	City       string `json:"city" bson:"city" validate:"required"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required"`
	Country    string `json:"country" bson:"country" validate:"required"`
}

func (a ShippingAddress) IsZero() bool {
	return a == ShippingAddress{}
}

// OrderItem is a snapshot of a product at checkout time. Later catalog edits do not
// touch it.
type OrderItem struct {
	Product primitive.ObjectID `json:"product" bson:"product"`
	Name    string             `json:"name" bson:"name"`
	Image   string             `json:"image" bson:"image"`
	Size    string             `json:"size,omitempty" bson:"size,omitempty"`
	Price   int64              `json:"price" bson:"price"`
	Qty     int                `json:"qty" bson:"qty"`
}

type PaymentResult struct {
	ID           string `json:"id" bson:"id"`
	Status       string `json:"status" bson:"status"`
	UpdateTime   string `json:"update_time" bson:"update_time"`
	EmailAddress string `json:"email_address" bson:"email_address"`
}

// PricingSnapshot records the commerce parameters an order was priced with, so the
// breakdown can be re-derived after the settings change.
type PricingSnapshot struct {
	FreeShippingThreshold int64   `json:"freeShippingThreshold" bson:"freeShippingThreshold"`
	ShippingFee           int64   `json:"shippingFee" bson:"shippingFee"`
	TaxRate               float64 `json:"taxRate" bson:"taxRate"`
}

// Order prices are fixed at creation: TotalPrice = ItemsPrice + ShippingPrice + TaxPrice.
type Order struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User            primitive.ObjectID `json:"user" bson:"user"`
	OrderItems      []OrderItem        `json:"orderItems" bson:"orderItems"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" bson:"paymentMethod"`
	PaymentResult   *PaymentResult     `json:"paymentResult,omitempty" bson:"paymentResult,omitempty"`
	Pricing         PricingSnapshot    `json:"pricing" bson:"pricing"`
	ItemsPrice      float64            `json:"itemsPrice" bson:"itemsPrice"`
	ShippingPrice   float64            `json:"shippingPrice" bson:"shippingPrice"`
	TaxPrice        float64            `json:"taxPrice" bson:"taxPrice"`
	TotalPrice      float64            `json:"totalPrice" bson:"totalPrice"`
	IsPaid          bool               `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	IsDelivered     bool               `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt     *time.Time         `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}
