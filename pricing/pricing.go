// Package pricing derives an order's price breakdown from its lines and the store's
// commerce settings. It has no I/O and gives the same answer on client and server.
package pricing

import (
	"github.com/shopspring/decimal"

	"babumoshai/models"
)

// Line is a unit price and quantity.
type Line struct {
	Price    int64
	Quantity int
}

// Params are the commerce parameters checkout prices with. TaxRate is a percentage.
type Params struct {
	FreeShippingThreshold int64
	ShippingFee           int64
	TaxRate               float64
}

// DefaultParams matches models.DefaultSettings.
func DefaultParams() Params {
	return ParamsFromSettings(models.DefaultSettings())
}

func ParamsFromSettings(s models.Settings) Params {
	return Params{
		FreeShippingThreshold: s.FreeShippingThreshold,
		ShippingFee:           s.ShippingFee,
		TaxRate:               s.TaxRate,
	}
}

func ParamsFromSnapshot(s models.PricingSnapshot) Params {
	return Params(s)
}

func (p Params) Snapshot() models.PricingSnapshot {
	return models.PricingSnapshot(p)
}

// Breakdown holds exact amounts. Use Summary for the float view stored on orders.
type Breakdown struct {
	Items    decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Summary is the persisted and wire form of a Breakdown.
type Summary struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// Calculate prices lines. Shipping is free only when the items total is strictly
// above the threshold. Tax is rounded half away from zero to 2 decimal places.
func Calculate(lines []Line, p Params) Breakdown {
	items := decimal.Zero
	for _, l := range lines {
		items = items.Add(decimal.NewFromInt(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	shipping := decimal.NewFromInt(p.ShippingFee)
	if items.GreaterThan(decimal.NewFromInt(p.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	tax := items.Mul(decimal.NewFromFloat(p.TaxRate)).Div(decimal.NewFromInt(100)).Round(2)

	return Breakdown{
		Items:    items,
		Shipping: shipping,
		Tax:      tax,
		Total:    items.Add(shipping).Add(tax),
	}
}

func (b Breakdown) Summary() Summary {
	return Summary{
		ItemsPrice:    b.Items.InexactFloat64(),
		ShippingPrice: b.Shipping.InexactFloat64(),
		TaxPrice:      b.Tax.InexactFloat64(),
		TotalPrice:    b.Total.InexactFloat64(),
	}
}

// Matches reports whether s equals b to the cent.
func (b Breakdown) Matches(s Summary) bool {
	return cents(s.ItemsPrice).Equal(b.Items) &&
		cents(s.ShippingPrice).Equal(b.Shipping) &&
		cents(s.TaxPrice).Equal(b.Tax) &&
		cents(s.TotalPrice).Equal(b.Total)
}

func cents(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// LinesFromCart converts cart lines.
func LinesFromCart(lines []models.CartLine) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{Price: l.Price, Quantity: l.Quantity}
	}
	return out
}

// LinesFromOrder converts order items.
func LinesFromOrder(items []models.OrderItem) []Line {
	out := make([]Line, len(items))
	for i, it := range items {
		out[i] = Line{Price: it.Price, Quantity: it.Qty}
	}
	return out
}

// Audit re-derives an order's breakdown from its items and the parameters it was
// priced with. It returns the recomputed summary and whether the stored prices agree.
func Audit(o models.Order) (Summary, bool) {
	b := Calculate(LinesFromOrder(o.OrderItems), ParamsFromSnapshot(o.Pricing))
	stored := Summary{
		ItemsPrice:    o.ItemsPrice,
		ShippingPrice: o.ShippingPrice,
		TaxPrice:      o.TaxPrice,
		TotalPrice:    o.TotalPrice,
	}
	return b.Summary(), b.Matches(stored)
}
