// Package cart holds a shopper's pending purchase: lines, the shipping address and the
// chosen payment method.
package cart

import (
	"encoding/json"
	"errors"

	"babumoshai/models"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("quantity exceeds available stock")
	ErrLineNotFound      = errors.New("item not in cart")
	ErrMissingProduct    = errors.New("product is required")
)

// Cart is not safe for concurrent use. Lines are unique by (product, size) and keep the
// order they were first added in.
type Cart struct {
	lines           []models.CartLine
	shippingAddress models.ShippingAddress
	paymentMethod   string
}

func New() *Cart {
	return &Cart{}
}

// Add puts line in the cart. If the product is already there in the same size its
// quantity is replaced, not summed.
func (c *Cart) Add(line models.CartLine) error {
	if line.ProductID == "" {
		return ErrMissingProduct
	}
	if err := checkQuantity(line.Quantity, line.CountInStock); err != nil {
		return err
	}
	if i := c.index(line.ProductID, line.Size); i >= 0 {
		c.lines[i] = line
		return nil
	}
	c.lines = append(c.lines, line)
	return nil
}

func (c *Cart) UpdateQuantity(productID, size string, qty int) error {
	i := c.index(productID, size)
	if i < 0 {
		return ErrLineNotFound
	}
	if err := checkQuantity(qty, c.lines[i].CountInStock); err != nil {
		return err
	}
	c.lines[i].Quantity = qty
	return nil
}

// Remove drops one line. A missing line is not an error.
func (c *Cart) Remove(productID, size string) {
	if i := c.index(productID, size); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// RemoveProduct drops every size of a product.
func (c *Cart) RemoveProduct(productID string) {
	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c.lines = kept
}

// Clear empties the lines. Address and payment method survive for the next checkout.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy.
func (c *Cart) Lines() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// ItemCount is the total quantity across lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, l := range c.lines {
		sum += l.Price * int64(l.Quantity)
	}
	return sum
}

func (c *Cart) ShippingAddress() models.ShippingAddress { return c.shippingAddress }

func (c *Cart) SetShippingAddress(a models.ShippingAddress) { c.shippingAddress = a }

func (c *Cart) PaymentMethod() string { return c.paymentMethod }

func (c *Cart) SetPaymentMethod(m string) { c.paymentMethod = m }

func (c *Cart) index(productID, size string) int {
	for i, l := range c.lines {
		if l.ProductID == productID && l.Size == size {
			return i
		}
	}
	return -1
}

// checkQuantity bounds qty by the stock snapshot. A zero snapshot means stock is unknown.
func checkQuantity(qty, stock int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if stock > 0 && qty > stock {
		return ErrInsufficientStock
	}
	return nil
}

type snapshot struct {
	CartItems       []models.CartLine      `json:"cartItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod,omitempty"`
}

func (c *Cart) snapshot() snapshot {
	return snapshot{CartItems: c.Lines(), ShippingAddress: c.shippingAddress, PaymentMethod: c.paymentMethod}
}

func (c *Cart) Marshal() ([]byte, error) {
	return json.Marshal(c.snapshot())
}

// Unmarshal replaces the cart's contents. Duplicate (product, size) lines collapse to the
// last one seen.
func Unmarshal(data []byte) (*Cart, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	c := &Cart{shippingAddress: s.ShippingAddress, paymentMethod: s.PaymentMethod}
	for _, l := range s.CartItems {
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		if i := c.index(l.ProductID, l.Size); i >= 0 {
			c.lines[i] = l
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c, nil
}

// MarshalJSON lets a Cart be embedded in other JSON documents.
func (c *Cart) MarshalJSON() ([]byte, error) {
	return c.Marshal()
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	nc, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*c = *nc
	return nil
}
