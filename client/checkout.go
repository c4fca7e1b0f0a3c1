package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"babumoshai/idempotency"
	"babumoshai/models"
	"babumoshai/orders"
	"babumoshai/pricing"
)

var ErrEmptyCart = errors.New("cart is empty")

// Preview prices the session's cart with the store's current settings.
func (c *Client) Preview(ctx context.Context, s *Session) (pricing.Summary, error) {
	st, err := c.Settings(ctx)
	if err != nil {
		return pricing.Summary{}, err
	}
	return pricing.Calculate(pricing.LinesFromCart(s.Cart.Lines()), pricing.ParamsFromSettings(st)).Summary(), nil
}

func placeOrderInput(s *Session, addr models.ShippingAddress, method string, sum pricing.Summary) orders.PlaceOrderInput {
	lines := s.Cart.Lines()
	in := orders.PlaceOrderInput{
		OrderItems:      make([]orders.PlaceOrderItem, 0, len(lines)),
		ShippingAddress: addr,
		PaymentMethod:   method,
		ItemsPrice:      &sum.ItemsPrice,
		ShippingPrice:   &sum.ShippingPrice,
		TaxPrice:        &sum.TaxPrice,
		TotalPrice:      &sum.TotalPrice,
	}
	for _, l := range lines {
		in.OrderItems = append(in.OrderItems, orders.PlaceOrderItem{Product: l.ProductID, Qty: l.Quantity, Size: l.Size})
	}
	return in
}

// idempotencyKey returns the key for body. Retrying an unchanged submission reuses the
// previous key so the server can answer with the order it already created.
func (s *Session) idempotencyKey(body []byte) string {
	sum := sha256.Sum256(body)
	hash := hex.EncodeToString(sum[:])
	if s.pending == nil || s.pending.Hash != hash {
		s.pending = &pendingCheckout{Key: uuid.NewString(), Hash: hash}
	}
	return s.pending.Key
}

// Checkout submits the cart as an order. It sends exactly one request and never retries
// by itself. The cart is cleared only when the server confirms the order. After a network
// error or 5xx the outcome is unknown, so the next attempt with the same cart reuses the
// key; a 4xx is final and the next attempt starts over.
func (c *Client) Checkout(ctx context.Context, s *Session, addr models.ShippingAddress, method string) (models.Order, error) {
	if s.Cart.IsEmpty() {
		return models.Order{}, ErrEmptyCart
	}
	if !s.LoggedIn() {
		return models.Order{}, &LoginRequiredError{Redirect: "checkout"}
	}

	sum, err := c.Preview(ctx, s)
	if err != nil {
		return models.Order{}, fmt.Errorf("price preview: %w", err)
	}
	in := placeOrderInput(s, addr, method, sum)
	body, err := json.Marshal(in)
	if err != nil {
		return models.Order{}, fmt.Errorf("marshaling order: %w", err)
	}
	s.Cart.SetShippingAddress(addr)
	s.Cart.SetPaymentMethod(method)

	var o models.Order
	err = c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/api/orders",
		body:    json.RawMessage(body),
		token:   s.UserInfo.Token,
		headers: map[string]string{idempotency.Header: s.idempotencyKey(body)},
	}, &o)
	if err != nil {
		if status := StatusOf(err); status != 0 && status < http.StatusInternalServerError {
			s.pending = nil
		}
		return models.Order{}, err
	}

	s.Cart.Clear()
	s.pending = nil
	return o, nil
}
