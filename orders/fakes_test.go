package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"babumoshai/apperr"
	"babumoshai/models"
	"babumoshai/mq"
	"babumoshai/pricing"
)

type memOrders struct {
	mu        sync.Mutex
	orders    map[string]models.Order
	failWrite bool
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]models.Order{}}
}

func (m *memOrders) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errors.New("write failed")
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	m.orders[o.ID.Hex()] = *o
	return nil
}

func (m *memOrders) Get(_ context.Context, id string) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *memOrders) list(pred func(models.Order) bool) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if pred(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memOrders) ListAll(context.Context) ([]models.Order, error) {
	return m.list(func(models.Order) bool { return true }), nil
}

func (m *memOrders) ListByUser(_ context.Context, uid primitive.ObjectID) ([]models.Order, error) {
	return m.list(func(o models.Order) bool { return o.User == uid }), nil
}

func (m *memOrders) MarkDelivered(_ context.Context, id string, at time.Time) (models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, false, ErrNotFound
	}
	if o.IsDelivered {
		return o, false, nil
	}
	o.IsDelivered, o.DeliveredAt = true, &at
	m.orders[id] = o
	return o, true, nil
}

func (m *memOrders) MarkPaid(_ context.Context, id string, at time.Time, res *models.PaymentResult) (models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, false, ErrNotFound
	}
	if o.IsPaid {
		return o, false, nil
	}
	o.IsPaid, o.PaidAt = true, &at
	if res != nil {
		o.PaymentResult = res
	}
	m.orders[id] = o
	return o, true, nil
}

type memCatalog struct {
	mu       sync.Mutex
	products map[string]models.Product
}

func newMemCatalog(ps ...models.Product) *memCatalog {
	c := &memCatalog{products: map[string]models.Product{}}
	for _, p := range ps {
		c.products[p.ID.Hex()] = p
	}
	return c
}

func (c *memCatalog) Get(_ context.Context, id string) (models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return models.Product{}, apperr.NotFound("Product not found")
	}
	return p, nil
}

func (c *memCatalog) stock(id primitive.ObjectID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[id.Hex()].Stock
}

func (c *memCatalog) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id.Hex()]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	c.products[id.Hex()] = p
	return true, nil
}

func (c *memCatalog) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.products[id.Hex()]
	p.Stock += qty
	c.products[id.Hex()] = p
	return nil
}

type fixedPricing struct {
	mu sync.Mutex
	p  pricing.Params
}

func (f *fixedPricing) Pricing(context.Context) (pricing.Params, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.p, nil
}

type cartSpy struct {
	mu      sync.Mutex
	cleared []string
}

func (c *cartSpy) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = append(c.cleared, userID)
	return nil
}

type eventSpy struct {
	mu     sync.Mutex
	events []mq.Event
}

func (e *eventSpy) Publish(_ context.Context, ev mq.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *eventSpy) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}
