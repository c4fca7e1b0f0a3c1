// Package orders places and tracks orders. Prices are computed here from catalog prices
// and the current settings; whatever totals a client sends are only checked.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"babumoshai/apperr"
	"babumoshai/models"
	"babumoshai/mq"
	"babumoshai/pricing"
	"babumoshai/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrEmptyOrder         = errors.New("no order items")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrUnknownPayment     = errors.New("unsupported payment method")
	ErrPriceMismatch      = errors.New("order totals do not match current prices")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrSizeNotOffered     = errors.New("size not available")
	errCatalogUnavailable = errors.New("catalog unavailable")
)

// Catalog is the slice of the product store checkout needs.
type Catalog interface {
	Get(ctx context.Context, id string) (models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

type PricingSource interface {
	Pricing(ctx context.Context) (pricing.Params, error)
}

// CartClearer drops a user's saved cart once their order is placed.
type CartClearer interface {
	Delete(ctx context.Context, userID string) error
}

type PlaceOrderItem struct {
	Product string `json:"product"`
	Qty     int    `json:"qty"`
	Size    string `json:"size"`
}

// PlaceOrderInput is the checkout request. The price fields are optional; when present
// they must agree with the server's own computation.
type PlaceOrderInput struct {
	OrderItems      []PlaceOrderItem       `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      *float64               `json:"itemsPrice,omitempty"`
	ShippingPrice   *float64               `json:"shippingPrice,omitempty"`
	TaxPrice        *float64               `json:"taxPrice,omitempty"`
	TotalPrice      *float64               `json:"totalPrice,omitempty"`
}

type Service struct {
	store   Store
	catalog Catalog
	pricing PricingSource
	carts   CartClearer
	events  mq.Publisher
	log     *zap.Logger
	now     func() time.Time
}

func NewService(store Store, catalog Catalog, ps PricingSource, carts CartClearer, events mq.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, catalog: catalog, pricing: ps, carts: carts, events: events, log: log, now: time.Now}
}

func validate(in PlaceOrderInput) error {
	if len(in.OrderItems) == 0 {
		return apperr.Wrap(apperr.KindValidation, "No order items", ErrEmptyOrder)
	}
	for _, it := range in.OrderItems {
		if it.Product == "" {
			return apperr.Validation("Every order item needs a product")
		}
		if it.Qty < 1 {
			return apperr.Wrap(apperr.KindValidation, "Quantity must be at least 1", ErrInvalidQuantity)
		}
	}
	if err := utils.Validate(in.ShippingAddress); err != nil {
		return err
	}
	if !models.ValidPaymentMethod(in.PaymentMethod) {
		return apperr.Wrap(apperr.KindValidation, "Unsupported payment method", ErrUnknownPayment)
	}
	return nil
}

// claimed fills the fields the client left out with the computed ones, so only what
// the client actually sent is compared.
func claimed(in PlaceOrderInput, computed pricing.Summary) (pricing.Summary, bool) {
	s := computed
	sent := false
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{in.ItemsPrice, &s.ItemsPrice},
		{in.ShippingPrice, &s.ShippingPrice},
		{in.TaxPrice, &s.TaxPrice},
		{in.TotalPrice, &s.TotalPrice},
	} {
		if f.src != nil {
			*f.dst = *f.src
			sent = true
		}
	}
	return s, sent
}

// Place validates the request, prices it, reserves stock and stores the order. Stock
// reserved for earlier lines is returned if a later line cannot be filled or the order
// cannot be saved.
func (s *Service) Place(ctx context.Context, userID string, in PlaceOrderInput) (models.Order, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.Order{}, apperr.Unauthorized("Not authorized")
	}
	if err := validate(in); err != nil {
		return models.Order{}, err
	}

	items := make([]models.OrderItem, 0, len(in.OrderItems))
	for _, it := range in.OrderItems {
		p, err := s.catalog.Get(ctx, it.Product)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return models.Order{}, apperr.NotFound("Product not found: " + it.Product)
			}
			return models.Order{}, apperr.Internal(fmt.Errorf("%w: %v", errCatalogUnavailable, err))
		}
		if !p.OffersSize(it.Size) {
			return models.Order{}, apperr.Wrap(apperr.KindValidation,
				fmt.Sprintf("Size %q is not available for %s", it.Size, p.Name), ErrSizeNotOffered)
		}
		items = append(items, models.OrderItem{
			Product: p.ID,
			Name:    p.Name,
			Image:   p.MainImage(),
			Size:    it.Size,
			Price:   p.Price,
			Qty:     it.Qty,
		})
	}

	params, err := s.pricing.Pricing(ctx)
	if err != nil {
		return models.Order{}, err
	}
	b := pricing.Calculate(pricing.LinesFromOrder(items), params)
	sum := b.Summary()
	if c, sent := claimed(in, sum); sent && !b.Matches(c) {
		s.log.Warn("order totals rejected",
			zap.String("user_id", userID),
			zap.Float64("claimed_total", c.TotalPrice),
			zap.Float64("total", sum.TotalPrice))
		return models.Order{}, apperr.Wrap(apperr.KindValidation, "Order totals do not match current prices", ErrPriceMismatch)
	}

	if err := s.reserveStock(ctx, items); err != nil {
		return models.Order{}, err
	}

	now := s.now().UTC()
	o := models.Order{
		ID:              primitive.NewObjectID(),
		User:            uid,
		OrderItems:      items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Pricing:         params.Snapshot(),
		ItemsPrice:      sum.ItemsPrice,
		ShippingPrice:   sum.ShippingPrice,
		TaxPrice:        sum.TaxPrice,
		TotalPrice:      sum.TotalPrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, &o); err != nil {
		s.releaseStock(items)
		return models.Order{}, apperr.Internal(err)
	}

	s.log.Info("order placed",
		zap.String("order_id", o.ID.Hex()),
		zap.String("user_id", userID),
		zap.Float64("total", o.TotalPrice),
		zap.String("request_id", utils.GetRequestID(ctx)))

	if err := s.carts.Delete(ctx, userID); err != nil {
		s.log.Warn("clear cart after order", zap.String("user_id", userID), zap.Error(err))
	}
	s.publish(ctx, mq.OrderCreated, o)
	return o, nil
}

func (s *Service) reserveStock(ctx context.Context, items []models.OrderItem) error {
	for i, it := range items {
		ok, err := s.catalog.DecrementStock(ctx, it.Product, it.Qty)
		if err != nil || !ok {
			s.releaseStock(items[:i])
			if err != nil {
				return apperr.Internal(err)
			}
			return apperr.Wrap(apperr.KindStateConflict, "Insufficient stock for "+it.Name, ErrInsufficientStock)
		}
	}
	return nil
}

// releaseStock runs detached from the request so a cancelled client cannot leak stock.
func (s *Service) releaseStock(items []models.OrderItem) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, it := range items {
		if err := s.catalog.IncrementStock(ctx, it.Product, it.Qty); err != nil {
			s.log.Error("stock release failed",
				zap.String("product_id", it.Product.Hex()), zap.Int("qty", it.Qty), zap.Error(err))
		}
	}
}

func (s *Service) publish(ctx context.Context, typ string, o models.Order) {
	ev := mq.Event{Type: typ, OrderID: o.ID.Hex(), UserID: o.User.Hex(), TotalPrice: o.TotalPrice, At: s.now().UTC()}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish order event", zap.String("type", typ), zap.Error(err))
	}
}

// Get returns an order its owner or an admin may see. Anyone else gets not found, so
// order ids cannot be probed.
func (s *Service) Get(ctx context.Context, viewerID string, isAdmin bool, id string) (models.Order, error) {
	o, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Order{}, apperr.NotFound("Order not found")
	}
	if err != nil {
		return models.Order{}, apperr.Internal(err)
	}
	if !isAdmin && o.User.Hex() != viewerID {
		return models.Order{}, apperr.NotFound("Order not found")
	}
	return o, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]models.Order, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Unauthorized("Not authorized")
	}
	list, err := s.store.ListByUser(ctx, uid)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// MarkDelivered is idempotent: repeating it succeeds and keeps the first deliveredAt.
func (s *Service) MarkDelivered(ctx context.Context, id string) (models.Order, error) {
	o, changed, err := s.store.MarkDelivered(ctx, id, s.now().UTC())
	if err != nil {
		return models.Order{}, storeErr(err)
	}
	if changed {
		s.publish(ctx, mq.OrderDelivered, o)
	}
	return o, nil
}

// MarkPaid is idempotent like MarkDelivered.
func (s *Service) MarkPaid(ctx context.Context, id string, result *models.PaymentResult) (models.Order, error) {
	o, changed, err := s.store.MarkPaid(ctx, id, s.now().UTC(), result)
	if err != nil {
		return models.Order{}, storeErr(err)
	}
	if changed {
		s.publish(ctx, mq.OrderPaid, o)
	}
	return o, nil
}

func storeErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("Order not found")
	}
	return apperr.Internal(err)
}
