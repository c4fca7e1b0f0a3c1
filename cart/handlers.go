package cart

import (
	"context"
	"errors"
	"net/http"
	"time"

	"babumoshai/apperr"
	"babumoshai/models"
	"babumoshai/pricing"
	"babumoshai/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Catalog looks up products by id.
type Catalog interface {
	Get(ctx context.Context, id string) (models.Product, error)
}

// PricingSource supplies the current commerce parameters.
type PricingSource interface {
	Pricing(ctx context.Context) (pricing.Params, error)
}

type Handler struct {
	store   Store
	catalog Catalog
	pricing PricingSource
	log     *zap.Logger
}

func NewHandler(store Store, catalog Catalog, ps PricingSource, log *zap.Logger) *Handler {
	return &Handler{store: store, catalog: catalog, pricing: ps, log: log}
}

type addRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int    `json:"qty"`
	Size      string `json:"size"`
}

type qtyRequest struct {
	Qty int `json:"qty"`
}

type paymentRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required"`
}

// SummaryResponse previews checkout prices for the current cart.
type SummaryResponse struct {
	pricing.Summary
	ItemCount int `json:"itemCount"`
}

// GetCart returns the caller's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.store.Load(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithAppError(w, h.log, apperr.Internal(err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c)
}

// AddToCart snapshots the product's name, image, price and stock into a cart line.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req addRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	p, err := h.catalog.Get(ctx, req.ProductID)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if !p.OffersSize(req.Size) {
		utils.RespondWithError(w, http.StatusBadRequest, "Size not available for this product")
		return
	}
	if p.Stock < 1 {
		utils.RespondWithAppError(w, h.log, apperr.StateConflict("Product is out of stock"))
		return
	}

	h.mutate(ctx, w, r, func(c *Cart) error {
		return c.Add(models.CartLine{
			ProductID:    p.ID.Hex(),
			Name:         p.Name,
			Image:        p.MainImage(),
			Price:        p.Price,
			CountInStock: p.Stock,
			Quantity:     req.Qty,
			Size:         req.Size,
		})
	})
}

// UpdateQuantity sets the quantity of one line. The size comes from ?size=.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req qtyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	productID, size := ps.ByName("productId"), r.URL.Query().Get("size")
	h.mutate(ctx, w, r, func(c *Cart) error {
		return c.UpdateQuantity(productID, size, req.Qty)
	})
}

// RemoveFromCart drops one size of a product, or all sizes when ?size= is absent.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	productID := ps.ByName("productId")
	q := r.URL.Query()
	h.mutate(ctx, w, r, func(c *Cart) error {
		if q.Has("size") {
			c.Remove(productID, q.Get("size"))
		} else {
			c.RemoveProduct(productID)
		}
		return nil
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	h.mutate(ctx, w, r, func(c *Cart) error {
		c.Clear()
		return nil
	})
}

func (h *Handler) SaveShippingAddress(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var addr models.ShippingAddress
	if err := utils.DecodeJSON(r, &addr); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := utils.Validate(addr); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	h.mutate(ctx, w, r, func(c *Cart) error {
		c.SetShippingAddress(addr)
		return nil
	})
}

func (h *Handler) SavePaymentMethod(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req paymentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported payment method")
		return
	}
	h.mutate(ctx, w, r, func(c *Cart) error {
		c.SetPaymentMethod(req.PaymentMethod)
		return nil
	})
}

// Summary prices the cart with the current settings. Checkout recomputes the same way.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.store.Load(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithAppError(w, h.log, apperr.Internal(err))
		return
	}
	params, err := h.pricing.Pricing(ctx)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	b := pricing.Calculate(pricing.LinesFromCart(c.Lines()), params)
	utils.RespondWithJSON(w, http.StatusOK, SummaryResponse{Summary: b.Summary(), ItemCount: c.ItemCount()})
}

// mutate loads the caller's cart, applies fn and saves it back.
func (h *Handler) mutate(ctx context.Context, w http.ResponseWriter, r *http.Request, fn func(*Cart) error) {
	userID := utils.GetUserIDFromRequest(r)
	c, err := h.store.Load(ctx, userID)
	if err != nil {
		utils.RespondWithAppError(w, h.log, apperr.Internal(err))
		return
	}
	if err := fn(c); err != nil {
		utils.RespondWithAppError(w, h.log, cartError(err))
		return
	}
	if err := h.store.Save(ctx, userID, c); err != nil {
		utils.RespondWithAppError(w, h.log, apperr.Internal(err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c)
}

func cartError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrMissingProduct):
		return apperr.Wrap(apperr.KindValidation, err.Error(), err)
	case errors.Is(err, ErrInsufficientStock):
		return apperr.Wrap(apperr.KindStateConflict, err.Error(), err)
	case errors.Is(err, ErrLineNotFound):
		return apperr.Wrap(apperr.KindNotFound, err.Error(), err)
	}
	return err
}
