package products

import (
	"context"
	"net/http"
	"time"

	"babumoshai/models"
	"babumoshai/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type Handler struct {
	store Store
	log   *zap.Logger
}

func NewHandler(store Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log}
}

type createRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       int64    `json:"price" validate:"gt=0"`
	Category    string   `json:"category" validate:"required"`
	SubCategory string   `json:"subCategory"`
	Fabric      string   `json:"fabric"`
	Occasion    string   `json:"occasion"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Images      []string `json:"images" validate:"required,min=1"`
	Stock       int      `json:"stock" validate:"gte=0"`
	IsFeatured  bool     `json:"isFeatured"`
}

// GetProducts lists products, ten per page.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	f, page := FilterFromQuery(r.URL.Query())
	res, err := h.store.List(ctx, f, page)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.store.Get(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req createRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	p := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Fabric:      req.Fabric,
		Occasion:    req.Occasion,
		Sizes:       nonNil(req.Sizes),
		Colors:      nonNil(req.Colors),
		Images:      req.Images,
		Stock:       req.Stock,
		IsFeatured:  req.IsFeatured,
	}
	if err := h.store.Create(ctx, &p); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	h.log.Info("product created", zap.String("product_id", p.ID.Hex()), zap.String("by", utils.GetUserIDFromRequest(r)))
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

// UpdateProduct changes only the fields present in the body.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var u Update
	if err := utils.DecodeJSON(r, &u); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := utils.Validate(u); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	p, err := h.store.Update(ctx, ps.ByName("id"), u)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Delete(ctx, ps.ByName("id")); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	h.log.Info("product removed", zap.String("product_id", ps.ByName("id")))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Product removed"})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
