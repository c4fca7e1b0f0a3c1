// Package settings manages the site-wide settings singleton, which also carries the
// shipping and tax parameters checkout prices with.
package settings

import (
	"context"
	"net/http"
	"time"

	"babumoshai/apperr"
	"babumoshai/models"
	"babumoshai/pricing"
	"babumoshai/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// SocialLinksUpdate replaces the whole socialLinks object when present.
type SocialLinksUpdate struct {
	Facebook  string `json:"facebook"`
	Twitter   string `json:"twitter"`
	Instagram string `json:"instagram"`
	Linkedin  string `json:"linkedin"`
}

// Update is a partial settings edit. Empty strings keep the current value; numbers are
// applied whenever present, zero included.
type Update struct {
	SiteName              string             `json:"siteName"`
	SiteEmail             string             `json:"siteEmail" validate:"omitempty,email"`
	SitePhone             string             `json:"sitePhone"`
	SiteAddress           string             `json:"siteAddress"`
	SocialLinks           *SocialLinksUpdate `json:"socialLinks"`
	ShippingFee           *int64             `json:"shippingFee" validate:"omitnil,gte=0"`
	FreeShippingThreshold *int64             `json:"freeShippingThreshold" validate:"omitnil,gte=0"`
	TaxRate               *float64           `json:"taxRate" validate:"omitnil,gte=0,lte=100"`
}

func (u Update) fields() bson.M {
	m := bson.M{}
	for k, v := range map[string]string{
		"siteName":    u.SiteName,
		"siteEmail":   u.SiteEmail,
		"sitePhone":   u.SitePhone,
		"siteAddress": u.SiteAddress,
	} {
		if v != "" {
			m[k] = v
		}
	}
	if u.SocialLinks != nil {
		m["socialLinks"] = models.SocialLinks(*u.SocialLinks)
	}
	if u.ShippingFee != nil {
		m["shippingFee"] = *u.ShippingFee
	}
	if u.FreeShippingThreshold != nil {
		m["freeShippingThreshold"] = *u.FreeShippingThreshold
	}
	if u.TaxRate != nil {
		m["taxRate"] = *u.TaxRate
	}
	return m
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) Get(ctx context.Context) (models.Settings, error) {
	st, err := s.store.GetOrCreate(ctx)
	if err != nil {
		return models.Settings{}, apperr.Internal(err)
	}
	return st, nil
}

func (s *Service) Update(ctx context.Context, u Update) (models.Settings, error) {
	if err := utils.Validate(u); err != nil {
		return models.Settings{}, err
	}
	st, err := s.store.Set(ctx, u.fields())
	if err != nil {
		return models.Settings{}, apperr.Internal(err)
	}
	s.log.Info("settings updated",
		zap.Int64("shipping_fee", st.ShippingFee),
		zap.Int64("free_shipping_threshold", st.FreeShippingThreshold),
		zap.Float64("tax_rate", st.TaxRate))
	return st, nil
}

// Pricing returns the checkout parameters from the current settings.
func (s *Service) Pricing(ctx context.Context) (pricing.Params, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return pricing.Params{}, err
	}
	return pricing.ParamsFromSettings(st), nil
}

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.svc.Get(ctx)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, st)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var u Update
	if err := utils.DecodeJSON(r, &u); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	st, err := h.svc.Update(ctx, u)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, st)
}
