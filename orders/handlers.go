package orders

import (
	"context"
	"errors"
	"net/http"
	"time"

	"babumoshai/apperr"
	"babumoshai/invoice"
	"babumoshai/models"
	"babumoshai/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// SiteInfo supplies the store details printed on invoices.
type SiteInfo interface {
	Get(ctx context.Context) (models.Settings, error)
}

type Handler struct {
	svc  *Service
	site SiteInfo
	log  *zap.Logger
}

func NewHandler(svc *Service, site SiteInfo, log *zap.Logger) *Handler {
	return &Handler{svc: svc, site: site, log: log}
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var in PlaceOrderInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	o, err := h.svc.Place(ctx, utils.GetUserIDFromRequest(r), in)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, o)
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.ListMine(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.ListAll(ctx)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.svc.Get(ctx, utils.GetUserIDFromRequest(r), utils.IsAdminRequest(r), ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, o)
}

// Invoice streams the order as a PDF download.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.svc.Get(ctx, utils.GetUserIDFromRequest(r), utils.IsAdminRequest(r), ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	site, err := h.site.Get(ctx)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	pdf, err := invoice.Render(o, site)
	if err != nil {
		utils.RespondWithAppError(w, h.log, apperr.Internal(err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+o.ID.Hex()+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.svc.MarkDelivered(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, o)
}

// MarkPaid accepts an optional payment result body.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var result *models.PaymentResult
	var pr models.PaymentResult
	err := utils.DecodeJSON(r, &pr)
	switch {
	case errors.Is(err, utils.ErrEmptyBody):
	case err != nil:
		utils.RespondWithAppError(w, h.log, err)
		return
	case pr != (models.PaymentResult{}):
		result = &pr
	}

	o, err := h.svc.MarkPaid(ctx, ps.ByName("id"), result)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, o)
}
