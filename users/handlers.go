package users

import (
	"context"
	"net/http"
	"time"

	"babumoshai/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in LoginInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := utils.Validate(in); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	info, err := h.svc.Login(ctx, in)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, info)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in RegisterInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	if err := utils.Validate(in); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	info, err := h.svc.Register(ctx, in)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, info)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.svc.Profile(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	us, err := h.svc.List(ctx)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, us)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req struct {
		Role string `json:"role"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	u, err := h.svc.UpdateRole(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), req.Role)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.Delete(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id")); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "User removed"})
}
