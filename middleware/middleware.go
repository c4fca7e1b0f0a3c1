package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"babumoshai/apperr"
	"babumoshai/auth"
	"babumoshai/models"
	"babumoshai/users"
	"babumoshai/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Middleware wraps an httprouter handle.
type Middleware func(httprouter.Handle) httprouter.Handle

// Chain applies mws so the first one runs first.
func Chain(h httprouter.Handle, mws ...Middleware) httprouter.Handle {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// UserLookup returns users.ErrNotFound for unknown ids.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type Authenticator struct {
	tokens TokenParser
	users  UserLookup
	log    *zap.Logger
}

func NewAuthenticator(tokens TokenParser, users UserLookup, log *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log}
}

// Authenticate requires a valid bearer token for an existing user and puts the user's
// id and current role on the request context. Websocket upgrades may pass the token
// as ?token= since browsers cannot set headers on them.
func (a *Authenticator) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		if header == "" && websocket.IsWebSocketUpgrade(r) {
			if t := r.URL.Query().Get("token"); t != "" {
				header = "Bearer " + t
			}
		}

		raw, err := auth.BearerToken(header)
		if err != nil {
			msg := "Not authorized, token failed"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "Not authorized, no token"
			}
			utils.RespondWithAppError(w, a.log, apperr.Unauthorized(msg))
			return
		}
		claims, err := a.tokens.Parse(raw)
		if err != nil {
			utils.RespondWithAppError(w, a.log, apperr.Unauthorized("Not authorized, token failed"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		u, err := a.users.GetByID(ctx, claims.UserID)
		cancel()
		if errors.Is(err, users.ErrNotFound) {
			utils.RespondWithAppError(w, a.log, apperr.Unauthorized("Not authorized, user not found"))
			return
		}
		if err != nil {
			utils.RespondWithAppError(w, a.log, apperr.Internal(err))
			return
		}

		// role comes from the stored user so a demotion applies before the token expires
		next(w, r.WithContext(utils.WithUser(r.Context(), u.ID.Hex(), u.Role)), ps)
	}
}

// RequireAdmin must run after Authenticate.
func (a *Authenticator) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if utils.GetUserIDFromRequest(r) == "" {
			utils.RespondWithAppError(w, a.log, apperr.Unauthorized("Not authorized, no token"))
			return
		}
		if !utils.IsAdminRequest(r) {
			utils.RespondWithAppError(w, a.log, apperr.Forbidden("Not authorized as an admin"))
			return
		}
		next(w, r, ps)
	}
}

// Admin is Authenticate followed by RequireAdmin.
func (a *Authenticator) Admin(next httprouter.Handle) httprouter.Handle {
	return Chain(next, a.Authenticate, a.RequireAdmin)
}
