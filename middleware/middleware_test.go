package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"babumoshai/auth"
	"babumoshai/models"
	"babumoshai/users"
	"babumoshai/utils"
)

type userMap map[string]models.User

func (m userMap) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := m[id]
	if !ok {
		return models.User{}, users.ErrNotFound
	}
	return u, nil
}

func setup(t *testing.T) (*Authenticator, *auth.TokenService, userMap) {
	t.Helper()
	tokens := auth.NewTokenService("middleware-test-secret-0123456789abcdef", time.Hour, "babumoshai")
	um := userMap{}
	return NewAuthenticator(tokens, um, zap.NewNop()), tokens, um
}

func addUser(t *testing.T, um userMap, tokens *auth.TokenService, role string) (models.User, string) {
	t.Helper()
	u := models.User{ID: primitive.NewObjectID(), Role: role}
	um[u.ID.Hex()] = u
	tok, err := tokens.Issue(u.ID.Hex(), role)
	require.NoError(t, err)
	return u, tok
}

func echo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"id": utils.GetUserIDFromRequest(r), "role": utils.GetRoleFromRequest(r)})
}

func call(h httprouter.Handle, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func TestAuthenticate(t *testing.T) {
	a, tokens, um := setup(t)
	h := a.Authenticate(echo)
	u, tok := addUser(t, um, tokens, "user")

	rec := call(h, "/", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+u.ID.Hex()+`","role":"user"}`, rec.Body.String())

	rec = call(h, "/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authorized, no token"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call(h, "/", "garbage").Code)

	t.Run("deleted user", func(t *testing.T) {
		delete(um, u.ID.Hex())
		assert.Equal(t, http.StatusUnauthorized, call(h, "/", tok).Code)
	})

	t.Run("stored role wins over token role", func(t *testing.T) {
		demoted, tok := addUser(t, um, tokens, "admin")
		demoted.Role = "user"
		um[demoted.ID.Hex()] = demoted

		rec := call(h, "/", tok)
		assert.Contains(t, rec.Body.String(), `"role":"user"`)
	})

	t.Run("websocket token from query", func(t *testing.T) {
		_, tok := addUser(t, um, tokens, "admin")
		req := httptest.NewRequest(http.MethodGet, "/feed?token="+tok, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		// plain requests do not accept query tokens
		assert.Equal(t, http.StatusUnauthorized, call(h, "/x?token="+tok, "").Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	a, tokens, um := setup(t)
	h := a.Admin(echo)

	_, userTok := addUser(t, um, tokens, "user")
	_, adminTok := addUser(t, um, tokens, "admin")

	assert.Equal(t, http.StatusUnauthorized, call(h, "/", "").Code)

	rec := call(h, "/", userTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Not authorized as an admin"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, call(h, "/", adminTok).Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next httprouter.Handle) httprouter.Handle {
			return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
				order = append(order, name)
				next(w, r, ps)
			}
		}
	}
	h := Chain(func(http.ResponseWriter, *http.Request, httprouter.Params) { order = append(order, "handler") }, mw("a"), mw("b"))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}
