package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"babumoshai/cart"
	"babumoshai/idempotency"
	"babumoshai/middleware"
	"babumoshai/orderfeed"
	"babumoshai/orders"
	"babumoshai/products"
	"babumoshai/ratelim"
	"babumoshai/settings"
	"babumoshai/users"
)

// newRouter wires the real routes with handlers that are never reached: every request
// below is answered by middleware before a store would be touched.
func newRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	log := zap.NewNop()
	d := Deps{
		Auth:        middleware.NewAuthenticator(nil, nil, log),
		Limiter:     ratelim.NewRateLimiter(0.0001, 1),
		Idempotency: idempotency.New(nil, time.Hour, log),
		Users:       &users.Handler{},
		Products:    &products.Handler{},
		Cart:        &cart.Handler{},
		Orders:      &orders.Handler{},
		Settings:    &settings.Handler{},
		Feed:        &orderfeed.Handler{},
	}
	router := httprouter.New()
	require.NotPanics(t, func() { RoutesWrapper(router, d) })
	return router
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	router := newRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/users/profile"},
		{http.MethodGet, "/api/users"},
		{http.MethodDelete, "/api/users/abc"},
		{http.MethodPost, "/api/products"},
		{http.MethodGet, "/api/cart"},
		{http.MethodPut, "/api/cart/items/abc"},
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/orders/myorders"},
		{http.MethodGet, "/api/orders/feed"},
		{http.MethodGet, "/api/orders/abc"},
		{http.MethodGet, "/api/orders/abc/invoice"},
		{http.MethodPut, "/api/orders/abc/deliver"},
		{http.MethodPut, "/api/orders/abc/pay"},
		{http.MethodPost, "/api/settings"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "no token")
		})
	}
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	router := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderByIDDispatch(t *testing.T) {
	var hit string
	mark := func(name string) httprouter.Handle {
		return func(http.ResponseWriter, *http.Request, httprouter.Params) { hit = name }
	}
	h := orderByID(mark("get"), mark("mine"), mark("feed"))

	for id, want := range map[string]string{"myorders": "mine", "feed": "feed", "65f0c0ffee": "get"} {
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), httprouter.Params{{Key: "id", Value: id}})
		assert.Equal(t, want, hit, id)
	}
}
