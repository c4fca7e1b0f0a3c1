package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"babumoshai/idempotency"
	"babumoshai/models"
	"babumoshai/orders"
	"babumoshai/utils"
)

type fakeAPI struct {
	mu          sync.Mutex
	orderStatus int
	keys        []string
	placed      []orders.PlaceOrderInput
	auth        []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "secret123" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, models.UserInfo{ID: "u1", Name: "Rina", Email: in["email"], Role: "user", Token: "tok"})
	})
	mux.HandleFunc("GET /api/settings", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondWithJSON(w, http.StatusOK, models.DefaultSettings())
	})
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		var in orders.PlaceOrderInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		f.keys = append(f.keys, r.Header.Get(idempotency.Header))
		f.placed = append(f.placed, in)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		status := f.orderStatus
		f.mu.Unlock()
		if status != 0 {
			utils.RespondWithError(w, status, "Insufficient stock for Jamdani Saree")
			return
		}
		utils.RespondWithJSON(w, http.StatusCreated, models.Order{ID: primitive.NewObjectID(), TotalPrice: *in.TotalPrice})
	})
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithJSON(w, http.StatusOK, map[string]any{
			"products": []models.Product{{Name: r.URL.Query().Get("keyword")}},
			"page":     1,
			"pages":    1,
		})
	})
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
	})
	mux.HandleFunc("GET /api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		if r.PathValue("id") == "myorders" {
			utils.RespondWithJSON(w, http.StatusOK, []models.Order{{PaymentMethod: models.PaymentBKash}})
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, models.Order{PaymentMethod: models.PaymentNagad})
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client()), api
}

var addr = models.ShippingAddress{Address: "House 7", City: "Dhaka", PostalCode: "1209", Country: "Bangladesh"}

func filledSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	s.UserInfo = &models.UserInfo{ID: "u1", Token: "tok"}
	require.NoError(t, s.Cart.Add(models.CartLine{ProductID: "p1", Name: "Panjabi", Price: 1000, Quantity: 2, Size: "M"}))
	require.NoError(t, s.Cart.Add(models.CartLine{ProductID: "p2", Name: "Jamdani Saree", Price: 3000, Quantity: 1}))
	return s
}

func TestCheckoutRequiresCartAndLogin(t *testing.T) {
	c, api := newTestClient(t)

	_, err := c.Checkout(context.Background(), NewSession(), addr, models.PaymentBKash)
	assert.ErrorIs(t, err, ErrEmptyCart)

	s := filledSession(t)
	s.Logout()
	_, err = c.Checkout(context.Background(), s, addr, models.PaymentBKash)
	var login *LoginRequiredError
	require.True(t, errors.As(err, &login))
	assert.Equal(t, "checkout", login.Redirect)

	assert.Empty(t, api.placed)
	assert.Equal(t, 2, s.Cart.Len())
}

func TestCheckout(t *testing.T) {
	c, api := newTestClient(t)
	s := filledSession(t)

	o, err := c.Checkout(context.Background(), s, addr, models.PaymentBKash)
	require.NoError(t, err)
	assert.Equal(t, 5350.0, o.TotalPrice)
	assert.True(t, s.Cart.IsEmpty())

	require.Len(t, api.placed, 1)
	in := api.placed[0]
	assert.Equal(t, 5000.0, *in.ItemsPrice)
	assert.Equal(t, 100.0, *in.ShippingPrice)
	assert.Equal(t, 250.0, *in.TaxPrice)
	assert.Equal(t, []orders.PlaceOrderItem{{Product: "p1", Qty: 2, Size: "M"}, {Product: "p2", Qty: 1}}, in.OrderItems)
	assert.Equal(t, addr, in.ShippingAddress)
	assert.Equal(t, "Bearer tok", api.auth[0])
	assert.NotEmpty(t, api.keys[0])
}

func TestCheckoutFailureKeepsCartAndKey(t *testing.T) {
	c, api := newTestClient(t)
	api.orderStatus = http.StatusBadGateway
	s := filledSession(t)
	ctx := context.Background()

	_, err := c.Checkout(ctx, s, addr, models.PaymentNagad)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, 2, s.Cart.Len(), "cart survives a failed checkout")
	require.Len(t, api.placed, 1, "no automatic retry")

	_, err = c.Checkout(ctx, s, addr, models.PaymentNagad)
	require.Error(t, err)
	assert.Equal(t, api.keys[0], api.keys[1], "retrying the same submission reuses its key")

	require.NoError(t, s.Cart.UpdateQuantity("p1", "M", 1))
	api.orderStatus = 0
	_, err = c.Checkout(ctx, s, addr, models.PaymentNagad)
	require.NoError(t, err)
	assert.NotEqual(t, api.keys[0], api.keys[2], "a changed cart is a new submission")
	assert.True(t, s.Cart.IsEmpty())
}

func TestCheckoutRejectionStartsOver(t *testing.T) {
	c, api := newTestClient(t)
	api.orderStatus = http.StatusConflict
	s := filledSession(t)
	ctx := context.Background()

	_, err := c.Checkout(ctx, s, addr, models.PaymentNagad)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	assert.Contains(t, err.Error(), "Insufficient stock")
	assert.Equal(t, 2, s.Cart.Len())

	api.orderStatus = 0
	_, err = c.Checkout(ctx, s, addr, models.PaymentNagad)
	require.NoError(t, err)
	assert.NotEqual(t, api.keys[0], api.keys[1], "a rejected submission's key is not replayed")
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t)
	s := NewSession()

	err := c.Login(context.Background(), s, "rina@example.com", "nope")
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.False(t, s.LoggedIn())

	require.NoError(t, c.Login(context.Background(), s, "rina@example.com", "secret123"))
	assert.True(t, s.LoggedIn())
	assert.Equal(t, "Rina", s.UserInfo.Name)
}

func TestMyOrdersNeedsLogin(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.MyOrders(context.Background(), NewSession())
	var login *LoginRequiredError
	assert.True(t, errors.As(err, &login))
}

func TestSessionSaveLoad(t *testing.T) {
	s := filledSession(t)
	s.UserInfo.Name = "Rina"
	s.Cart.SetShippingAddress(addr)
	s.idempotencyKey([]byte(`{"orderItems":[]}`))

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Contains(t, raw, "userInfo")

	loaded, err := LoadSession(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.UserInfo, loaded.UserInfo)
	assert.Equal(t, s.Cart.Lines(), loaded.Cart.Lines())
	assert.Equal(t, addr, loaded.Cart.ShippingAddress())
	assert.Equal(t, s.pending, loaded.pending)

	empty, err := LoadSession(bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, empty.Cart)
	assert.False(t, empty.LoggedIn())
}

func TestCatalogAndOrderReads(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	page, err := c.Products(ctx, url.Values{"keyword": {"panjabi"}})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "panjabi", page.Products[0].Name)

	_, err = c.Product(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.Contains(t, err.Error(), "Product not found")

	s := filledSession(t)
	mine, err := c.MyOrders(ctx, s)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.PaymentBKash, mine[0].PaymentMethod)

	o, err := c.Order(ctx, s, "abc")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentNagad, o.PaymentMethod)

	s.UserInfo.Token = "stale"
	_, err = c.Order(ctx, s, "abc")
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}
