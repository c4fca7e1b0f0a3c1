package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"babumoshai/models"
)

type memStore struct {
	mu       sync.Mutex
	products []models.Product
}

func (m *memStore) List(_ context.Context, f Filter, page int) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []models.Product
	for _, p := range m.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Keyword != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Keyword)) {
			continue
		}
		hits = append(hits, p)
	}
	out := Page{Products: []models.Product{}, Page: page, Pages: Pages(int64(len(hits)))}
	start := (page - 1) * PageSize
	for i := start; i < len(hits) && i < start+PageSize; i++ {
		out.Products = append(out.Products, hits[i])
	}
	return out, nil
}

func (m *memStore) find(id string) int {
	for i, p := range m.products {
		if p.ID.Hex() == id {
			return i
		}
	}
	return -1
}

func (m *memStore) Get(_ context.Context, id string) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(id); i >= 0 {
		return m.products[i], nil
	}
	return models.Product{}, ErrNotFound
}

func (m *memStore) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	m.products = append(m.products, *p)
	return nil
}

func (m *memStore) Update(_ context.Context, id string, u Update) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return models.Product{}, ErrNotFound
	}
	u.Apply(&m.products[i])
	return m.products[i], nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return ErrNotFound
	}
	m.products = append(m.products[:i], m.products[i+1:]...)
	return nil
}

func (m *memStore) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id.Hex())
	if i < 0 || m.products[i].Stock < qty {
		return false, nil
	}
	m.products[i].Stock -= qty
	return true, nil
}

func (m *memStore) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(id.Hex()); i >= 0 {
		m.products[i].Stock += qty
	}
	return nil
}

func newRouter(store Store) *httprouter.Router {
	h := NewHandler(store, zap.NewNop())
	r := httprouter.New()
	r.GET("/api/products", h.GetProducts)
	r.GET("/api/products/:id", h.GetProduct)
	r.POST("/api/products", h.CreateProduct)
	r.PUT("/api/products/:id", h.UpdateProduct)
	r.DELETE("/api/products/:id", h.DeleteProduct)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListProducts(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 12; i++ {
		store.products = append(store.products, models.Product{ID: primitive.NewObjectID(), Name: "Panjabi", Category: "Men", Price: 1500})
	}
	store.products = append(store.products, models.Product{ID: primitive.NewObjectID(), Name: "Silk Saree", Category: "Women", Price: 8000})
	r := newRouter(store)

	var page Page
	rec := serve(r, http.MethodGet, "/api/products?category=Men&pageNumber=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Products, 2)

	rec = serve(r, http.MethodGet, "/api/products?keyword=SILK", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Silk Saree", page.Products[0].Name)

	rec = serve(r, http.MethodGet, "/api/products?category=Kids", "")
	assert.JSONEq(t, `{"products":[],"page":1,"pages":0}`, rec.Body.String())
}

func TestProductCRUD(t *testing.T) {
	store := &memStore{}
	r := newRouter(store)

	rec := serve(r, http.MethodPost, "/api/products", `{"name":"Kurta","description":"Cotton kurta","price":1200,"category":"Men","images":["/k.jpg"],"sizes":["M","L"],"stock":4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.ID.Hex()
	assert.Equal(t, []string{}, created.Colors)

	rec = serve(r, http.MethodGet, "/api/products/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		rec := serve(r, http.MethodPut, "/api/products/"+id, `{"price":1100,"stock":0}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var p models.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, int64(1100), p.Price)
		assert.Equal(t, 0, p.Stock)
		assert.Equal(t, "Kurta", p.Name)
		assert.Equal(t, []string{"M", "L"}, p.Sizes)
	})

	t.Run("invalid update", func(t *testing.T) {
		rec := serve(r, http.MethodPut, "/api/products/"+id, `{"price":-5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create validates", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/api/products", `{"name":"","price":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "name is required")
	})

	rec = serve(r, http.MethodDelete, "/api/products/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Product removed"}`, rec.Body.String())

	for _, path := range []string{"/api/products/" + id, "/api/products/not-an-id"} {
		rec = serve(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"Product not found"}`, rec.Body.String())
	}
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/api/products/"+id, "").Code)
}

func TestUpdateApply(t *testing.T) {
	featured := true
	name := "New"
	p := models.Product{Name: "Old", Price: 10, IsFeatured: false}
	Update{Name: &name, IsFeatured: &featured}.Apply(&p)
	assert.Equal(t, "New", p.Name)
	assert.Equal(t, int64(10), p.Price)
	assert.True(t, p.IsFeatured)

	assert.Len(t, Update{Name: &name}.set(), 1)
}
