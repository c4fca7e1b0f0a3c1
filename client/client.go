// Package client is a Go API client for the storefront. It keeps the shopper's session
// and cart locally and submits checkout to the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"babumoshai/models"
	"babumoshai/products"
)

const userAgent = "babumoshai-client/1.0"

// APIError is a non-2xx response. Message is the server's "message" field when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New returns a client for the API rooted at baseURL. A nil hc gets a client with a
// 30 second timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: hc, baseURL: strings.TrimSuffix(baseURL, "/")}
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

// do sends req and decodes a 2xx JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var bodyReader io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func parseError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

// Login signs in and stores the returned identity on s.
func (c *Client) Login(ctx context.Context, s *Session, email, password string) error {
	var info models.UserInfo
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/users/login",
		body:   map[string]string{"email": email, "password": password},
	}, &info)
	if err != nil {
		return err
	}
	s.UserInfo = &info
	return nil
}

// Register creates an account and signs in as it.
func (c *Client) Register(ctx context.Context, s *Session, name, email, password string) error {
	var info models.UserInfo
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/users",
		body:   map[string]string{"name": name, "email": email, "password": password},
	}, &info)
	if err != nil {
		return err
	}
	s.UserInfo = &info
	return nil
}

// Products lists one catalog page. query takes the listing parameters (keyword,
// category, pageNumber and so on).
func (c *Client) Products(ctx context.Context, query url.Values) (products.Page, error) {
	path := "/api/products"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var page products.Page
	err := c.do(ctx, request{method: http.MethodGet, path: path}, &page)
	return page, err
}

func (c *Client) Product(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/products/" + url.PathEscape(id)}, &p)
	return p, err
}

func (c *Client) Settings(ctx context.Context) (models.Settings, error) {
	var st models.Settings
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/settings"}, &st)
	return st, err
}

func (c *Client) MyOrders(ctx context.Context, s *Session) ([]models.Order, error) {
	if !s.LoggedIn() {
		return nil, &LoginRequiredError{Redirect: "orders"}
	}
	var list []models.Order
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/orders/myorders", token: s.UserInfo.Token}, &list)
	return list, err
}

func (c *Client) Order(ctx context.Context, s *Session, id string) (models.Order, error) {
	if !s.LoggedIn() {
		return models.Order{}, &LoginRequiredError{Redirect: "order/" + id}
	}
	var o models.Order
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/orders/" + url.PathEscape(id), token: s.UserInfo.Token}, &o)
	return o, err
}
