package client

import (
	"encoding/json"
	"fmt"
	"io"

	"babumoshai/cart"
	"babumoshai/models"
)

// LoginRequiredError means the action needs a signed-in user. Redirect names where to
// resume after login.
type LoginRequiredError struct {
	Redirect string
}

func (e *LoginRequiredError) Error() string {
	return "login required (redirect=" + e.Redirect + ")"
}

// Session is the shopper's local state: identity, cart, and the key of a checkout that
// has been attempted but not confirmed.
type Session struct {
	UserInfo *models.UserInfo
	Cart     *cart.Cart

	pending *pendingCheckout
}

type pendingCheckout struct {
	Key  string `json:"key"`
	Hash string `json:"hash"`
}

func NewSession() *Session {
	return &Session{Cart: cart.New()}
}

func (s *Session) LoggedIn() bool {
	return s.UserInfo != nil && s.UserInfo.Token != ""
}

// Logout forgets the identity. The cart is kept.
func (s *Session) Logout() {
	s.UserInfo = nil
	s.pending = nil
}

type sessionFile struct {
	UserInfo *models.UserInfo `json:"userInfo,omitempty"`
	Cart     *cart.Cart       `json:"cart"`
	Pending  *pendingCheckout `json:"pendingCheckout,omitempty"`
}

func (s *Session) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sessionFile{UserInfo: s.UserInfo, Cart: s.Cart, Pending: s.pending}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession reads what Save wrote. A missing cart loads as empty.
func LoadSession(r io.Reader) (*Session, error) {
	var f sessionFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s := &Session{UserInfo: f.UserInfo, Cart: f.Cart, pending: f.Pending}
	if s.Cart == nil {
		s.Cart = cart.New()
	}
	return s, nil
}
