package users

import (
	"context"
	"errors"

	"babumoshai/apperr"
	"babumoshai/globals"
	"babumoshai/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Tokens issues bearer tokens for signed-in users.
type Tokens interface {
	Issue(userID, role string) (string, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	store  Store
	tokens Tokens
	log    *zap.Logger
	cost   int
	// dummyHash is compared against when the email is unknown so both failures take
	// about as long.
	dummyHash []byte
}

func NewService(store Store, tokens Tokens, log *zap.Logger) *Service {
	return newService(store, tokens, log, bcrypt.DefaultCost)
}

func newService(store Store, tokens Tokens, log *zap.Logger, cost int) *Service {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &Service{store: store, tokens: tokens, log: log, cost: cost, dummyHash: dummy}
}

// Register creates a user with the default role and signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.UserInfo, error) {
	in.Email = NormalizeEmail(in.Email)
	if _, err := s.store.GetByEmail(ctx, in.Email); err == nil {
		return models.UserInfo{}, apperr.Conflict("User already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return models.UserInfo{}, apperr.Internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.UserInfo{}, apperr.Internal(err)
	}
	u := models.User{Name: in.Name, Email: in.Email, Password: string(hash), Role: globals.RoleUser}
	if err := s.store.Create(ctx, &u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return models.UserInfo{}, apperr.Conflict("User already exists")
		}
		return models.UserInfo{}, apperr.Internal(err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	return s.signIn(u)
}

// Login fails the same way for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, in LoginInput) (models.UserInfo, error) {
	u, err := s.store.GetByEmail(ctx, in.Email)
	if errors.Is(err, ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return models.UserInfo{}, apperr.Wrap(apperr.KindUnauthorized, "Invalid email or password", ErrInvalidCredentials)
	}
	if err != nil {
		return models.UserInfo{}, apperr.Internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)) != nil {
		return models.UserInfo{}, apperr.Wrap(apperr.KindUnauthorized, "Invalid email or password", ErrInvalidCredentials)
	}
	return s.signIn(u)
}

func (s *Service) signIn(u models.User) (models.UserInfo, error) {
	tok, err := s.tokens.Issue(u.ID.Hex(), u.Role)
	if err != nil {
		return models.UserInfo{}, apperr.Internal(err)
	}
	return models.UserInfo{ID: u.ID.Hex(), Name: u.Name, Email: u.Email, Role: u.Role, Token: tok}, nil
}

func (s *Service) Profile(ctx context.Context, id string) (models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	us, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return us, nil
}

// UpdateRole changes a user's role. Admins cannot demote themselves.
func (s *Service) UpdateRole(ctx context.Context, actorID, id, role string) (models.User, error) {
	if role != globals.RoleAdmin && role != globals.RoleUser {
		return models.User{}, apperr.Validation("role must be admin or user")
	}
	if actorID == id && role != globals.RoleAdmin {
		return models.User{}, apperr.Validation("You cannot remove your own admin role")
	}
	u, err := s.store.UpdateRole(ctx, id, role)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	s.log.Info("user role changed", zap.String("user_id", id), zap.String("role", role), zap.String("by", actorID))
	return u, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperr.Validation("You cannot delete your own account")
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	s.log.Info("user deleted", zap.String("user_id", id), zap.String("by", actorID))
	return nil
}

// EnsureAdmin creates the bootstrap admin if no user has that email, and promotes an
// existing one. An empty email does nothing.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" {
		return nil
	}
	u, err := s.store.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !u.IsAdmin() {
			if _, err := s.store.UpdateRole(ctx, u.ID.Hex(), globals.RoleAdmin); err != nil {
				return err
			}
			s.log.Info("bootstrap admin promoted", zap.String("user_id", u.ID.Hex()))
		}
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	admin := models.User{Name: name, Email: email, Password: string(hash), Role: globals.RoleAdmin}
	if err := s.store.Create(ctx, &admin); err != nil && !errors.Is(err, ErrDuplicateEmail) {
		return err
	}
	s.log.Info("bootstrap admin created", zap.String("email", NormalizeEmail(email)))
	return nil
}
