package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// UserProfile is the operator record returned by the backend at login and
// by the current-user endpoint.
type UserProfile struct {
	MongoID       string          `json:"_id,omitempty"`
	PlainID       string          `json:"id,omitempty"`
	Name          string          `json:"name,omitempty"`
	Email         string          `json:"email,omitempty"`
	Role          string          `json:"role,omitempty"`
	Business      json.RawMessage `json:"business,omitempty"`
	BusinessIDRaw string          `json:"businessId,omitempty"`
}

func (u *UserProfile) UserID() string {
	if u == nil {
		return ""
	}
	return firstNonEmpty(u.MongoID, u.PlainID)
}

// BusinessID reads the business reference, which may be a bare ID, a
// populated object or a separate businessId field.
func (u *UserProfile) BusinessID() string {
	if u == nil {
		return ""
	}
	if id := rawObjectID(u.Business); id != "" {
		return id
	}
	return strings.TrimSpace(u.BusinessIDRaw)
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	CurrentUser(ctx context.Context, token string) (*UserProfile, error)
}

// SessionWriter persists the token and user pair.
type SessionWriter interface {
	Save(ctx context.Context, token string, user *UserProfile) error
	Clear(ctx context.Context) error
}

type AuthService struct {
	backend AuthBackend
	session SessionWriter
	log     *zap.Logger
}

func NewAuthService(backend AuthBackend, session SessionWriter, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{backend: backend, session: session, log: log}
}

// Login exchanges credentials for a token. When the backend omits the user
// record it is loaded from the current-user endpoint. The pair is saved
// when a session writer is configured.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if res == nil || strings.TrimSpace(res.Token) == "" {
		return nil, NewBadGatewayError("login response carried no token")
	}
	if res.User == nil {
		u, err := s.backend.CurrentUser(ctx, res.Token)
		if err != nil {
			return nil, err
		}
		res.User = u
	}
	if s.session != nil {
		if err := s.session.Save(ctx, res.Token, res.User); err != nil {
			return nil, err
		}
	}
	s.log.Info("login succeeded", zap.String("user_id", res.User.UserID()), zap.String("business_id", res.User.BusinessID()))
	return res, nil
}

// Me loads the profile for token. An unauthorized answer clears the stored
// session.
func (s *AuthService) Me(ctx context.Context, token string) (*UserProfile, error) {
	if strings.TrimSpace(token) == "" {
		return nil, NewUnauthorizedError("not logged in")
	}
	u, err := s.backend.CurrentUser(ctx, token)
	if err != nil {
		if IsUnauthorized(err) {
			_ = s.Logout(ctx)
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	if s.session == nil {
		return nil
	}
	if err := s.session.Clear(ctx); err != nil {
		return err
	}
	s.log.Info("session cleared")
	return nil
}
