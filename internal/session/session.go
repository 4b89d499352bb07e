// Package session persists the operator's bearer token and profile between
// CLI invocations, under the keys "token" and "user".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Echoform/internal/db"
	"github.com/soaringjerry/Echoform/internal/services"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// KV is the storage the session lives in.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Replace(ctx context.Context, set map[string]string, del []string) error
	Delete(ctx context.Context, keys ...string) error
}

// Session is what a previous login left behind. User may be nil when the
// stored profile was unreadable.
type Session struct {
	Token  string
	User   *services.UserProfile
	Claims TokenClaims
}

// BusinessID prefers the stored profile and falls back to the token claim.
func (s *Session) BusinessID() string {
	if s == nil {
		return ""
	}
	if id := s.User.BusinessID(); id != "" {
		return id
	}
	return s.Claims.BusinessID
}

type Store struct {
	kv  KV
	log *zap.Logger
	now func() time.Time
}

func NewStore(kv KV, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, log: log, now: time.Now}
}

// Save writes token and user together. A nil user removes any stored
// profile in the same write.
func (s *Store) Save(ctx context.Context, token string, user *services.UserProfile) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return services.NewInvalidError("token required")
	}
	set := map[string]string{KeyToken: token}
	var del []string
	if user != nil {
		b, err := json.Marshal(user)
		if err != nil {
			return err
		}
		set[KeyUser] = string(b)
	} else {
		del = append(del, KeyUser)
	}
	return s.kv.Replace(ctx, set, del)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyToken, KeyUser)
}

// Load returns the stored session or nil when logged out. Storage failures
// are logged and read as logged out. An expired token clears the session.
func (s *Store) Load(ctx context.Context) *Session {
	token, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.log.Warn("session storage unreadable", zap.Error(err))
		}
		return nil
	}
	sess := &Session{Token: token, Claims: InspectToken(token)}
	if sess.Claims.Expired(s.now()) {
		s.log.Info("stored token expired, clearing session")
		if err := s.Clear(ctx); err != nil {
			s.log.Warn("clear expired session", zap.Error(err))
		}
		return nil
	}

	raw, err := s.kv.Get(ctx, KeyUser)
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		s.log.Warn("session user unreadable", zap.Error(err))
	default:
		var u services.UserProfile
		if jerr := json.Unmarshal([]byte(raw), &u); jerr != nil {
			s.log.Warn("discarding malformed stored user", zap.Error(jerr))
			if derr := s.kv.Delete(ctx, KeyUser); derr != nil {
				s.log.Warn("delete malformed user", zap.Error(derr))
			}
		} else {
			sess.User = &u
		}
	}
	return sess
}

var _ services.SessionWriter = (*Store)(nil)
