package sessions

import (
	"time"

	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/users"
)

// Session is the authenticated state persisted between runs.
// Token and User are either both set or both empty.
type Session struct {
	Token string      `json:"token"` // Bearer token issued by /api/auth/login or /api/auth/register
	User  *users.User `json:"user"`  // Profile returned alongside the token
}

// Valid reports whether the session carries both a token and a user
func (s Session) Valid() bool {
	return s.Token != "" && s.User != nil
}

// Expired is true only when the token is a JWT whose exp claim is before now.
// Opaque tokens never expire from the client's point of view.
func (s Session) Expired(now time.Time) bool {
	claims, err := ParseTokenClaims(s.Token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(claims.ExpiresAt)
}

// Clone returns a deep copy so callers cannot mutate shared user state
func (s Session) Clone() Session {
	return Session{Token: s.Token, User: utils.Clone(s.User)}
}

// Store is the persistent session store. Load returns errors.ErrSessionNotFound when nothing is stored.
type Store interface {
	Load() (Session, error)
	Save(session Session) error
	Clear() error
}
