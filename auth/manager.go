// Package auth owns the storefront session: login, registration, logout, profile updates and the
// bearer token every authenticated call carries.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Principal is what collection services need to know about the caller
type Principal interface {
	oauth2.TokenSource
	IsAuthenticated() bool
	IsAdmin() bool
}

var _ Principal = (*Manager)(nil)

type authResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

type Manager struct {
	client    *api.Client
	store     sessions.Store
	validator *Validator
	logger    zerolog.Logger
	nowTime   func() time.Time

	mu       sync.RWMutex
	session  sessions.Session
	hydrated bool
	inflight int
}

type ManagerOption func(*Manager)

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// NewManager creates an anonymous session manager. Call Hydrate before relying on IsAuthenticated.
func NewManager(client *api.Client, store sessions.Store, options ...ManagerOption) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("[NewManager] API client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[NewManager] session store is required")
	}

	m := &Manager{
		client:    client,
		store:     store,
		validator: NewValidator(),
		logger:    log.Logger,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Hydrate restores the session left by a previous run. It never fails: anything that stops the
// stored session being used leaves the manager anonymous. Corrupt, incomplete and expired sessions
// are also cleared from the store; one that merely cannot be opened (sealed without a passphrase,
// unreadable) is left in place for a correctly configured run.
func (m *Manager) Hydrate() {
	defer func() {
		m.mu.Lock()
		m.hydrated = true
		m.mu.Unlock()
	}()

	session, err := m.store.Load()
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrSessionNotFound):
		return
	case errors.Is(err, errors.ErrSessionCorrupt):
		m.discard(err)
		return
	default:
		m.logger.Warn().Err(err).Msg("stored session could not be opened, continuing signed out")
		return
	}

	switch {
	case !session.Valid():
		m.discard(errors.Wrapf(errors.ErrSessionCorrupt, "[Hydrate] stored session has no token or user"))
	case session.Expired(m.nowTime()):
		m.discard(errors.Wrapf(errors.ErrTokenExpired, "[Hydrate] stored token expired"))
	default:
		m.mu.Lock()
		m.session = session
		m.mu.Unlock()
		m.logger.Debug().Str("user_id", session.User.ID).Msg("session restored")
	}
}

func (m *Manager) discard(reason error) {
	m.logger.Warn().Err(reason).Msg("discarding stored session")
	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear discarded session")
	}
}

// Login exchanges credentials for a session. On failure the current state is left untouched.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := m.validator.ValidateUserCredentials(email, password); err != nil {
		return err
	}

	done := m.begin()
	defer done()

	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := m.client.Post(ctx, "auth.login", api.RouteAuthLogin, nil, body, &resp); err != nil {
		return errors.Wrapf(err, "[Login] login request failed")
	}
	session := sessions.Session{Token: resp.Token, User: resp.User}
	if !session.Valid() {
		return errors.Wrapf(errors.ErrInvalidResponse, "[Login] response carried no token or user")
	}

	m.establish(session)
	return nil
}

// Register creates an account. When the server starts a session straight away it is stored and
// signedIn is true; an email verification flow answers without one and leaves the state anonymous.
func (m *Manager) Register(ctx context.Context, profile users.Profile) (signedIn bool, err error) {
	profile = profile.Normalize()
	if err := m.validator.ValidateProfile(profile); err != nil {
		return false, err
	}

	done := m.begin()
	defer done()

	var resp authResponse
	if err := m.client.Post(ctx, "auth.register", api.RouteAuthRegister, nil, profile, &resp); err != nil {
		return false, errors.Wrapf(err, "[Register] registration request failed")
	}

	session := sessions.Session{Token: resp.Token, User: resp.User}
	if !session.Valid() {
		m.logger.Info().Str("email", profile.Email).Msg("registered without a session")
		return false, nil
	}
	m.establish(session)
	return true, nil
}

// UpdateProfile replaces the stored user with the server's copy after applying patch.
func (m *Manager) UpdateProfile(ctx context.Context, userID string, patch users.ProfilePatch) error {
	if userID == "" {
		return errors.Invalidf("user id is required")
	}
	if err := m.validator.ValidateProfilePatch(patch); err != nil {
		return err
	}
	if !m.IsAuthenticated() {
		return errors.Wrapf(errors.ErrAuthRequired, "[UpdateProfile]")
	}

	done := m.begin()
	defer done()

	var resp struct {
		User *users.User `json:"user"`
	}
	if err := m.client.Put(ctx, "users.update", api.Path(api.RouteUsers, userID), m, patch, &resp); err != nil {
		return errors.Wrapf(err, "[UpdateProfile] update request failed")
	}
	if resp.User == nil {
		return errors.Wrapf(errors.ErrInvalidResponse, "[UpdateProfile] response carried no user")
	}

	m.mu.Lock()
	// A logout may have raced the request; the update then has nothing to attach to.
	if !m.session.Valid() {
		m.mu.Unlock()
		return errors.Wrapf(errors.ErrAuthRequired, "[UpdateProfile] session ended during update")
	}
	m.session.User = resp.User
	session := m.session.Clone()
	m.mu.Unlock()

	m.persist(session)
	return nil
}

// Logout ends the session. It cannot fail; store errors are logged.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.session = sessions.Session{}
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear stored session")
	}
}

func (m *Manager) establish(session sessions.Session) {
	m.mu.Lock()
	m.session = session.Clone()
	m.mu.Unlock()

	m.persist(session)
	m.logger.Info().Str("user_id", session.User.ID).Str("role", string(session.User.Role)).Msg("session established")
}

// persist saves the session; the in-memory session stays valid if the store is unavailable
func (m *Manager) persist(session sessions.Session) {
	if err := m.store.Save(session); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist session")
	}
}

func (m *Manager) begin() func() {
	m.mu.Lock()
	m.inflight++
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.inflight--
		m.mu.Unlock()
	}
}

// Token implements oauth2.TokenSource. It returns errors.ErrAuthRequired when signed out.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	raw := m.session.Token
	m.mu.RUnlock()

	if raw == "" {
		return nil, errors.ErrAuthRequired
	}
	token := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if claims, err := sessions.ParseTokenClaims(raw); err == nil {
		token.Expiry = claims.ExpiresAt
	}
	return token, nil
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.User != nil
}

func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.User.IsAdmin()
}

// User returns a copy of the signed-in user, or nil
func (m *Manager) User() *users.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Clone().User
}

func (m *Manager) Session() sessions.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Clone()
}

// Loading is true until Hydrate has run and while a login, registration or profile update is in flight
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.hydrated || m.inflight > 0
}
