// Package redirect remembers where an anonymous user was going when a gated action was blocked,
// and hands that destination back exactly once after login.
package redirect

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-storefront/notify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultLoginPath = "/login"

type Coordinator struct {
	store     ReturnURLStore
	notifier  notify.Notifier
	navigator notify.Navigator
	loginPath string
	logger    zerolog.Logger
	nowTime   func() time.Time
}

type Option func(*Coordinator)

func WithLoginPath(path string) Option {
	return func(c *Coordinator) {
		c.loginPath = path
	}
}

func WithStore(store ReturnURLStore) Option {
	return func(c *Coordinator) {
		c.store = store
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithNowTime(nowTime func() time.Time) Option {
	return func(c *Coordinator) {
		c.nowTime = nowTime
	}
}

func NewCoordinator(notifier notify.Notifier, navigator notify.Navigator, options ...Option) (*Coordinator, error) {
	if notifier == nil {
		return nil, fmt.Errorf("[NewCoordinator] notifier cannot be nil")
	}
	if navigator == nil {
		return nil, fmt.Errorf("[NewCoordinator] navigator cannot be nil")
	}
	c := &Coordinator{
		store:     NewMemoryStore(),
		notifier:  notifier,
		navigator: navigator,
		loginPath: DefaultLoginPath,
		logger:    log.Logger,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Guard lets the action proceed when authenticated. Otherwise it remembers intendedURL
// (replacing any earlier one; an empty URL clears it), tells the user why, sends them to
// the login path and returns false. Callers must abort the action on false.
func (c *Coordinator) Guard(isAuthenticated bool, action, intendedURL string) bool {
	if isAuthenticated {
		return true
	}

	if intendedURL == "" {
		c.store.Clear()
	} else {
		c.store.Set(PendingReturn{URL: intendedURL, Action: action, CreatedAt: c.nowTime()})
	}
	c.logger.Debug().Str("action", action).Str("return_url", intendedURL).Msg("gated action blocked")

	c.notifier.Notify(notify.LevelInfo, fmt.Sprintf("Please log in to %s", action))
	c.navigator.Navigate(c.loginPath)
	return false
}

// ConsumeReturnURL returns the remembered destination and clears it. A second call returns false.
func (c *Coordinator) ConsumeReturnURL() (string, bool) {
	p, ok := c.store.Take()
	if !ok {
		return "", false
	}
	return p.URL, true
}

// Discard forgets any remembered destination, e.g. when the session ends.
func (c *Coordinator) Discard() {
	c.store.Clear()
}

func (c *Coordinator) LoginPath() string {
	return c.loginPath
}
