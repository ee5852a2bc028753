// Package storefront is the presentation boundary over the session and collection services.
// Core packages return errors; App turns them into user notifications, navigation and the
// bool or resource results a UI acts on.
package storefront

import (
	"context"
	"time"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/auth"
	"github.com/jrsteele09/go-storefront/cart"
	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/jrsteele09/go-storefront/notify"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/jrsteele09/go-storefront/redirect"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/wishlist"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultHomePath = "/"

type App struct {
	auth     *auth.Manager
	redirect *redirect.Coordinator
	catalog  *catalog.Service
	cart     *cart.Service
	wishlist *wishlist.Service
	orders   *orders.Service

	notifier  notify.Notifier
	navigator notify.Navigator
	homePath  string
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

type Option func(*settings)

type settings struct {
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	loginPath   string
	homePath    string
	returnStore redirect.ReturnURLStore
	nowTime     func() time.Time
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

func WithLoginPath(path string) Option {
	return func(s *settings) {
		s.loginPath = path
	}
}

func WithHomePath(path string) Option {
	return func(s *settings) {
		s.homePath = path
	}
}

func WithReturnURLStore(store redirect.ReturnURLStore) Option {
	return func(s *settings) {
		s.returnStore = store
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *settings) {
		s.nowTime = nowFunc
	}
}

// New wires the services together. Call Start before use.
func New(client *api.Client, store sessions.Store, notifier notify.Notifier, navigator notify.Navigator, options ...Option) (*App, error) {
	s := settings{
		logger:      log.Logger,
		loginPath:   redirect.DefaultLoginPath,
		homePath:    DefaultHomePath,
		returnStore: redirect.NewMemoryStore(),
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(&s)
	}

	manager, err := auth.NewManager(client, store, auth.WithLogger(s.logger), auth.WithNowTime(s.nowTime))
	if err != nil {
		return nil, err
	}
	coordinator, err := redirect.NewCoordinator(notifier, navigator,
		redirect.WithLoginPath(s.loginPath), redirect.WithStore(s.returnStore),
		redirect.WithLogger(s.logger), redirect.WithNowTime(s.nowTime))
	if err != nil {
		return nil, err
	}
	catalogService, err := catalog.NewService(client, manager, catalog.WithLogger(s.logger), catalog.WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}
	cartService, err := cart.NewService(client, manager, cart.WithLogger(s.logger), cart.WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}
	wishlistService, err := wishlist.NewService(client, manager, cartService, wishlist.WithLogger(s.logger), wishlist.WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}
	ordersService, err := orders.NewService(client, manager, cartService, orders.WithLogger(s.logger), orders.WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}

	return &App{
		auth:      manager,
		redirect:  coordinator,
		catalog:   catalogService,
		cart:      cartService,
		wishlist:  wishlistService,
		orders:    ordersService,
		notifier:  notifier,
		navigator: navigator,
		homePath:  s.homePath,
		logger:    s.logger,
		metrics:   s.metrics,
	}, nil
}

// Start restores any stored session and, when signed in, loads the cart and wishlist.
// A session that cannot be restored leaves the user signed out.
func (a *App) Start(ctx context.Context) {
	a.auth.Hydrate()
	if a.auth.IsAuthenticated() {
		a.syncCollections(ctx)
	}
}

// syncCollections loads the signed-in user's cart and wishlist; read failures are only logged
func (a *App) syncCollections(ctx context.Context) {
	a.FetchCart(ctx)
	a.FetchWishlist(ctx)
}

func (a *App) Auth() *auth.Manager            { return a.auth }
func (a *App) Redirect() *redirect.Coordinator { return a.redirect }
func (a *App) Catalog() *catalog.Service       { return a.catalog }
func (a *App) Cart() *cart.Service             { return a.cart }
func (a *App) Wishlist() *wishlist.Service     { return a.wishlist }
func (a *App) Orders() *orders.Service         { return a.orders }

// userMessage picks the text for a failed write: a validation reason, the server's message,
// or the fallback
func userMessage(err error, fallback string) string {
	var verr *errors.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return api.Message(err, fallback)
}

func (a *App) fail(op string, err error, fallback string) {
	if a.sessionRejected(op, err) {
		return
	}
	a.report(op, err, fallback)
}

// report notifies a failure without treating a 401 as a dead session, for the calls that sign in
func (a *App) report(op string, err error, fallback string) {
	a.logger.Debug().Err(err).Str("op", op).Msg("operation failed")
	a.notifier.Notify(notify.LevelError, userMessage(err, fallback))
}

// sessionRejected handles a 401 on a signed-in request: the server no longer accepts the token,
// so the session is ended and the user sent to log in again.
func (a *App) sessionRejected(op string, err error) bool {
	apiErr, ok := api.AsError(err)
	if !ok || !apiErr.IsUnauthorized() || !a.auth.IsAuthenticated() {
		return false
	}
	a.logger.Warn().Err(err).Str("op", op).Msg("server rejected the session")
	a.endSession()
	a.notifier.Notify(notify.LevelError, "Your session has expired. Please log in again")
	a.navigator.Navigate(a.redirect.LoginPath())
	return true
}

func (a *App) succeed(message string) {
	a.notifier.Notify(notify.LevelSuccess, message)
}

func (a *App) info(message string) {
	a.notifier.Notify(notify.LevelInfo, message)
}

func (a *App) logRead(op string, err error) {
	if err == nil || errors.Is(err, errors.ErrAuthRequired) || a.sessionRejected(op, err) {
		return
	}
	a.logger.Debug().Err(err).Str("op", op).Msg("read failed, keeping last known data")
}
