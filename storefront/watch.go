package storefront

import (
	"context"
	"time"

	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/notify"
	"github.com/jrsteele09/go-storefront/poller"
)

// WatchAdmin keeps the all-orders and product mirrors fresh for an admin dashboard, blocking
// until ctx is cancelled. Extra options are passed to the poller.
func (a *App) WatchAdmin(ctx context.Context, interval time.Duration, options ...poller.Option) error {
	if !a.auth.IsAdmin() {
		a.notifier.Notify(notify.LevelError, "Unauthorized")
		return errors.Wrapf(errors.ErrUnauthorized, "[storefront.WatchAdmin] admin role required")
	}

	opts := append([]poller.Option{poller.WithLogger(a.logger), poller.WithMetrics(a.metrics)}, options...)
	p, err := poller.New("admin_dashboard", interval, a.refreshDashboard, opts...)
	if err != nil {
		return err
	}
	p.Run(ctx)
	return nil
}

func (a *App) refreshDashboard(ctx context.Context) error {
	_, ordersErr := a.orders.FetchAll(ctx)
	_, productsErr := a.catalog.FetchAll(ctx, "")
	return errors.Join(ordersErr, productsErr)
}
