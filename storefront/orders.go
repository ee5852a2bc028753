package storefront

import (
	"context"

	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/notify"
	"github.com/jrsteele09/go-storefront/orders"
)

// PlaceOrder checks out the cart. Callers must only move on to a confirmation when ok is true.
func (a *App) PlaceOrder(ctx context.Context, checkout orders.Checkout) (order orders.Order, ok bool) {
	if !a.auth.IsAuthenticated() {
		a.notifier.Notify(notify.LevelError, "Please log in to place an order")
		a.navigator.Navigate(a.redirect.LoginPath())
		return orders.Order{}, false
	}
	order, err := a.orders.PlaceOrder(ctx, checkout)
	if err != nil {
		a.fail("orders.checkout", err, "Error placing order")
		return orders.Order{}, false
	}
	a.succeed("Order placed successfully")
	return order, true
}

func (a *App) FetchMyOrders(ctx context.Context) []orders.Order {
	_, err := a.orders.FetchMine(ctx)
	a.logRead("orders.fetch", err)
	return a.orders.Mine()
}

// FetchAllOrders is admin only; anyone else gets an Unauthorized notice and no request is made.
func (a *App) FetchAllOrders(ctx context.Context) []orders.Order {
	_, err := a.orders.FetchAll(ctx)
	if errors.Is(err, errors.ErrUnauthorized) {
		a.fail("orders.fetch_all", err, "Unauthorized")
		return nil
	}
	a.logRead("orders.fetch_all", err)
	return a.orders.All()
}

// UpdateOrderStatus is admin only; anyone else gets an Unauthorized notice and no request is made.
func (a *App) UpdateOrderStatus(ctx context.Context, orderID string, status orders.Status) bool {
	err := a.orders.UpdateStatus(ctx, orderID, status)
	switch {
	case err == nil:
		a.succeed("Order status updated")
		return true
	case errors.Is(err, errors.ErrUnauthorized):
		a.fail("orders.update_status", err, "Unauthorized")
	case errors.Is(err, errors.ErrInvalidStatus):
		a.fail("orders.update_status", err, "Invalid order status")
	default:
		a.fail("orders.update_status", err, "Error updating order status")
	}
	return false
}
