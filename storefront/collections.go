package storefront

import (
	"context"

	"github.com/jrsteele09/go-storefront/cart"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/wishlist"
)

// FetchCart refreshes the cart mirror. Failures are logged and the last known lines returned.
func (a *App) FetchCart(ctx context.Context) []cart.Line {
	_, err := a.cart.Fetch(ctx)
	a.logRead("cart.fetch", err)
	return a.cart.Lines()
}

// AddToCart is a gated action: signed-out users are sent to log in and returned to currentPath after.
func (a *App) AddToCart(ctx context.Context, productID string, quantity int, currentPath string) bool {
	if !a.redirect.Guard(a.auth.IsAuthenticated(), "add to cart", currentPath) {
		return false
	}
	if err := a.cart.Add(ctx, productID, quantity); err != nil {
		a.fail("cart.add", err, "Error adding to cart")
		return false
	}
	a.succeed("Added to cart")
	return true
}

func (a *App) RemoveFromCart(ctx context.Context, productID string) bool {
	if !a.auth.IsAuthenticated() {
		return false
	}
	if err := a.cart.Remove(ctx, productID); err != nil {
		a.fail("cart.remove", err, "Error removing from cart")
		return false
	}
	a.succeed("Removed from cart")
	return true
}

// UpdateCartQuantity moves a line by delta. Dropping below one is silently refused.
func (a *App) UpdateCartQuantity(ctx context.Context, productID string, delta int) bool {
	if !a.auth.IsAuthenticated() {
		return false
	}
	err := a.cart.UpdateQuantity(ctx, productID, delta)
	switch {
	case err == nil:
		return true
	case errors.Is(err, errors.ErrQuantityFloor):
		return false
	default:
		a.fail("cart.update", err, "Error updating quantity")
		return false
	}
}

// ClearCart removes every line. A failure part way leaves the remaining lines in place.
func (a *App) ClearCart(ctx context.Context) bool {
	if !a.auth.IsAuthenticated() {
		return false
	}
	if err := a.cart.Clear(ctx); err != nil {
		a.fail("cart.clear", err, "Error clearing cart")
		return false
	}
	return true
}

func (a *App) FetchWishlist(ctx context.Context) []wishlist.Line {
	_, err := a.wishlist.Fetch(ctx)
	a.logRead("wishlist.fetch", err)
	return a.wishlist.Lines()
}

// AddToWishlist is a gated action. A product already listed counts as success.
func (a *App) AddToWishlist(ctx context.Context, productID, currentPath string) bool {
	if !a.redirect.Guard(a.auth.IsAuthenticated(), "add to wishlist", currentPath) {
		return false
	}
	added, err := a.wishlist.Add(ctx, productID)
	if err != nil {
		a.fail("wishlist.add", err, "Error adding to wishlist")
		return false
	}
	if !added {
		a.info(wishlist.DuplicateMessage)
		return true
	}
	a.succeed("Added to wishlist")
	return true
}

func (a *App) RemoveFromWishlist(ctx context.Context, productID string) bool {
	if !a.auth.IsAuthenticated() {
		return false
	}
	if err := a.wishlist.Remove(ctx, productID); err != nil {
		a.fail("wishlist.remove", err, "Error removing from wishlist")
		return false
	}
	a.succeed("Removed from wishlist")
	return true
}

// MoveToCart adds the product to the cart and only then takes it off the wishlist.
func (a *App) MoveToCart(ctx context.Context, productID string) bool {
	if !a.auth.IsAuthenticated() {
		return false
	}
	if err := a.wishlist.MoveToCart(ctx, productID); err != nil {
		a.fail("wishlist.move_to_cart", err, "Error moving to cart")
		return false
	}
	a.succeed("Moved to cart")
	return true
}
