package storefront

import (
	"context"

	"github.com/jrsteele09/go-storefront/users"
)

// Login signs in and, on success, loads the user's collections and sends them back to where a
// gated action was blocked, or home.
func (a *App) Login(ctx context.Context, email, password string) bool {
	if err := a.auth.Login(ctx, email, password); err != nil {
		a.report("login", err, "Login failed")
		return false
	}
	a.succeed("Logged in successfully")
	a.syncCollections(ctx)
	a.returnAfterLogin()
	return true
}

func (a *App) returnAfterLogin() {
	if url, ok := a.redirect.ConsumeReturnURL(); ok {
		a.navigator.Navigate(url)
		return
	}
	a.navigator.Navigate(a.homePath)
}

// Register creates an account. It reports success even when the server starts no session
// (email verification); the user then stays signed out.
func (a *App) Register(ctx context.Context, profile users.Profile) bool {
	signedIn, err := a.auth.Register(ctx, profile)
	if err != nil {
		a.report("register", err, "Registration failed")
		return false
	}
	a.succeed("Registered successfully")
	if signedIn {
		a.syncCollections(ctx)
	}
	return true
}

// Logout ends the session and forgets every user-owned mirror.
func (a *App) Logout() {
	a.endSession()
	a.info("Logged out")
}

func (a *App) endSession() {
	a.auth.Logout()
	a.redirect.Discard()
	a.cart.Reset()
	a.wishlist.Reset()
	a.orders.Reset()
}

// UpdateProfile applies patch to the signed-in user.
func (a *App) UpdateProfile(ctx context.Context, patch users.ProfilePatch) bool {
	user := a.auth.User()
	if user == nil {
		a.info("Please log in to update your profile")
		return false
	}
	if err := a.auth.UpdateProfile(ctx, user.ID, patch); err != nil {
		a.fail("update_profile", err, "Profile update failed")
		return false
	}
	a.succeed("Profile updated successfully")
	return true
}

func (a *App) IsAuthenticated() bool {
	return a.auth.IsAuthenticated()
}

func (a *App) IsAdmin() bool {
	return a.auth.IsAdmin()
}

func (a *App) User() *users.User {
	return a.auth.User()
}
