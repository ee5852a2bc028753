package api

import "net/url"

// Storefront API routes
const (
	RouteAuthLogin    = "/api/auth/login"
	RouteAuthRegister = "/api/auth/register"
	RouteUsers        = "/api/users/"

	RouteCart       = "/api/cart"
	RouteCartAdd    = "/api/cart/add"
	RouteCartRemove = "/api/cart/remove/"

	RouteWishlist       = "/api/wishlist"
	RouteWishlistAdd    = "/api/wishlist/add"
	RouteWishlistRemove = "/api/wishlist/remove/"

	RouteOrders         = "/api/orders"
	RouteOrdersAll      = "/api/orders/all"
	RouteOrdersCheckout = "/api/orders/checkout"

	RouteProducts           = "/api/products"
	RouteProductsFeatured   = "/api/products/featured"
	RouteProductsCategories = "/api/products/categories"
	RouteProductsCategory   = "/api/products/category/"
)

// Path joins a route prefix and an escaped identifier
func Path(prefix, id string) string {
	if prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	return prefix + url.PathEscape(id)
}
