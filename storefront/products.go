package storefront

import (
	"context"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/utils"
)

func (a *App) FetchProducts(ctx context.Context, category string) []catalog.Product {
	_, err := a.catalog.FetchAll(ctx, category)
	a.logRead("products.fetch", err)
	return a.catalog.Products()
}

func (a *App) FetchFeaturedProducts(ctx context.Context) []catalog.Product {
	_, err := a.catalog.FetchFeatured(ctx)
	a.logRead("products.featured", err)
	return a.catalog.Featured()
}

// Product looks a single product up; ok is false when it could not be loaded.
func (a *App) Product(ctx context.Context, productID string) (catalog.Product, bool) {
	p, err := a.catalog.FetchByID(ctx, productID)
	if err != nil {
		a.logRead("products.get", err)
		return catalog.Product{}, false
	}
	return p, true
}

func (a *App) FetchCategories(ctx context.Context) []string {
	categories, err := a.catalog.FetchCategories(ctx)
	if err != nil {
		a.logRead("products.categories", err)
		return a.catalog.Categories()
	}
	return categories
}

// SearchProducts matches against a fresh catalogue, or the last known one when the fetch fails.
func (a *App) SearchProducts(ctx context.Context, query string) []catalog.Product {
	found, err := a.catalog.Search(ctx, query)
	if err != nil {
		a.logRead("products.search", err)
		return utils.Filter(a.catalog.Products(), func(p catalog.Product) bool { return p.Matches(query) })
	}
	return found
}

func (a *App) CreateProduct(ctx context.Context, np catalog.NewProduct) (catalog.Product, bool) {
	p, err := a.catalog.Create(ctx, np)
	if err != nil {
		a.failAdmin("products.create", err, "Error creating product")
		return catalog.Product{}, false
	}
	a.succeed("Product created successfully")
	return p, true
}

func (a *App) UpdateProduct(ctx context.Context, productID string, patch catalog.ProductPatch) (catalog.Product, bool) {
	p, err := a.catalog.Update(ctx, productID, patch)
	if err != nil {
		a.failAdmin("products.update", err, "Error updating product")
		return catalog.Product{}, false
	}
	a.succeed("Product updated successfully")
	return p, true
}

func (a *App) DeleteProduct(ctx context.Context, productID string) bool {
	if err := a.catalog.Delete(ctx, productID); err != nil {
		a.failAdmin("products.delete", err, "Error deleting product")
		return false
	}
	a.succeed("Product deleted successfully")
	return true
}

// failAdmin reports a refused admin write as Unauthorized, whether refused locally or by the server
func (a *App) failAdmin(op string, err error, fallback string) {
	if apiErr, ok := api.AsError(err); errors.Is(err, errors.ErrUnauthorized) || (ok && apiErr.IsForbidden()) {
		a.fail(op, errors.Wrapf(errors.ErrUnauthorized, "[%s] %v", op, err), "Unauthorized")
		return
	}
	a.fail(op, err, fallback)
}
