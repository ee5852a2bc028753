package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/auth"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/jrsteele09/go-storefront/mirror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Image is a product image upload
type Image struct {
	FileName string
	Content  io.Reader
}

// Service reads the public catalogue into mirrors and performs admin-only product writes.
type Service struct {
	client    *api.Client
	principal auth.Principal
	logger    zerolog.Logger

	products *mirror.Mirror[Product]
	featured *mirror.Mirror[Product]

	mu         sync.RWMutex
	categories []string
}

type Option func(*options)

type options struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func productConfig(name, path string) mirror.Config[Product] {
	return mirror.Config[Product]{
		Name:  name,
		Path:  path,
		Valid: func(p Product) bool { return p.ID != "" },
		Key:   func(p Product) string { return p.ID },
	}
}

func NewService(client *api.Client, principal auth.Principal, opts ...Option) (*Service, error) {
	if principal == nil {
		return nil, fmt.Errorf("[catalog.NewService] principal is required")
	}
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	mirrorOpts := []mirror.Option{mirror.WithLogger(o.logger), mirror.WithMetrics(o.metrics)}

	products, err := mirror.New(client, productConfig("products", api.RouteProducts), mirrorOpts...)
	if err != nil {
		return nil, err
	}
	featured, err := mirror.New(client, productConfig("featured_products", api.RouteProductsFeatured), mirrorOpts...)
	if err != nil {
		return nil, err
	}
	return &Service{
		client:    client,
		principal: principal,
		logger:    o.logger,
		products:  products,
		featured:  featured,
	}, nil
}

// FetchAll refreshes the product mirror, restricted to category when one is given.
func (s *Service) FetchAll(ctx context.Context, category string) ([]Product, error) {
	if category == "" {
		return s.products.Refresh(ctx, nil)
	}
	return s.products.RefreshPath(ctx, api.Path(api.RouteProductsCategory, category), nil)
}

func (s *Service) FetchFeatured(ctx context.Context) ([]Product, error) {
	return s.featured.Refresh(ctx, nil)
}

func (s *Service) FetchByID(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, errors.Invalidf("product id is required")
	}
	var p Product
	if err := s.client.Get(ctx, "products.get", api.Path(api.RouteProducts, id), nil, &p); err != nil {
		if apiErr, ok := api.AsError(err); ok && apiErr.IsNotFound() {
			// gone from the server, so stop listing it
			s.products.RemoveLocal(id)
			s.featured.RemoveLocal(id)
		}
		return Product{}, errors.Wrapf(err, "[catalog.FetchByID] %s", id)
	}
	return p, nil
}

// FetchCategories returns the category names, sorted. The server answers with an object keyed by category.
func (s *Service) FetchCategories(ctx context.Context) ([]string, error) {
	var raw map[string]json.RawMessage
	if err := s.client.Get(ctx, "products.categories", api.RouteProductsCategories, nil, &raw); err != nil {
		return nil, errors.Wrapf(err, "[catalog.FetchCategories]")
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	s.mu.Lock()
	s.categories = names
	s.mu.Unlock()
	return slices.Clone(names), nil
}

// Search refreshes the full catalogue and filters it locally.
func (s *Service) Search(ctx context.Context, query string) ([]Product, error) {
	all, err := s.FetchAll(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []Product
	for _, p := range all {
		if p.Matches(query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) Products() []Product {
	return s.products.Items()
}

func (s *Service) Featured() []Product {
	return s.featured.Items()
}

func (s *Service) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

func (s *Service) State() mirror.State {
	return s.products.State()
}

func (s *Service) requireAdmin(op string) error {
	if !s.principal.IsAdmin() {
		return errors.Wrapf(errors.ErrUnauthorized, "[catalog.%s] admin role required", op)
	}
	return nil
}

// Create uploads a new product as multipart form data and refreshes the mirror.
func (s *Service) Create(ctx context.Context, np NewProduct) (Product, error) {
	if err := s.requireAdmin("Create"); err != nil {
		return Product{}, err
	}
	if err := np.Validate(); err != nil {
		return Product{}, err
	}

	form := &api.Multipart{Fields: np.fields()}
	if np.Image != nil {
		form.Files = append(form.Files, api.FilePart{Field: "image", FileName: np.Image.FileName, Content: np.Image.Content})
	}
	var resp struct {
		Product *Product `json:"product"`
	}
	err := s.client.Do(ctx, api.Request{
		Name:      "products.create",
		Method:    http.MethodPost,
		Path:      api.RouteProducts,
		Multipart: form,
		Tokens:    s.principal,
	}, &resp)
	if err != nil {
		return Product{}, errors.Wrapf(err, "[catalog.Create]")
	}
	if resp.Product == nil {
		return Product{}, errors.Wrapf(errors.ErrInvalidResponse, "[catalog.Create] response carried no product")
	}

	s.refreshAfterWrite(ctx)
	return *resp.Product, nil
}

func (s *Service) Update(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	if err := s.requireAdmin("Update"); err != nil {
		return Product{}, err
	}
	if id == "" {
		return Product{}, errors.Invalidf("product id is required")
	}
	if err := patch.Validate(); err != nil {
		return Product{}, err
	}

	var resp struct {
		Product *Product `json:"product"`
	}
	if err := s.client.Put(ctx, "products.update", api.Path(api.RouteProducts, id), s.principal, patch, &resp); err != nil {
		return Product{}, errors.Wrapf(err, "[catalog.Update] %s", id)
	}
	if resp.Product == nil {
		return Product{}, errors.Wrapf(errors.ErrInvalidResponse, "[catalog.Update] response carried no product")
	}

	s.refreshAfterWrite(ctx)
	return *resp.Product, nil
}

// Delete removes the product and drops it from the local mirrors without a re-fetch.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.requireAdmin("Delete"); err != nil {
		return err
	}
	if id == "" {
		return errors.Invalidf("product id is required")
	}
	if err := s.client.Delete(ctx, "products.delete", api.Path(api.RouteProducts, id), s.principal, nil); err != nil {
		return errors.Wrapf(err, "[catalog.Delete] %s", id)
	}
	s.products.RemoveLocal(id)
	s.featured.RemoveLocal(id)
	return nil
}

// refreshAfterWrite resynchronises the mirror; a failed read keeps the last known catalogue
func (s *Service) refreshAfterWrite(ctx context.Context) {
	if _, err := s.products.Refresh(ctx, nil); err != nil {
		s.logger.Warn().Err(err).Msg("catalogue refresh after write failed")
	}
}
