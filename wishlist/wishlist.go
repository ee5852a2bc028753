// Package wishlist mirrors the signed-in user's wishlist.
package wishlist

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/auth"
	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/jrsteele09/go-storefront/mirror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DuplicateMessage is what the API answers when the product is already listed
const DuplicateMessage = "Product already in wishlist"

type Line struct {
	Product catalog.Ref `json:"productId"`
}

// CartAdder is the part of the cart MoveToCart needs
type CartAdder interface {
	Add(ctx context.Context, productID string, quantity int) error
}

type Service struct {
	client    *api.Client
	principal auth.Principal
	cart      CartAdder
	lines     *mirror.Mirror[Line]
	logger    zerolog.Logger
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

func NewService(client *api.Client, principal auth.Principal, cart CartAdder, opts ...Option) (*Service, error) {
	if principal == nil {
		return nil, fmt.Errorf("[wishlist.NewService] principal is required")
	}
	if cart == nil {
		return nil, fmt.Errorf("[wishlist.NewService] cart is required")
	}
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	lines, err := mirror.New(client, mirror.Config[Line]{
		Name:        "wishlist",
		Path:        api.RouteWishlist,
		RequireAuth: true,
		Decode:      mirror.DecodeField[Line]("products"),
		Valid:       func(l Line) bool { return l.Product.Resolved() },
		Key:         func(l Line) string { return l.Product.ID },
	}, mirror.WithLogger(o.logger), mirror.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	return &Service{client: client, principal: principal, cart: cart, lines: lines, logger: o.logger}, nil
}

func (s *Service) Fetch(ctx context.Context) ([]Line, error) {
	return s.lines.Refresh(ctx, s.principal)
}

// Add lists a product and re-fetches. Adding a product that is already listed is not an error:
// added is false and the wishlist is left as it was.
func (s *Service) Add(ctx context.Context, productID string) (added bool, err error) {
	if productID == "" {
		return false, errors.Invalidf("product id is required")
	}
	if !s.principal.IsAuthenticated() {
		return false, errors.Wrapf(errors.ErrAuthRequired, "[wishlist.Add]")
	}

	body := map[string]string{"productId": productID}
	if err := s.client.Post(ctx, "wishlist.add", api.RouteWishlistAdd, s.principal, body, nil); err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "[wishlist.Add] %s", productID)
	}
	if _, err := s.Fetch(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("wishlist refresh after add failed")
	}
	return true, nil
}

func isDuplicate(err error) bool {
	apiErr, ok := api.AsError(err)
	return ok && apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError &&
		apiErr.Message == DuplicateMessage
}

// Remove deletes a line and drops it from the mirror straight away.
func (s *Service) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return errors.Invalidf("product id is required")
	}
	if !s.principal.IsAuthenticated() {
		return errors.Wrapf(errors.ErrAuthRequired, "[wishlist.Remove]")
	}
	if err := s.client.Delete(ctx, "wishlist.remove", api.Path(api.RouteWishlistRemove, productID), s.principal, nil); err != nil {
		return errors.Wrapf(err, "[wishlist.Remove] %s", productID)
	}
	s.lines.RemoveLocal(productID)
	return nil
}

// MoveToCart adds one of the product to the cart and, only once that succeeded, removes it here.
func (s *Service) MoveToCart(ctx context.Context, productID string) error {
	if err := s.cart.Add(ctx, productID, 1); err != nil {
		return errors.Wrapf(err, "[wishlist.MoveToCart] add to cart")
	}
	if err := s.Remove(ctx, productID); err != nil {
		return errors.Wrapf(err, "[wishlist.MoveToCart] product is in the cart but still listed")
	}
	return nil
}

func (s *Service) Reset() {
	s.lines.Reset()
}

func (s *Service) Lines() []Line {
	return s.lines.Items()
}

func (s *Service) Contains(productID string) bool {
	_, ok := s.lines.Find(productID)
	return ok
}

func (s *Service) Count() int {
	return s.lines.Len()
}

func (s *Service) State() mirror.State {
	return s.lines.State()
}
