// Package cart mirrors the signed-in user's cart.
//
// Quantities sent to the API are always the absolute target for the line, whether the caller
// adds more of a product or nudges an existing line up or down.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/auth"
	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/mirror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Line struct {
	Product  catalog.Ref `json:"productId"`
	Quantity int         `json:"quantity"`
}

// Subtotal is the discounted line price, zero when the product was not sent inline
func (l Line) Subtotal() float64 {
	return utils.Value(l.Product.Value).FinalPrice() * float64(l.Quantity)
}

type addRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type Service struct {
	client    *api.Client
	principal auth.Principal
	lines     *mirror.Mirror[Line]
	logger    zerolog.Logger

	// writes serialises quantity changes so each target is computed from the previous result
	writes sync.Mutex
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

func NewService(client *api.Client, principal auth.Principal, opts ...Option) (*Service, error) {
	if principal == nil {
		return nil, fmt.Errorf("[cart.NewService] principal is required")
	}
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	lines, err := mirror.New(client, mirror.Config[Line]{
		Name:        "cart",
		Path:        api.RouteCart,
		RequireAuth: true,
		Decode:      mirror.DecodeField[Line]("products"),
		Valid:       func(l Line) bool { return l.Product.Resolved() },
		Key:         func(l Line) string { return l.Product.ID },
	}, mirror.WithLogger(o.logger), mirror.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	return &Service{client: client, principal: principal, lines: lines, logger: o.logger}, nil
}

// Fetch replaces the mirror with the server's cart. On failure the last known lines are kept.
func (s *Service) Fetch(ctx context.Context) ([]Line, error) {
	return s.lines.Refresh(ctx, s.principal)
}

// Add puts quantity more of a product in the cart. The current quantity is read from a fresh
// fetch, never from the mirror; if that fetch fails nothing is sent.
func (s *Service) Add(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return errors.Invalidf("product id is required")
	}
	if quantity < 1 {
		return errors.Wrapf(errors.ErrInvalidQuantity, "[cart.Add] quantity %d", quantity)
	}
	if !s.principal.IsAuthenticated() {
		return errors.Wrapf(errors.ErrAuthRequired, "[cart.add]")
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	current, err := s.lines.Refresh(ctx, s.principal)
	if err != nil {
		return errors.Wrapf(err, "[cart.Add] reading current quantity of %s", productID)
	}
	target := quantity
	for _, l := range current {
		if l.Product.ID == productID {
			target += l.Quantity
			break
		}
	}
	return s.set(ctx, "cart.add", productID, target)
}

// UpdateQuantity moves an existing line by delta. A result below one is refused without a request.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, delta int) error {
	s.writes.Lock()
	defer s.writes.Unlock()

	line, ok := s.lines.Find(productID)
	if !ok {
		return errors.Wrapf(errors.ErrLineNotFound, "[cart.UpdateQuantity] %s", productID)
	}
	target := line.Quantity + delta
	if target < 1 {
		return errors.Wrapf(errors.ErrQuantityFloor, "[cart.UpdateQuantity] %d%+d", line.Quantity, delta)
	}
	if delta == 0 {
		return nil
	}
	return s.set(ctx, "cart.update", productID, target)
}

func (s *Service) set(ctx context.Context, op, productID string, quantity int) error {
	if !s.principal.IsAuthenticated() {
		return errors.Wrapf(errors.ErrAuthRequired, "[%s]", op)
	}
	body := addRequest{ProductID: productID, Quantity: quantity}
	if err := s.client.Post(ctx, op, api.RouteCartAdd, s.principal, body, nil); err != nil {
		return errors.Wrapf(err, "[%s] %s", op, productID)
	}
	if _, err := s.Fetch(ctx); err != nil {
		s.logger.Warn().Err(err).Str("op", op).Msg("cart refresh after write failed")
	}
	return nil
}

// Remove deletes a line and drops it from the mirror straight away.
func (s *Service) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return errors.Invalidf("product id is required")
	}
	if !s.principal.IsAuthenticated() {
		return errors.Wrapf(errors.ErrAuthRequired, "[cart.Remove]")
	}
	if err := s.client.Delete(ctx, "cart.remove", api.Path(api.RouteCartRemove, productID), s.principal, nil); err != nil {
		return errors.Wrapf(err, "[cart.Remove] %s", productID)
	}
	s.lines.RemoveLocal(productID)
	return nil
}

// Clear removes every line one at a time. It stops at the first failure, leaving the rest in place.
func (s *Service) Clear(ctx context.Context) error {
	for _, line := range s.lines.Items() {
		if err := s.Remove(ctx, line.Product.ID); err != nil {
			return errors.Wrapf(err, "[cart.Clear]")
		}
	}
	s.lines.Reset()
	return nil
}

// Reset empties the local mirror without touching the server
func (s *Service) Reset() {
	s.lines.Reset()
}

func (s *Service) Lines() []Line {
	return s.lines.Items()
}

// Quantity of a product in the mirror, zero when absent
func (s *Service) Quantity(productID string) int {
	line, _ := s.lines.Find(productID)
	return line.Quantity
}

func (s *Service) Total() float64 {
	var total float64
	for _, l := range s.lines.Items() {
		total += l.Subtotal()
	}
	return total
}

// Count is the number of items, summed over line quantities
func (s *Service) Count() int {
	n := 0
	for _, l := range s.lines.Items() {
		n += l.Quantity
	}
	return n
}

func (s *Service) State() mirror.State {
	return s.lines.State()
}
