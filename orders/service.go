// Package orders places orders from the cart and mirrors the user's orders, plus the admin view of all orders.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/auth"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/jrsteele09/go-storefront/mirror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CartResetter empties the local cart once the server has turned it into an order
type CartResetter interface {
	Reset()
}

type Service struct {
	client    *api.Client
	principal auth.Principal
	cart      CartResetter
	mine      *mirror.Mirror[Order]
	all       *mirror.Mirror[Order]
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

func orderConfig(name, path string) mirror.Config[Order] {
	return mirror.Config[Order]{
		Name:        name,
		Path:        path,
		RequireAuth: true,
		Valid:       func(o Order) bool { return o.ID != "" },
		Key:         func(o Order) string { return o.ID },
	}
}

func NewService(client *api.Client, principal auth.Principal, cart CartResetter, opts ...Option) (*Service, error) {
	if principal == nil {
		return nil, fmt.Errorf("[orders.NewService] principal is required")
	}
	if cart == nil {
		return nil, fmt.Errorf("[orders.NewService] cart is required")
	}
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	mirrorOpts := []mirror.Option{mirror.WithLogger(o.logger), mirror.WithMetrics(o.metrics)}

	mine, err := mirror.New(client, orderConfig("orders", api.RouteOrders), mirrorOpts...)
	if err != nil {
		return nil, err
	}
	all, err := mirror.New(client, orderConfig("all_orders", api.RouteOrdersAll), mirrorOpts...)
	if err != nil {
		return nil, err
	}
	return &Service{client: client, principal: principal, cart: cart, mine: mine, all: all, logger: o.logger}, nil
}

// FetchMine refreshes the signed-in user's orders
func (s *Service) FetchMine(ctx context.Context) ([]Order, error) {
	return s.mine.Refresh(ctx, s.principal)
}

// PlaceOrder checks out the server-side cart. The local cart is emptied only when the order was created.
func (s *Service) PlaceOrder(ctx context.Context, checkout Checkout) (Order, error) {
	if !s.principal.IsAuthenticated() {
		return Order{}, errors.Wrapf(errors.ErrAuthRequired, "[orders.PlaceOrder]")
	}
	checkout.PaymentMethod = strings.TrimSpace(checkout.PaymentMethod)
	if checkout.PaymentMethod == "" {
		checkout.PaymentMethod = DefaultPaymentMethod
	}
	checkout.PaymentPhone = strings.TrimSpace(checkout.PaymentPhone)

	var raw json.RawMessage
	if err := s.client.Post(ctx, "orders.checkout", api.RouteOrdersCheckout, s.principal, checkout, &raw); err != nil {
		return Order{}, errors.Wrapf(err, "[orders.PlaceOrder]")
	}
	order, err := decodeCreated(raw)
	if err != nil {
		return Order{}, errors.Wrapf(err, "[orders.PlaceOrder]")
	}

	s.cart.Reset()
	s.logger.Info().Str("order_id", order.ID).Float64("total", order.TotalAmount).Msg("order placed")
	return order, nil
}

// decodeCreated accepts {"order": {...}} or a bare order
func decodeCreated(raw json.RawMessage) (Order, error) {
	var envelope struct {
		Order *Order `json:"order"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Order{}, fmt.Errorf("%w: %v", errors.ErrInvalidResponse, err)
	}
	if envelope.Order != nil && envelope.Order.ID != "" {
		return *envelope.Order, nil
	}
	var bare Order
	if err := json.Unmarshal(raw, &bare); err != nil {
		return Order{}, fmt.Errorf("%w: %v", errors.ErrInvalidResponse, err)
	}
	if bare.ID == "" {
		return Order{}, fmt.Errorf("%w: created order has no id", errors.ErrInvalidResponse)
	}
	return bare, nil
}

func (s *Service) requireAdmin(op string) error {
	if !s.principal.IsAdmin() {
		return errors.Wrapf(errors.ErrUnauthorized, "[orders.%s] admin role required", op)
	}
	return nil
}

// FetchAll refreshes every customer's orders. Non-admins are refused without a request.
func (s *Service) FetchAll(ctx context.Context) ([]Order, error) {
	if err := s.requireAdmin("FetchAll"); err != nil {
		return nil, err
	}
	return s.all.Refresh(ctx, s.principal)
}

// UpdateStatus moves an order to status, then re-fetches all orders. Non-admins are refused without a request.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if err := s.requireAdmin("UpdateStatus"); err != nil {
		return err
	}
	if orderID == "" {
		return errors.Invalidf("order id is required")
	}
	if !status.Valid() {
		return errors.Wrapf(errors.ErrInvalidStatus, "[orders.UpdateStatus] %q", status)
	}

	body := map[string]Status{"status": status}
	if err := s.client.Put(ctx, "orders.update_status", api.Path(api.RouteOrders, orderID), s.principal, body, nil); err != nil {
		return errors.Wrapf(err, "[orders.UpdateStatus] %s", orderID)
	}
	if _, err := s.all.Refresh(ctx, s.principal); err != nil {
		s.logger.Warn().Err(err).Msg("order refresh after status update failed")
	}
	return nil
}

func (s *Service) Mine() []Order {
	return s.mine.Items()
}

func (s *Service) All() []Order {
	return s.all.Items()
}

// Reset empties both mirrors, e.g. on logout
func (s *Service) Reset() {
	s.mine.Reset()
	s.all.Reset()
}

func (s *Service) State() mirror.State {
	return s.mine.State()
}
