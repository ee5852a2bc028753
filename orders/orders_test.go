package orders_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-storefront/api"
	fakeprincipal "github.com/jrsteele09/go-storefront/auth/repofakes"
	"github.com/jrsteele09/go-storefront/cart"
	"github.com/jrsteele09/go-storefront/internal/apifake"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	api      *apifake.Server
	cart     *cart.Service
	service  *orders.Service
	userID   string
	adminTok string
	dress    string
}

func newFixture(t *testing.T, admin bool) *testFixture {
	t.Helper()
	fake := apifake.New(t)
	userID := fake.AddUser("Amina", "amina@example.com", "pw", apifake.RoleCustomer)
	adminID := fake.AddUser("Admin", "admin@example.com", "pw", apifake.RoleAdmin)
	dress := fake.AddProduct(apifake.Product{Name: "Dress", Price: 40, Discount: 25, Stock: 5, Category: "dresses"})

	principal := fakeprincipal.Customer(fake.TokenFor(userID))
	if admin {
		principal = fakeprincipal.Admin(fake.TokenFor(adminID))
	}
	client := api.NewClient(fake.URL)
	cartService, err := cart.NewService(client, principal, cart.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	service, err := orders.NewService(client, principal, cartService, orders.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	return &testFixture{api: fake, cart: cartService, service: service, userID: userID, adminTok: fake.TokenFor(adminID), dress: dress}
}

// placeCustomerOrder checks out a one-line cart as the customer and returns the order id
func (f *testFixture) placeCustomerOrder(t *testing.T) string {
	t.Helper()
	f.api.SetCartLine(f.userID, f.dress, 2)
	customer, err := orders.NewService(api.NewClient(f.api.URL), fakeprincipal.Customer(f.api.TokenFor(f.userID)), f.cart, orders.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	order, err := customer.PlaceOrder(context.Background(), orders.Checkout{})
	require.NoError(t, err)
	return order.ID
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range orders.Statuses {
		require.True(t, s.Valid(), s)
	}
	require.False(t, orders.Status("lost").Valid())
	require.False(t, orders.Status("").Valid())
}

func TestOrder_UnmarshalPopulatedReferences(t *testing.T) {
	var o orders.Order
	require.NoError(t, json.Unmarshal([]byte(`{
		"_id": "o1",
		"userId": {"_id": "u1", "name": "Amina", "email": "amina@example.com"},
		"items": [{"productId": {"_id": "p1", "name": "Dress"}, "quantity": 2, "price": 30}, {"productId": "p2", "quantity": 1}],
		"totalAmount": 75,
		"status": "pending"
	}`), &o))

	require.Equal(t, "o1", o.ID)
	require.Equal(t, "u1", o.User.ID)
	require.Equal(t, "Amina", o.User.Value.Name)
	require.Equal(t, "Dress", o.Items[0].Product.Value.Name)
	require.False(t, o.Items[1].Product.Populated())
	require.Equal(t, 3, o.ItemCount())
	require.Equal(t, orders.StatusPending, o.Status)
}

func TestPlaceOrder_SuccessEmptiesCart(t *testing.T) {
	f := newFixture(t, false)
	f.api.SetCartLine(f.userID, f.dress, 2)
	_, err := f.cart.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, f.cart.Count())

	order, err := f.service.PlaceOrder(context.Background(), orders.Checkout{PaymentPhone: " 615000000 "})
	require.NoError(t, err)

	require.NotEmpty(t, order.ID)
	require.Equal(t, orders.StatusPending, order.Status)
	require.Equal(t, orders.DefaultPaymentMethod, order.PaymentMethod)
	require.InDelta(t, 60.0, order.TotalAmount, 0.001)
	require.Empty(t, f.cart.Lines())
	require.Equal(t, 1, f.api.OrderCount())
}

func TestPlaceOrder_FailureKeepsCart(t *testing.T) {
	f := newFixture(t, false)
	f.api.SetCartLine(f.userID, f.dress, 2)
	_, err := f.cart.Fetch(context.Background())
	require.NoError(t, err)
	before := f.cart.Lines()

	f.api.FailNext(http.MethodPost, "/api/orders/checkout", http.StatusPaymentRequired, "Payment declined")
	_, err = f.service.PlaceOrder(context.Background(), orders.Checkout{PaymentMethod: "zaad"})
	require.Error(t, err)
	require.Equal(t, "Payment declined", api.Message(err, "Error placing order"))

	require.Equal(t, before, f.cart.Lines())
	require.Zero(t, f.api.OrderCount())
}

func TestPlaceOrder_EmptyCartSurfacesServerMessage(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.service.PlaceOrder(context.Background(), orders.Checkout{})
	require.Equal(t, "Cart is empty", api.Message(err, "Error placing order"))
}

func TestPlaceOrder_SignedOutSkipsNetwork(t *testing.T) {
	fake := apifake.New(t)
	client := api.NewClient(fake.URL)
	cartService, err := cart.NewService(client, fakeprincipal.Anonymous(), cart.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	service, err := orders.NewService(client, fakeprincipal.Anonymous(), cartService, orders.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = service.PlaceOrder(context.Background(), orders.Checkout{})
	require.ErrorIs(t, err, errors.ErrAuthRequired)
	require.Zero(t, fake.RequestCount("", ""))
}

func TestFetchMine(t *testing.T) {
	f := newFixture(t, false)
	id := f.placeCustomerOrder(t)

	mine, err := f.service.FetchMine(context.Background())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, id, mine[0].ID)
	require.Equal(t, mine, f.service.Mine())
}

func TestAdminOperations_RejectedLocallyForCustomers(t *testing.T) {
	f := newFixture(t, false)
	id := f.placeCustomerOrder(t)
	f.api.ResetRequests()

	_, err := f.service.FetchAll(context.Background())
	require.ErrorIs(t, err, errors.ErrUnauthorized)

	err = f.service.UpdateStatus(context.Background(), id, orders.StatusShipped)
	require.ErrorIs(t, err, errors.ErrUnauthorized)

	require.Zero(t, f.api.RequestCount("", ""))
	status, _ := f.api.OrderStatus(id)
	require.Equal(t, "pending", status)
}

func TestFetchAll_Admin(t *testing.T) {
	f := newFixture(t, true)
	id := f.placeCustomerOrder(t)

	all, err := f.service.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, id, all[0].ID)
	require.Equal(t, "Amina", all[0].User.Value.Name)
	require.Equal(t, all, f.service.All())
}

func TestUpdateStatus_Admin(t *testing.T) {
	f := newFixture(t, true)
	id := f.placeCustomerOrder(t)

	require.NoError(t, f.service.UpdateStatus(context.Background(), id, orders.StatusShipped))

	status, ok := f.api.OrderStatus(id)
	require.True(t, ok)
	require.Equal(t, "shipped", status)
	require.Equal(t, orders.StatusShipped, f.service.All()[0].Status)
}

func TestUpdateStatus_InvalidStatusSkipsNetwork(t *testing.T) {
	f := newFixture(t, true)
	f.api.ResetRequests()

	err := f.service.UpdateStatus(context.Background(), "o1", orders.Status("lost"))
	require.ErrorIs(t, err, errors.ErrInvalidStatus)
	require.Zero(t, f.api.RequestCount("", ""))
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	f := newFixture(t, true)

	err := f.service.UpdateStatus(context.Background(), "missing", orders.StatusShipped)
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	require.True(t, apiErr.IsNotFound())
}

func TestReset(t *testing.T) {
	f := newFixture(t, true)
	f.placeCustomerOrder(t)
	_, err := f.service.FetchAll(context.Background())
	require.NoError(t, err)

	f.service.Reset()
	require.Empty(t, f.service.All())
	require.Empty(t, f.service.Mine())
}
