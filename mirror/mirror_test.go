package mirror_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/jrsteele09/go-storefront/mirror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type line struct {
	Product  mirror.Ref[widget] `json:"productId"`
	Quantity int                `json:"quantity"`
}

func lineConfig() mirror.Config[line] {
	return mirror.Config[line]{
		Name:        "cart",
		Path:        "/api/cart",
		RequireAuth: true,
		Decode:      mirror.DecodeField[line]("products"),
		Valid:       func(l line) bool { return l.Product.Resolved() },
		Key:         func(l line) string { return l.Product.ID },
	}
}

var tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"})

// scriptedServer answers each request with the next body in turn; the last body repeats.
type scriptedServer struct {
	mu       sync.Mutex
	statuses []int
	bodies   []string
	requests int32
}

func (s *scriptedServer) handler(w http.ResponseWriter, _ *http.Request) {
	n := int(atomic.AddInt32(&s.requests, 1)) - 1
	s.mu.Lock()
	i := min(n, len(s.bodies)-1)
	status, body := s.statuses[i], s.bodies[i]
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newMirror(t *testing.T, handler http.HandlerFunc, opts ...mirror.Option) *mirror.Mirror[line] {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	m, err := mirror.New(api.NewClient(server.URL), lineConfig(), append(opts, mirror.WithLogger(zerolog.Nop()))...)
	require.NoError(t, err)
	return m
}

func TestNew_Validation(t *testing.T) {
	client := api.NewClient("http://localhost")

	_, err := mirror.New[line](nil, lineConfig())
	require.Error(t, err)

	cfg := lineConfig()
	cfg.Path = ""
	_, err = mirror.New(client, cfg)
	require.ErrorIs(t, err, errors.ErrInvalidArgument)

	cfg = lineConfig()
	cfg.Key = nil
	_, err = mirror.New(client, cfg)
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestRefresh_FiltersUnresolvedReferences(t *testing.T) {
	srv := &scriptedServer{
		statuses: []int{http.StatusOK},
		bodies: []string{`{"products":[
			{"productId":{"_id":"p1","name":"Scarf"},"quantity":1},
			{"productId":null,"quantity":3},
			{"quantity":4},
			{"productId":"p2","quantity":2}
		]}`},
	}
	m := newMirror(t, srv.handler)
	require.Equal(t, mirror.StateEmpty, m.State())

	items, err := m.Refresh(context.Background(), tokens)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, l := range m.Items() {
		require.True(t, l.Product.Resolved())
	}
	require.Equal(t, mirror.StatePopulated, m.State())

	found, ok := m.Find("p2")
	require.True(t, ok)
	require.Equal(t, 2, found.Quantity)
}

func TestRefresh_MissingFieldIsEmpty(t *testing.T) {
	srv := &scriptedServer{statuses: []int{http.StatusOK}, bodies: []string{`{}`}}
	m := newMirror(t, srv.handler)

	items, err := m.Refresh(context.Background(), tokens)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, mirror.StatePopulated, m.State())
}

func TestRefresh_FailureKeepsLastKnownLines(t *testing.T) {
	srv := &scriptedServer{
		statuses: []int{http.StatusOK, http.StatusInternalServerError},
		bodies:   []string{`{"products":[{"productId":"p1","quantity":1}]}`, `{"message":"boom"}`},
	}
	m := newMirror(t, srv.handler)

	_, err := m.Refresh(context.Background(), tokens)
	require.NoError(t, err)
	before := m.Items()

	_, err = m.Refresh(context.Background(), tokens)
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	require.Equal(t, before, m.Items())
	require.Equal(t, mirror.StatePopulated, m.State())
}

func TestRefresh_FailureFromEmptyStaysEmpty(t *testing.T) {
	srv := &scriptedServer{statuses: []int{http.StatusBadGateway}, bodies: []string{``}}
	m := newMirror(t, srv.handler)

	_, err := m.Refresh(context.Background(), tokens)
	require.Error(t, err)
	require.Equal(t, mirror.StateEmpty, m.State())
	require.Nil(t, m.Items())
}

func TestRefresh_InvalidBody(t *testing.T) {
	srv := &scriptedServer{statuses: []int{http.StatusOK}, bodies: []string{`{"products":"nope"}`}}
	m := newMirror(t, srv.handler)

	_, err := m.Refresh(context.Background(), tokens)
	require.ErrorIs(t, err, errors.ErrInvalidResponse)
}

func TestRefresh_RequireAuthWithoutTokensSkipsNetwork(t *testing.T) {
	srv := &scriptedServer{statuses: []int{http.StatusOK}, bodies: []string{`{}`}}
	m := newMirror(t, srv.handler)

	_, err := m.Refresh(context.Background(), nil)
	require.ErrorIs(t, err, errors.ErrAuthRequired)
	require.Zero(t, atomic.LoadInt32(&srv.requests))
}

func TestRefresh_LaterIssuedFetchWins(t *testing.T) {
	release := make(chan struct{})
	firstArrived := make(chan struct{})
	var calls int32
	handler := func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(firstArrived)
			<-release
			_, _ = w.Write([]byte(`{"products":[{"productId":"old","quantity":1}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"products":[{"productId":"new","quantity":1}]}`))
	}
	m := newMirror(t, handler)

	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background(), tokens)
		done <- err
	}()
	<-firstArrived
	require.Equal(t, mirror.StateLoading, m.State())

	_, err := m.Refresh(context.Background(), tokens)
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	items := m.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].Product.ID)
	require.Equal(t, mirror.StatePopulated, m.State())
}

func TestResetDiscardsInFlightFetch(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{})
	handler := func(w http.ResponseWriter, _ *http.Request) {
		close(arrived)
		<-release
		_, _ = w.Write([]byte(`{"products":[{"productId":"p1","quantity":1}]}`))
	}
	m := newMirror(t, handler)

	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background(), tokens)
		done <- err
	}()
	<-arrived
	m.Reset()
	close(release)
	require.NoError(t, <-done)

	require.Empty(t, m.Items())
	require.Equal(t, mirror.StateEmpty, m.State())
}

func TestRemoveLocal(t *testing.T) {
	srv := &scriptedServer{
		statuses: []int{http.StatusOK},
		bodies:   []string{`{"products":[{"productId":"p1","quantity":1},{"productId":"p2","quantity":2}]}`},
	}
	m := newMirror(t, srv.handler)
	_, err := m.Refresh(context.Background(), tokens)
	require.NoError(t, err)

	m.RemoveLocal("p1")
	require.Equal(t, 1, m.Len())
	_, ok := m.Find("p1")
	require.False(t, ok)

	m.RemoveLocal("missing")
	require.Equal(t, 1, m.Len())
}

func TestRefresh_RecordsMetrics(t *testing.T) {
	srv := &scriptedServer{
		statuses: []int{http.StatusOK, http.StatusInternalServerError},
		bodies:   []string{`{"products":[{"productId":"p1","quantity":1}]}`, `{}`},
	}
	met := metrics.New(prometheus.NewRegistry())
	m := newMirror(t, srv.handler, mirror.WithMetrics(met))

	_, _ = m.Refresh(context.Background(), tokens)
	_, _ = m.Refresh(context.Background(), tokens)

	require.Equal(t, 1.0, testutil.ToFloat64(met.RefreshCount("cart", "applied")))
	require.Equal(t, 1.0, testutil.ToFloat64(met.RefreshCount("cart", "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(met.MirrorSize("cart")))
}

func TestDecodeArray(t *testing.T) {
	items, err := mirror.DecodeArray[widget]([]byte(`[{"name":"a"},{"name":"b"}]`))
	require.NoError(t, err)
	require.Equal(t, []widget{{Name: "a"}, {Name: "b"}}, items)

	_, err = mirror.DecodeArray[widget]([]byte(`{}`))
	require.Error(t, err)
}
