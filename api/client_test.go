package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newTestServer creates a test server and client for testing.
func newTestServer(t *testing.T, handler http.HandlerFunc, options ...api.Option) *api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return api.NewClient(server.URL, options...)
}

func TestClient_GetWithBearerToken(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"products":[]}`))
	})

	var out struct {
		Products []any `json:"products"`
	}
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret-token"})
	err := client.Get(context.Background(), "cart.list", api.RouteCart, tokens, &out)
	require.NoError(t, err)
	require.NotNil(t, out.Products)
}

func TestClient_PublicRequestHasNoAuthorization(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	})

	var out []any
	require.NoError(t, client.Get(context.Background(), "products.list", api.RouteProducts, nil, &out))
}

func TestClient_PostJSONBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["productId"])
		assert.EqualValues(t, 2, body["quantity"])
		w.WriteHeader(http.StatusCreated)
	})

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"})
	body := map[string]any{"productId": "p1", "quantity": 2}
	require.NoError(t, client.Post(context.Background(), "cart.add", api.RouteCartAdd, tokens, body, nil))
}

type emptyTokenSource struct{}

func (emptyTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.ErrAuthRequired
}

func TestClient_MissingTokenSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	err := client.Get(context.Background(), "cart.list", api.RouteCart, emptyTokenSource{}, nil)
	require.ErrorIs(t, err, errors.ErrAuthRequired)
	require.Zero(t, calls.Load())
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "message field", status: http.StatusBadRequest, body: `{"message":"Product out of stock"}`, wantMessage: "Product out of stock"},
		{name: "error field", status: http.StatusUnauthorized, body: `{"error":"token expired"}`, wantMessage: "token expired"},
		{name: "plain text", status: http.StatusInternalServerError, body: `boom`, wantMessage: ""},
		{name: "empty body", status: http.StatusNotFound, body: ``, wantMessage: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.Get(context.Background(), "x", "/api/x", nil, nil)
			apiErr, ok := api.AsError(err)
			require.True(t, ok)
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.wantMessage, apiErr.Message)
			require.Equal(t, valueOr(tt.wantMessage, "fallback"), api.Message(err, "fallback"))
		})
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func TestMessage_TransportErrorUsesFallback(t *testing.T) {
	client := api.NewClient("http://127.0.0.1:1")
	err := client.Get(context.Background(), "x", "/api/x", nil, nil)
	require.Error(t, err)
	_, ok := api.AsError(err)
	require.False(t, ok)
	require.Equal(t, "Network error", api.Message(err, "Network error"))
}

func TestClient_InvalidJSONResponse(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":`))
	})

	var out map[string]any
	err := client.Get(context.Background(), "x", "/api/x", nil, &out)
	require.ErrorIs(t, err, errors.ErrInvalidResponse)
}

func TestClient_Multipart(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Silk Scarf", r.FormValue("name"))

		file, header, err := r.FormFile("image")
		assert.NoError(t, err)
		defer file.Close()
		content, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, "scarf.png", header.Filename)
		assert.Equal(t, "png-bytes", string(content))
		w.WriteHeader(http.StatusCreated)
	})

	err := client.Do(context.Background(), api.Request{
		Name:   "products.create",
		Method: http.MethodPost,
		Path:   api.RouteProducts,
		Multipart: &api.Multipart{
			Fields: map[string]string{"name": "Silk Scarf"},
			Files:  []api.FilePart{{Field: "image", FileName: "scarf.png", Content: strings.NewReader("png-bytes")}},
		},
		Tokens: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}),
	}, nil)
	require.NoError(t, err)
}

func TestClient_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, api.WithMetrics(m))

	require.NoError(t, client.Delete(context.Background(), "cart.remove", api.Path(api.RouteCartRemove, "p1"), nil, nil))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount("cart.remove", http.StatusNoContent)))
}

func TestPath_EscapesIdentifier(t *testing.T) {
	require.Equal(t, "/api/cart/remove/p%2F1", api.Path(api.RouteCartRemove, "p/1"))
	require.Equal(t, "/api/users/u1", api.Path("/api/users", "u1"))
}
