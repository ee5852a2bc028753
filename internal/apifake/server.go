// Package apifake is an in-memory storefront API served over httptest, used by tests.
package apifake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type Product struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Discount    int       `json:"discount"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Image       string    `json:"image"`
	IsFeatured  bool      `json:"isFeatured"`
	CreatedAt   time.Time `json:"createdAt"`
}

type User struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	password string
}

type cartLine struct {
	productID string
	quantity  int
}

type orderLine struct {
	productID string
	quantity  int
	price     float64
}

type order struct {
	id            string
	userID        string
	items         []orderLine
	total         float64
	status        string
	paymentMethod string
	paymentPhone  string
	createdAt     time.Time
}

// RecordedRequest is one request the fake received
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type failure struct {
	status  int
	message string
}

// Server is a fake storefront API. All state lives in memory and is safe for concurrent use.
type Server struct {
	URL string

	server *httptest.Server
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	// registerWithoutToken mimics an email-verification flow where registration returns no session
	registerWithoutToken bool

	mu           sync.Mutex
	users        map[string]*User
	products     map[string]*Product
	productOrder []string
	carts        map[string][]cartLine
	wishlists    map[string][]string
	orders       []*order
	requests     []RecordedRequest
	failures     map[string][]failure
}

type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens; zero issues tokens without exp
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.ttl = ttl
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithRegistrationVerification makes /api/auth/register answer without a token or user
func WithRegistrationVerification() Option {
	return func(s *Server) {
		s.registerWithoutToken = true
	}
}

// New starts a fake API and closes it when the test ends
func New(t testing.TB, options ...Option) *Server {
	t.Helper()

	s := &Server{
		secret:    []byte(uuid.NewString()),
		ttl:       time.Hour,
		now:       time.Now,
		users:     make(map[string]*User),
		products:  make(map[string]*Product),
		carts:     make(map[string][]cartLine),
		wishlists: make(map[string][]string),
		failures:  make(map[string][]failure),
	}
	for _, opt := range options {
		opt(s)
	}

	s.server = httptest.NewServer(s.middleware(s.routes()))
	s.URL = s.server.URL
	t.Cleanup(s.server.Close)
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("PUT /api/users/{id}", s.requireUser(s.handleUpdateUser))

	mux.HandleFunc("GET /api/cart", s.requireUser(s.handleGetCart))
	mux.HandleFunc("POST /api/cart/add", s.requireUser(s.handleAddToCart))
	mux.HandleFunc("DELETE /api/cart/remove/{productId}", s.requireUser(s.handleRemoveFromCart))

	mux.HandleFunc("GET /api/wishlist", s.requireUser(s.handleGetWishlist))
	mux.HandleFunc("POST /api/wishlist/add", s.requireUser(s.handleAddToWishlist))
	mux.HandleFunc("DELETE /api/wishlist/remove/{productId}", s.requireUser(s.handleRemoveFromWishlist))

	mux.HandleFunc("GET /api/orders", s.requireUser(s.handleGetOrders))
	mux.HandleFunc("GET /api/orders/all", s.requireAdmin(s.handleGetAllOrders))
	mux.HandleFunc("POST /api/orders/checkout", s.requireUser(s.handleCheckout))
	mux.HandleFunc("PUT /api/orders/{id}", s.requireAdmin(s.handleUpdateOrder))

	mux.HandleFunc("GET /api/products", s.handleListProducts)
	mux.HandleFunc("GET /api/products/featured", s.handleFeaturedProducts)
	mux.HandleFunc("GET /api/products/categories", s.handleCategories)
	mux.HandleFunc("GET /api/products/category/{category}", s.handleProductsByCategory)
	mux.HandleFunc("GET /api/products/{id}", s.handleGetProduct)
	mux.HandleFunc("POST /api/products", s.requireAdmin(s.handleCreateProduct))
	mux.HandleFunc("PUT /api/products/{id}", s.requireAdmin(s.handleUpdateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", s.requireAdmin(s.handleDeleteProduct))
	return mux
}

// middleware records every request and applies queued failures before routing
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		key := r.Method + " " + r.URL.Path
		var (
			f      failure
			failed bool
		)
		if queued := s.failures[key]; len(queued) > 0 {
			f, failed = queued[0], true
			s.failures[key] = queued[1:]
		}
		s.mu.Unlock()

		if failed {
			writeMessage(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user *User)

func (s *Server) requireUser(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, status, msg := s.authenticate(r)
		if user == nil {
			writeMessage(w, status, msg)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) requireAdmin(next authedHandler) http.HandlerFunc {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request, user *User) {
		if user.Role != RoleAdmin {
			writeMessage(w, http.StatusForbidden, "Access denied. Admin only.")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authenticate(r *http.Request) (*User, int, string) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, http.StatusUnauthorized, "No token, authorization denied"
	}

	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(s.now))
	if err != nil {
		return nil, http.StatusUnauthorized, "Token is not valid"
	}
	id, _ := claims["id"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, http.StatusUnauthorized, "User not found"
	}
	copied := *user
	return &copied, 0, ""
}

func (s *Server) issueToken(user *User) string {
	claims := jwtlib.MapClaims{
		"id":   user.ID,
		"role": user.Role,
		"jti":  uuid.NewString(),
		"iat":  s.now().Unix(),
	}
	if s.ttl > 0 {
		claims["exp"] = s.now().Add(s.ttl).Unix()
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apifake: sign token: %v", err))
	}
	return signed
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// FailNext makes the next request matching method and path answer with status and message
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], failure{status: status, message: message})
}

// AddUser creates an account and returns its id
func (s *Server) AddUser(name, email, password, role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[id] = &User{ID: id, Name: name, Email: strings.ToLower(email), Role: role, password: password}
	return id
}

// TokenFor issues a bearer token for an existing user, as a login would
func (s *Server) TokenFor(userID string) string {
	s.mu.Lock()
	user, ok := s.users[userID]
	s.mu.Unlock()
	if !ok {
		panic("apifake: unknown user " + userID)
	}
	return s.issueToken(user)
}

// AddProduct stores p (assigning an id when empty) and returns its id
func (s *Server) AddProduct(p Product) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addProductLocked(p)
}

func (s *Server) addProductLocked(p Product) string {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if _, exists := s.products[p.ID]; !exists {
		s.productOrder = append(s.productOrder, p.ID)
	}
	s.products[p.ID] = &p
	return p.ID
}

// DeleteProduct removes a product from the catalogue but leaves cart and wishlist lines pointing at it,
// as the real server does
func (s *Server) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteProductLocked(id)
}

func (s *Server) deleteProductLocked(id string) bool {
	if _, ok := s.products[id]; !ok {
		return false
	}
	delete(s.products, id)
	s.productOrder = slices.DeleteFunc(s.productOrder, func(pid string) bool { return pid == id })
	return true
}

func (s *Server) Product(id string) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

// SetCartLine writes a cart line directly, bypassing the API
func (s *Server) SetCartLine(userID, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCartLineLocked(userID, productID, quantity)
}

func (s *Server) setCartLineLocked(userID, productID string, quantity int) {
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].productID == productID {
			lines[i].quantity = quantity
			return
		}
	}
	s.carts[userID] = append(lines, cartLine{productID: productID, quantity: quantity})
}

// CartQuantity returns the server-side quantity of a cart line, zero when absent
func (s *Server) CartQuantity(userID, productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.carts[userID] {
		if l.productID == productID {
			return l.quantity
		}
	}
	return 0
}

func (s *Server) CartSize(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts[userID])
}

// AddWishlistLine writes a wishlist line directly, bypassing the API
func (s *Server) AddWishlistLine(userID, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.wishlists[userID], productID) {
		s.wishlists[userID] = append(s.wishlists[userID], productID)
	}
}

func (s *Server) WishlistSize(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.wishlists[userID])
}

func (s *Server) OrderStatus(orderID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.id == orderID {
			return o.status, true
		}
	}
	return "", false
}

func (s *Server) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestCount counts recorded requests; an empty method or path matches anything
func (s *Server) RequestCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if (method == "" || r.Method == method) && (path == "" || r.Path == path) {
			n++
		}
	}
	return n
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}
