package apifake

import (
	"encoding/json"
	"net/http"
	"slices"
)

type productRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// populated returns the product for the line, or nil when it has been deleted
func (s *Server) populatedLocked(productID string) *Product {
	if p, ok := s.products[productID]; ok {
		copied := *p
		return &copied
	}
	return nil
}

func (s *Server) handleGetCart(w http.ResponseWriter, _ *http.Request, user *User) {
	s.mu.Lock()
	lines := make([]map[string]any, 0, len(s.carts[user.ID]))
	for _, l := range s.carts[user.ID] {
		lines = append(lines, map[string]any{"productId": s.populatedLocked(l.productID), "quantity": l.quantity})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"userId": user.ID, "products": lines})
}

// handleAddToCart sets the line to the requested quantity
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request, user *User) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity < 1 {
		writeMessage(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[req.ProductID]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	if req.Quantity > p.Stock {
		writeMessage(w, http.StatusBadRequest, "Not enough stock")
		return
	}
	s.setCartLineLocked(user.ID, req.ProductID, req.Quantity)
	writeMessage(w, http.StatusOK, "Cart updated")
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request, user *User) {
	productID := r.PathValue("productId")

	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[user.ID]
	idx := slices.IndexFunc(lines, func(l cartLine) bool { return l.productID == productID })
	if idx < 0 {
		writeMessage(w, http.StatusNotFound, "Product not in cart")
		return
	}
	s.carts[user.ID] = slices.Delete(lines, idx, idx+1)
	writeMessage(w, http.StatusOK, "Removed from cart")
}

func (s *Server) handleGetWishlist(w http.ResponseWriter, _ *http.Request, user *User) {
	s.mu.Lock()
	lines := make([]map[string]any, 0, len(s.wishlists[user.ID]))
	for _, id := range s.wishlists[user.ID] {
		lines = append(lines, map[string]any{"productId": s.populatedLocked(id)})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"userId": user.ID, "products": lines})
}

func (s *Server) handleAddToWishlist(w http.ResponseWriter, r *http.Request, user *User) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[req.ProductID]; !ok {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	if slices.Contains(s.wishlists[user.ID], req.ProductID) {
		writeMessage(w, http.StatusBadRequest, "Product already in wishlist")
		return
	}
	s.wishlists[user.ID] = append(s.wishlists[user.ID], req.ProductID)
	writeMessage(w, http.StatusOK, "Added to wishlist")
}

func (s *Server) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request, user *User) {
	productID := r.PathValue("productId")

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.wishlists[user.ID]
	idx := slices.Index(list, productID)
	if idx < 0 {
		writeMessage(w, http.StatusNotFound, "Product not in wishlist")
		return
	}
	s.wishlists[user.ID] = slices.Delete(list, idx, idx+1)
	writeMessage(w, http.StatusOK, "Removed from wishlist")
}
