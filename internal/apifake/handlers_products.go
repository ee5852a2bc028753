package apifake

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) listProducts(keep func(*Product) bool) []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Product{}
	for _, id := range s.productOrder {
		if p := s.products[id]; keep(p) {
			out = append(out, *p)
		}
	}
	return out
}

func (s *Server) handleListProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.listProducts(func(*Product) bool { return true }))
}

func (s *Server) handleFeaturedProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.listProducts(func(p *Product) bool { return p.IsFeatured }))
}

func (s *Server) handleProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	writeJSON(w, http.StatusOK, s.listProducts(func(p *Product) bool { return strings.EqualFold(p.Category, category) }))
}

// handleCategories answers with product counts keyed by category
func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	counts := map[string]int{}
	for _, p := range s.listProducts(func(*Product) bool { return true }) {
		counts[p.Category]++
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Product(r.PathValue("id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, _ *User) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Expected multipart form")
		return
	}

	p := Product{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		IsFeatured:  r.FormValue("isFeatured") == "true",
	}
	if p.Name == "" || p.Category == "" {
		writeMessage(w, http.StatusBadRequest, "Name and category are required")
		return
	}
	var err error
	if p.Price, err = strconv.ParseFloat(r.FormValue("price"), 64); err != nil || p.Price < 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid price")
		return
	}
	if v := r.FormValue("discount"); v != "" {
		if p.Discount, err = strconv.Atoi(v); err != nil || p.Discount < 0 || p.Discount > 100 {
			writeMessage(w, http.StatusBadRequest, "Invalid discount")
			return
		}
	}
	if v := r.FormValue("stock"); v != "" {
		if p.Stock, err = strconv.Atoi(v); err != nil || p.Stock < 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid stock")
			return
		}
	}
	for _, tag := range strings.Split(r.FormValue("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			p.Tags = append(p.Tags, tag)
		}
	}
	if _, header, err := r.FormFile("image"); err == nil {
		p.Image = "/uploads/" + header.Filename
	}

	s.mu.Lock()
	id := s.addProductLocked(p)
	created := *s.products[id]
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Product created", "product": created})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request, _ *User) {
	var patch struct {
		Name        *string   `json:"name"`
		Description *string   `json:"description"`
		Price       *float64  `json:"price"`
		Discount    *int      `json:"discount"`
		Stock       *int      `json:"stock"`
		Category    *string   `json:"category"`
		Tags        *[]string `json:"tags"`
		IsFeatured  *bool     `json:"isFeatured"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[r.PathValue("id")]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Discount != nil {
		p.Discount = *patch.Discount
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
	}
	if patch.IsFeatured != nil {
		p.IsFeatured = *patch.IsFeatured
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product updated", "product": *p})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request, _ *User) {
	s.mu.Lock()
	deleted := s.deleteProductLocked(r.PathValue("id"))
	s.mu.Unlock()
	if !deleted {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted")
}
