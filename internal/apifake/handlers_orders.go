package apifake

import (
	"encoding/json"
	"math"
	"net/http"
	"slices"

	"github.com/google/uuid"
)

var orderStatuses = []string{"pending", "shipped", "delivered", "canceled"}

func (s *Server) renderOrderLocked(o *order, populateUser bool) map[string]any {
	items := make([]map[string]any, 0, len(o.items))
	for _, l := range o.items {
		var product any = l.productID
		if p := s.populatedLocked(l.productID); p != nil {
			product = p
		}
		items = append(items, map[string]any{"productId": product, "quantity": l.quantity, "price": l.price})
	}

	var user any = o.userID
	if populateUser {
		if u, ok := s.users[o.userID]; ok {
			user = map[string]string{"_id": u.ID, "name": u.Name, "email": u.Email}
		}
	}
	return map[string]any{
		"_id":           o.id,
		"userId":        user,
		"items":         items,
		"totalAmount":   o.total,
		"status":        o.status,
		"paymentMethod": o.paymentMethod,
		"createdAt":     o.createdAt,
	}
}

func (s *Server) handleGetOrders(w http.ResponseWriter, _ *http.Request, user *User) {
	s.mu.Lock()
	out := []map[string]any{}
	for _, o := range s.orders {
		if o.userID == user.ID {
			out = append(out, s.renderOrderLocked(o, false))
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAllOrders(w http.ResponseWriter, _ *http.Request, _ *User) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, s.renderOrderLocked(o, true))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request, user *User) {
	var req struct {
		PaymentMethod string `json:"paymentMethod"`
		PaymentPhone  string `json:"paymentPhone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PaymentMethod == "" {
		writeMessage(w, http.StatusBadRequest, "Payment method is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		items []orderLine
		total float64
	)
	for _, l := range s.carts[user.ID] {
		p, ok := s.products[l.productID]
		if !ok {
			continue
		}
		if p.Stock < l.quantity {
			writeMessage(w, http.StatusBadRequest, "Not enough stock for "+p.Name)
			return
		}
		price := p.Price * (1 - float64(p.Discount)/100)
		items = append(items, orderLine{productID: p.ID, quantity: l.quantity, price: price})
		total += price * float64(l.quantity)
	}
	if len(items) == 0 {
		writeMessage(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	for _, l := range items {
		s.products[l.productID].Stock -= l.quantity
	}

	o := &order{
		id:            uuid.NewString(),
		userID:        user.ID,
		items:         items,
		total:         math.Round(total*100) / 100,
		status:        "pending",
		paymentMethod: req.PaymentMethod,
		paymentPhone:  req.PaymentPhone,
		createdAt:     s.now(),
	}
	s.orders = append(s.orders, o)
	delete(s.carts, user.ID)

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Order placed successfully", "order": s.renderOrderLocked(o, false)})
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request, _ *User) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !slices.Contains(orderStatuses, req.Status) {
		writeMessage(w, http.StatusBadRequest, "Invalid status")
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.id == id {
			o.status = req.Status
			writeJSON(w, http.StatusOK, map[string]any{"message": "Order status updated", "order": s.renderOrderLocked(o, true)})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Order not found")
}
