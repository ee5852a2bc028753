package apifake

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	var found *User
	for _, u := range s.users {
		if u.Email == strings.ToLower(strings.TrimSpace(req.Email)) && u.password == req.Password {
			copied := *u
			found = &copied
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": s.issueToken(found), "user": found})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Please provide name, email and password")
		return
	}

	s.mu.Lock()
	email := strings.ToLower(req.Email)
	for _, u := range s.users {
		if u.Email == email {
			s.mu.Unlock()
			writeMessage(w, http.StatusBadRequest, "User already exists")
			return
		}
	}
	user := &User{ID: uuid.NewString(), Name: req.Name, Email: email, Phone: req.Phone, Role: RoleCustomer, password: req.Password}
	s.users[user.ID] = user
	copied := *user
	s.mu.Unlock()

	if s.registerWithoutToken {
		writeMessage(w, http.StatusCreated, "Registration successful. Please verify your email.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": s.issueToken(&copied), "user": copied})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, caller *User) {
	id := r.PathValue("id")
	if caller.ID != id && caller.Role != RoleAdmin {
		writeMessage(w, http.StatusForbidden, "Not authorized to update this user")
		return
	}

	var patch struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	user, ok := s.users[id]
	if !ok {
		s.mu.Unlock()
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = strings.ToLower(*patch.Email)
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.Password != nil {
		user.password = *patch.Password
	}
	copied := *user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"message": "User updated", "user": copied})
}
