package users

import (
	"encoding/json"
	"strings"
)

// RoleType is the storefront role carried on the user record
type RoleType string

const (
	RoleAdmin    RoleType = "admin"    // Back-office access to products, orders and users
	RoleCustomer RoleType = "customer" // Regular shopper
)

type User struct {
	ID    string   `json:"id"`              // Unique identifier for the user
	Name  string   `json:"name,omitempty"`  // Display name
	Email string   `json:"email,omitempty"` // User's email address
	Phone string   `json:"phone,omitempty"` // Optional contact number
	Role  RoleType `json:"role,omitempty"`  // admin or customer
}

// UnmarshalJSON accepts either "id" or the document-store style "_id".
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Profile is the registration payload
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Normalize trims whitespace and lower-cases the email address
func (p Profile) Normalize() Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	return p
}

// ProfilePatch holds the fields to change on a profile update; nil fields are left out of the request
type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Password == nil
}
