// Package catalog mirrors the public product catalogue and carries the admin product operations.
package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/mirror"
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Discount    int       `json:"discount"` // percent, 0 to 100
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags,omitempty"`
	Image       string    `json:"image,omitempty"`
	IsFeatured  bool      `json:"isFeatured"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// Ref is a foreign reference to a product from another collection
type Ref = mirror.Ref[Product]

// UnmarshalJSON accepts either "id" or "_id".
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw.plain)
	if p.ID == "" {
		p.ID = raw.MongoID
	}
	return nil
}

// FinalPrice is the unit price after discount
func (p Product) FinalPrice() float64 {
	return p.Price * (1 - float64(p.Discount)/100)
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// Matches reports whether query appears in the name, description, category or any tag, ignoring case.
// An empty query matches everything.
func (p Product) Matches(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	if utils.ContainsFold(p.Name, query) || utils.ContainsFold(p.Description, query) || utils.ContainsFold(p.Category, query) {
		return true
	}
	for _, tag := range p.Tags {
		if utils.ContainsFold(tag, query) {
			return true
		}
	}
	return false
}

// NewProduct is the admin create payload
type NewProduct struct {
	Name        string
	Description string
	Price       float64
	Discount    int
	Stock       int
	Category    string
	Tags        []string
	IsFeatured  bool
	Image       *Image // optional upload
}

func (np NewProduct) Validate() error {
	if strings.TrimSpace(np.Name) == "" {
		return errors.Invalidf("product name is required")
	}
	if strings.TrimSpace(np.Category) == "" {
		return errors.Invalidf("product category is required")
	}
	if np.Price < 0 {
		return errors.Invalidf("price cannot be negative")
	}
	if np.Discount < 0 || np.Discount > 100 {
		return errors.Invalidf("discount must be between 0 and 100")
	}
	if np.Stock < 0 {
		return errors.Invalidf("stock cannot be negative")
	}
	return nil
}

// fields are the multipart form values; tags travel as one comma separated value
func (np NewProduct) fields() map[string]string {
	return map[string]string{
		"name":        np.Name,
		"description": np.Description,
		"price":       strconv.FormatFloat(np.Price, 'f', -1, 64),
		"discount":    strconv.Itoa(np.Discount),
		"stock":       strconv.Itoa(np.Stock),
		"category":    np.Category,
		"tags":        strings.Join(np.Tags, ","),
		"isFeatured":  strconv.FormatBool(np.IsFeatured),
	}
}

// ProductPatch holds the fields to change; nil fields are left out of the request
type ProductPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Discount    *int      `json:"discount,omitempty"`
	Stock       *int      `json:"stock,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsFeatured  *bool     `json:"isFeatured,omitempty"`
}

func (pp ProductPatch) Validate() error {
	if pp == (ProductPatch{}) {
		return errors.Invalidf("nothing to update")
	}
	if pp.Price != nil && *pp.Price < 0 {
		return errors.Invalidf("price cannot be negative")
	}
	if pp.Discount != nil && (*pp.Discount < 0 || *pp.Discount > 100) {
		return errors.Invalidf("discount must be between 0 and 100")
	}
	if pp.Stock != nil && *pp.Stock < 0 {
		return errors.Invalidf("stock cannot be negative")
	}
	return nil
}
