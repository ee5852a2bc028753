package orders

import (
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/mirror"
	"github.com/jrsteele09/go-storefront/users"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

var Statuses = []Status{StatusPending, StatusShipped, StatusDelivered, StatusCanceled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

// DefaultPaymentMethod is the mobile money method the checkout page preselects
const DefaultPaymentMethod = "evc-plus"

type Item struct {
	Product  catalog.Ref `json:"productId"`
	Quantity int         `json:"quantity"`
	Price    float64     `json:"price,omitempty"` // unit price charged, when the server reports it
}

type Order struct {
	ID            string                 `json:"id"`
	User          mirror.Ref[users.User] `json:"userId"`
	Items         []Item                 `json:"items"`
	TotalAmount   float64                `json:"totalAmount"`
	Status        Status                 `json:"status"`
	PaymentMethod string                 `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// UnmarshalJSON accepts either "id" or "_id".
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = Order(raw.plain)
	if o.ID == "" {
		o.ID = raw.MongoID
	}
	return nil
}

// ItemCount sums item quantities
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Checkout is the payment choice sent with an order
type Checkout struct {
	PaymentMethod string `json:"paymentMethod"`
	PaymentPhone  string `json:"paymentPhone,omitempty"`
}
