package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestProduct_UnmarshalAcceptsMongoID(t *testing.T) {
	var p catalog.Product
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"p1","name":"Abaya","price":40,"discount":25,"tags":["modest","black"]}`), &p))
	require.Equal(t, "p1", p.ID)
	require.Equal(t, "Abaya", p.Name)
	require.InDelta(t, 30.0, p.FinalPrice(), 0.0001)
}

func TestProduct_Matches(t *testing.T) {
	p := catalog.Product{Name: "Silk Scarf", Description: "Light summer wrap", Category: "Accessories", Tags: []string{"Gift"}}

	for _, q := range []string{"", "silk", "SUMMER", "accessor", "gift"} {
		require.True(t, p.Matches(q), q)
	}
	require.False(t, p.Matches("dress"))
}

func TestNewProduct_Validate(t *testing.T) {
	valid := catalog.NewProduct{Name: "Dress", Category: "dresses", Price: 10, Discount: 10, Stock: 3}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(*catalog.NewProduct)
	}{
		{name: "no name", modify: func(p *catalog.NewProduct) { p.Name = " " }},
		{name: "no category", modify: func(p *catalog.NewProduct) { p.Category = "" }},
		{name: "negative price", modify: func(p *catalog.NewProduct) { p.Price = -1 }},
		{name: "discount over 100", modify: func(p *catalog.NewProduct) { p.Discount = 101 }},
		{name: "negative stock", modify: func(p *catalog.NewProduct) { p.Stock = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.modify(&p)
			require.ErrorIs(t, p.Validate(), errors.ErrInvalidArgument)
		})
	}
}

func TestProductPatch_Validate(t *testing.T) {
	require.ErrorIs(t, catalog.ProductPatch{}.Validate(), errors.ErrInvalidArgument)
	require.ErrorIs(t, catalog.ProductPatch{Discount: utils.Ptr(-5)}.Validate(), errors.ErrInvalidArgument)
	require.NoError(t, catalog.ProductPatch{Stock: utils.Ptr(0)}.Validate())
}
