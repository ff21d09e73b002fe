package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is what the shopper saw when picking a product. Price and
// stock may be stale by the time an order is submitted.
type ProductSnapshot struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"product_name"`
	ImageRef  string          `json:"product_image"`
	UnitPrice decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

type CartItem struct {
	ProductSnapshot
	Quantity int  `json:"quantity"`
	Selected bool `json:"selected"`
}

// LineTotal is unit price times quantity, unrounded.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// UnmarshalJSON treats a missing "selected" key as selected, matching carts
// written before selection existed.
func (i *CartItem) UnmarshalJSON(data []byte) error {
	type plain CartItem
	aux := struct {
		*plain
		Selected *bool `json:"selected"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	i.Selected = aux.Selected == nil || *aux.Selected
	return nil
}
