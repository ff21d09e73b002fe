package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DraftSource string

const (
	DraftSourceCart   DraftSource = "cart"
	DraftSourceBuyNow DraftSource = "buy_now"
)

type DraftItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"product_name"`
	ImageRef  string          `json:"product_image"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// DraftOrder is the purchase being assembled. It lives only in memory and
// is never persisted.
type DraftOrder struct {
	ID        string      `json:"id"`
	Source    DraftSource `json:"source"`
	Items     []DraftItem `json:"items"`
	Address   *Address    `json:"address,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Total is the rounded sum of the snapshot prices.
func (d DraftOrder) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range d.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.Round(2)
}

func (d DraftOrder) ProductIDs() []int64 {
	ids := make([]int64, 0, len(d.Items))
	for _, it := range d.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// Clone returns a deep copy so callers cannot mutate the live draft.
func (d DraftOrder) Clone() DraftOrder {
	c := d
	c.Items = append([]DraftItem(nil), d.Items...)
	if d.Address != nil {
		a := *d.Address
		c.Address = &a
	}
	return c
}
