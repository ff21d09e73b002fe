package surface

import (
	"context"
	"strconv"

	"github.com/fjod/shopflow/internal/domain"
)

type Name string

const (
	Home          Name = "home"
	Product       Name = "product"
	Cart          Name = "cart"
	Checkout      Name = "checkout"
	AddressSelect Name = "address_select"
	Login         Name = "login"
	OrderDetail   Name = "order_detail"
	Orders        Name = "orders"
)

// Destination is a screen plus the parameters it needs to render.
type Destination struct {
	Surface Name              `json:"surface"`
	Params  map[string]string `json:"params,omitempty"`
}

func To(name Name) Destination {
	return Destination{Surface: name}
}

func ProductPage(productID int64) Destination {
	return Destination{Surface: Product, Params: map[string]string{"id": strconv.FormatInt(productID, 10)}}
}

func OrderPage(orderID int64) Destination {
	return Destination{Surface: OrderDetail, Params: map[string]string{"id": strconv.FormatInt(orderID, 10)}}
}

func (d Destination) IsZero() bool {
	return d.Surface == ""
}

// Navigator moves the shopper between surfaces. Present pushes a surface;
// Reset drops the history and relaunches at the destination.
type Navigator interface {
	Present(ctx context.Context, dest Destination)
	Reset(ctx context.Context, dest Destination)
}

// Notifier shows a transient message.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// AddressSelector presents addresses and returns the one the shopper picked,
// or domain.ErrSelectionCancelled.
type AddressSelector interface {
	SelectAddress(ctx context.Context, addresses []domain.Address) (domain.Address, error)
}

type SelectorFunc func(ctx context.Context, addresses []domain.Address) (domain.Address, error)

func (f SelectorFunc) SelectAddress(ctx context.Context, addresses []domain.Address) (domain.Address, error) {
	return f(ctx, addresses)
}
