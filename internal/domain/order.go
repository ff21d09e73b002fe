package domain

import "github.com/shopspring/decimal"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending
}

func (s OrderStatus) CanPay() bool {
	return s == OrderStatusPending
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ID           int64           `json:"id,omitempty"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

type Order struct {
	ID            int64           `json:"id"`
	OrderNo       string          `json:"order_no"`
	Status        OrderStatus     `json:"status"`
	Items         []OrderItem     `json:"items"`
	AddressID     int64           `json:"address_id,omitempty"`
	Address       *Address        `json:"address,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Remark        string          `json:"remark,omitempty"`
	CreatedAt     string          `json:"created_at,omitempty"`
}
