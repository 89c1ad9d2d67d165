package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseStatus validates enum membership. Any status may follow any status;
// there is deliberately no transition graph here.
func ParseStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

// OrderItem snapshots the unit price at order time; it never changes after
// commit even if the catalog price later does. ProductName and ProductImage
// are filled from the current catalog when an order is read back, never
// stored.
type OrderItem struct {
	ID           int64   `json:"id,omitempty"`
	ProductID    int64   `json:"product_id"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	ProductName  string  `json:"product_name,omitempty"`
	ProductImage string  `json:"product_image,omitempty"`
}

type Order struct {
	ID        int64       `json:"id"`
	SessionID string      `json:"-"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CartLine is a read-only view of one cart entry as reported by the cart
// service. Quantity is always positive in a snapshot.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ProductInfo is the slice of the catalog the orchestrator needs to re-price
// a line and decorate it on reads.
type ProductInfo struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
	Available bool    `json:"available"`
}
