package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. Transitions only move forward; cancelled is reachable from
// any non-terminal status.
const (
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment methods accepted at checkout.
const (
	PaymentCOD    = "cod"
	PaymentOnline = "online"
)

// Order is a submitted checkout. OrderID is caller-generated and globally
// unique so that retries of the same submission collapse into one record.
// Customer fields are a point-in-time snapshot, not a profile reference.
type Order struct {
	BaseModel
	OrderID          string      `gorm:"uniqueIndex" json:"order_id"`
	CustomerName     string      `json:"customer_name"`
	CustomerEmail    string      `gorm:"index" json:"customer_email"`
	CustomerPhone    string      `json:"customer_phone"`
	ShippingAddress  string      `json:"shipping_address"`
	ShippingCity     string      `json:"shipping_city"`
	ShippingState    string      `json:"shipping_state"`
	ShippingPincode  string      `json:"shipping_pincode"`
	Subtotal         float64     `json:"subtotal"`
	ShippingFee      float64     `json:"shipping_fee"`
	TotalAmount      float64     `json:"total_amount"`
	PaymentMethod    string      `json:"payment_method"`
	Status           string      `json:"status"`
	OrderDate        time.Time   `gorm:"index" json:"order_date"`
	Items            []OrderItem `gorm:"foreignKey:OrderRef" json:"items,omitempty"`
}

// OrderItem is one line of an order, created with it and immutable after.
type OrderItem struct {
	BaseModel
	OrderRef      uuid.UUID `gorm:"type:uuid;index" json:"-"`
	OrderID       string    `gorm:"index" json:"order_id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Category      string    `json:"category"`
	CatalogNumber string    `json:"catalog_number"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	LineTotal     float64   `json:"line_total"`
	ImageRef      string    `json:"image_ref"`
}
