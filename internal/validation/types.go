package validation

import "time"

// CustomerInfo is the shopper snapshot submitted with a checkout.
type CustomerInfo struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Pincode  string `json:"pincode" validate:"required"`
}

// CheckoutItem is one submitted cart line.
type CheckoutItem struct {
	ID            string   `json:"id" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	Price         float64  `json:"price" validate:"gte=0"`
	Quantity      int      `json:"quantity" validate:"required,min=1"`
	Category      string   `json:"category"`
	CatalogNumber string   `json:"catalogNumber"`
	Images        []string `json:"images"`
}

// CheckoutRequest is the order submission consumed by the intake pipeline.
// OrderID is generated client-side before submission so retries reuse it.
type CheckoutRequest struct {
	OrderID       string         `json:"orderId" validate:"required"`
	CustomerInfo  CustomerInfo   `json:"customerInfo" validate:"required"`
	Items         []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	TotalAmount   float64        `json:"totalAmount" validate:"gte=0"`
	PaymentMethod string         `json:"paymentMethod" validate:"required,oneof=cod online"`
	OrderDate     time.Time      `json:"orderDate"`
}

// OTPRequest asks for a fresh challenge.
type OTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required,oneof=signup password_reset"`
}

// OTPVerifyRequest submits a code for verification.
type OTPVerifyRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required,oneof=signup password_reset"`
	Code    string `json:"code" validate:"required,len=6,numeric"`
}
