package models

import "time"

// OrderLine is one cart line. Subtotal is always Price*Qty; Spicy and
// NonSpicy are mutually exclusive flags used only for burger/sandwich items.
type OrderLine struct {
	Item     string  `json:"item"`
	Qty      int     `json:"qty"`
	Spicy    int     `json:"spicy"`
	NonSpicy int     `json:"nonspicy"`
	Price    float64 `json:"price"`
	Subtotal float64 `json:"subtotal"`
	Category string  `json:"category"`
}

type Order struct {
	ID            int64       `json:"id"`
	Phone         string      `json:"phone"`
	Lines         []OrderLine `json:"lines"`
	Total         float64     `json:"total"`
	PaymentMethod string      `json:"payment_method"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusUnpaid    = "unpaid"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentCash   = "cash"
	PaymentOnline = "online"
)

type Feedback struct {
	OrderID   int64     `json:"order_id"`
	Phone     string    `json:"phone"`
	Rating    string    `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Reminder is a feedback prompt that became due for sending.
type Reminder struct {
	OrderID int64  `json:"order_id"`
	Phone   string `json:"phone"`
}
