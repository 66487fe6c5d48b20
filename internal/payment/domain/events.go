package domain

import "time"

const (
	EventPaymentInitialized = "PaymentInitialized"
	EventPaymentSucceeded   = "PaymentSucceeded"
	EventPaymentFailed      = "PaymentFailed"
)

type PaymentInitialized struct {
	Reference string `json:"reference"`
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
}

type PaymentSucceeded struct {
	Reference string    `json:"reference"`
	OrderID   string    `json:"orderId"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paidAt"`
}

type PaymentFailed struct {
	Reference string `json:"reference"`
	OrderID   string `json:"orderId"`
	Reason    string `json:"reason"`
}
