package models

import (
	"time"
)

// Fee represents a membership or processing fee payment
type Fee struct {
	ID            int       `json:"id" db:"id"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	ReceiptCode   string    `json:"receipt_code" db:"receipt_code"`
	ReferenceCode string    `json:"reference_code" db:"reference_code"`
	PayerName     string    `json:"payer_name" db:"payer_name"`
	PayerEmail    string    `json:"payer_email" db:"payer_email"`
	Amount        float64   `json:"amount" db:"amount"`
	Currency      string    `json:"currency" db:"currency"`
	PaymentMethod string    `json:"payment_method" db:"payment_method"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// PublicFee is the redacted view returned by the receipt-code lookup
type PublicFee struct {
	ReceiptCode   string    `json:"receipt_code"`
	ReferenceCode string    `json:"reference_code"`
	PayerName     string    `json:"payer_name"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
