package models

import (
	"time"
)

// Donation represents a single donation record
type Donation struct {
	ID            int       `json:"id" db:"id"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	ReferenceCode string    `json:"reference_code" db:"reference_code"`
	DonorName     string    `json:"donor_name" db:"donor_name"`
	DonorEmail    string    `json:"donor_email" db:"donor_email"`
	Amount        float64   `json:"amount" db:"amount"`
	Currency      string    `json:"currency" db:"currency"`
	PaymentMethod string    `json:"payment_method" db:"payment_method"`
	Project       string    `json:"project" db:"project"`
	Message       string    `json:"message" db:"message"`
	Anonymous     bool      `json:"anonymous" db:"anonymous"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// PublicDonation is the redacted view returned on unauthenticated lookups
type PublicDonation struct {
	ReferenceCode string    `json:"reference_code"`
	DonorName     string    `json:"donor_name"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	Project       string    `json:"project,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
