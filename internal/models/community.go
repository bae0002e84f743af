package models

import "time"

// ContactMessage represents a contact-form submission
type ContactMessage struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Subject   string    `json:"subject" db:"subject"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Subscriber represents a newsletter signup
type Subscriber struct {
	ID               int       `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	UnsubscribeToken string    `json:"-" db:"unsubscribe_token"`
	Active           bool      `json:"active" db:"active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
