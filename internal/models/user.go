package models

import "time"

type User struct {
	ID                  int    `json:"id" example:"1"`                   // User ID
	Email               string `json:"email" example:"user@example.com"` // User email
	FirstName           string `json:"FirstName" example:"John"`         // User first name
	LastName            string `json:"LastName" example:"Doe"`           // User last name
	Phone               string `json:"phone" example:"+1987654321"`      // User phone number
	Role                string `json:"role"`                             // member or admin
	FailedLoginAttempts int    `json:"-"`
	LockedUntil         *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
