package models

import (
	"time"
)

// Expense categories recognised by the transparency reports
const (
	ExpenseCategoryProgram     = "program"
	ExpenseCategoryAdmin       = "admin"
	ExpenseCategoryFundraising = "fundraising"
)

// Expense represents an organisational expense row. Only approved
// expenses count toward the yearly aggregates.
type Expense struct {
	ID          int       `json:"id" db:"id"`
	Description string    `json:"description" db:"description"`
	Amount      float64   `json:"amount" db:"amount"`
	Category    string    `json:"category" db:"category"`
	Project     string    `json:"project" db:"project"`
	Status      string    `json:"status" db:"status"`
	Date        time.Time `json:"date" db:"date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Campaign represents a fundraising campaign
type Campaign struct {
	ID           int        `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Description  string     `json:"description" db:"description"`
	GoalAmount   float64    `json:"goal_amount" db:"goal_amount"`
	RaisedAmount float64    `json:"raised_amount" db:"raised_amount"`
	Progress     float64    `json:"progress"`
	Project      string     `json:"project" db:"project"`
	Active       bool       `json:"active" db:"active"`
	EndDate      *time.Time `json:"end_date,omitempty" db:"end_date"`
}

// FinancialOverview is the year-scoped aggregate returned by the
// overview endpoint
type FinancialOverview struct {
	Year                int        `json:"year"`
	TotalDonations      float64    `json:"total_donations"`
	ProgramExpenses     float64    `json:"program_expenses"`
	AdminExpenses       float64    `json:"admin_expenses"`
	FundraisingExpenses float64    `json:"fundraising_expenses"`
	TotalExpenses       float64    `json:"total_expenses"`
	NetResult           float64    `json:"net_result"`
	ActiveCampaigns     []Campaign `json:"active_campaigns"`
}

// TransparencyReport carries the percentage breakdown and rating
type TransparencyReport struct {
	Year                  int     `json:"year"`
	ProgramPercentage     float64 `json:"program_percentage"`
	AdminPercentage       float64 `json:"admin_percentage"`
	FundraisingPercentage float64 `json:"fundraising_percentage"`
	EfficiencyRating      string  `json:"efficiency_rating"`
}

// DonationImpact is the estimated impact of a donation amount
type DonationImpact struct {
	FamiliesHelped int `json:"families_helped"`
	MealsProvided  int `json:"meals_provided"`
	CleanWaterDays int `json:"clean_water_days"`
	EducationHours int `json:"education_hours"`
}
