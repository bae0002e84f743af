package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/hopefoundation/backend/internal/config"
	"github.com/hopefoundation/backend/internal/models"
)

// FinanceService computes the year-scoped transparency aggregates. All
// operations are read-only.
type FinanceService struct {
	db        *sql.DB
	config    *config.FinanceConfig
	validator *ValidationHelper
}

func NewFinanceService(db *sql.DB, cfg *config.FinanceConfig) *FinanceService {
	return &FinanceService{
		db:        db,
		config:    cfg,
		validator: NewValidationHelper(),
	}
}

// Percentage returns part/total*100 rounded to one decimal place, and 0
// when total is 0.
func Percentage(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(part/total*1000) / 10
}

// CampaignProgress returns raised/goal*100 rounded to one decimal, 0
// when the goal is 0.
func CampaignProgress(raised, goal float64) float64 {
	return Percentage(raised, goal)
}

// GetOverview returns the financial overview for a year
// @Summary Financial overview
// @Tags financial
// @Produce json
// @Param year query int false "Calendar year (default: current)"
// @Success 200 {object} models.FinancialOverview
// @Router /financial/overview [get]
func (s *FinanceService) GetOverview(w http.ResponseWriter, r *http.Request) {
	year := parseYear(r)

	overview, err := s.buildOverview(year)
	if err != nil {
		log.Printf("[FINANCE] Failed to build overview for %d: %v", year, err)
		SendErrorResponse(w, "Failed to fetch financial overview", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, overview)
}

func (s *FinanceService) buildOverview(year int) (*models.FinancialOverview, error) {
	totalDonations, err := s.sumDonations(year)
	if err != nil {
		return nil, err
	}

	byCategory, err := s.sumExpensesByCategory(year)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.activeCampaigns()
	if err != nil {
		return nil, err
	}

	program := byCategory[models.ExpenseCategoryProgram]
	admin := byCategory[models.ExpenseCategoryAdmin]
	fundraising := byCategory[models.ExpenseCategoryFundraising]
	total := program + admin + fundraising

	return &models.FinancialOverview{
		Year:                year,
		TotalDonations:      totalDonations,
		ProgramExpenses:     program,
		AdminExpenses:       admin,
		FundraisingExpenses: fundraising,
		TotalExpenses:       total,
		NetResult:           totalDonations - total,
		ActiveCampaigns:     campaigns,
	}, nil
}

// GetTransparency returns the percentage breakdown and efficiency rating
// @Summary Financial transparency
// @Tags financial
// @Produce json
// @Param year query int false "Calendar year (default: current)"
// @Success 200 {object} models.TransparencyReport
// @Router /financial/transparency [get]
func (s *FinanceService) GetTransparency(w http.ResponseWriter, r *http.Request) {
	year := parseYear(r)

	byCategory, err := s.sumExpensesByCategory(year)
	if err != nil {
		log.Printf("[FINANCE] Failed to aggregate expenses for %d: %v", year, err)
		SendErrorResponse(w, "Failed to fetch transparency data", http.StatusInternalServerError, nil)
		return
	}

	report := s.buildTransparency(year, byCategory)
	SendJSON(w, http.StatusOK, report)
}

func (s *FinanceService) buildTransparency(year int, byCategory map[string]float64) *models.TransparencyReport {
	program := byCategory[models.ExpenseCategoryProgram]
	admin := byCategory[models.ExpenseCategoryAdmin]
	fundraising := byCategory[models.ExpenseCategoryFundraising]
	total := program + admin + fundraising

	programPct := Percentage(program, total)

	return &models.TransparencyReport{
		Year:                  year,
		ProgramPercentage:     programPct,
		AdminPercentage:       Percentage(admin, total),
		FundraisingPercentage: Percentage(fundraising, total),
		EfficiencyRating:      s.config.Rating(programPct),
	}
}

// GetCampaigns returns active campaigns with computed progress
// @Summary Active campaigns
// @Tags financial
// @Produce json
// @Success 200 {array} models.Campaign
// @Router /financial/campaigns [get]
func (s *FinanceService) GetCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.activeCampaigns()
	if err != nil {
		log.Printf("[FINANCE] Failed to fetch campaigns: %v", err)
		SendErrorResponse(w, "Failed to fetch campaigns", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, campaigns)
}

// CalculateImpact estimates the impact of a donation amount
// @Summary Donation impact calculator
// @Tags financial
// @Accept json
// @Produce json
// @Param request body object{amount=float64} true "Donation amount"
// @Success 200 {object} object{impact=models.DonationImpact}
// @Failure 400 {object} ErrorResponse
// @Router /financial/impact-calculator [post]
func (s *FinanceService) CalculateImpact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount" validate:"required,gt=0"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"impact": s.impactFor(req.Amount),
	})
}

func (s *FinanceService) impactFor(amount float64) models.DonationImpact {
	return models.DonationImpact{
		FamiliesHelped: int(amount / s.config.CostPerFamily),
		MealsProvided:  int(amount * s.config.MealsPerDollar),
		CleanWaterDays: int(amount * s.config.WaterDaysPerDollar),
		EducationHours: int(amount / s.config.CostPerEducationHour),
	}
}

func (s *FinanceService) sumDonations(year int) (float64, error) {
	var total float64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM donations
		WHERE status <> 'failed' AND EXTRACT(YEAR FROM created_at) = $1
	`, year).Scan(&total)
	return total, err
}

func (s *FinanceService) sumExpensesByCategory(year int) (map[string]float64, error) {
	rows, err := s.db.Query(`
		SELECT category, COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE status = 'approved' AND EXTRACT(YEAR FROM date) = $1
		GROUP BY category
	`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byCategory := map[string]float64{}
	for rows.Next() {
		var category string
		var sum float64
		if err := rows.Scan(&category, &sum); err != nil {
			return nil, err
		}
		byCategory[category] = sum
	}

	return byCategory, rows.Err()
}

func (s *FinanceService) activeCampaigns() ([]models.Campaign, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, goal_amount, raised_amount, project, active, end_date
		FROM campaigns
		WHERE active = true
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []models.Campaign{}
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.GoalAmount,
			&c.RaisedAmount, &c.Project, &c.Active, &c.EndDate); err != nil {
			return nil, err
		}
		c.Progress = CampaignProgress(c.RaisedAmount, c.GoalAmount)
		campaigns = append(campaigns, c)
	}

	return campaigns, rows.Err()
}

func parseYear(r *http.Request) int {
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil && year > 1900 && year < 3000 {
			return year
		}
	}
	return time.Now().Year()
}
