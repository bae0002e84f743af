package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hopefoundation/backend/internal/config"
	"github.com/hopefoundation/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func testFinanceConfig() *config.FinanceConfig {
	return &config.FinanceConfig{
		ExcellentThreshold:   80,
		GoodThreshold:        70,
		CostPerFamily:        45,
		MealsPerDollar:       4,
		WaterDaysPerDollar:   2,
		CostPerEducationHour: 5,
	}
}

func TestPercentage(t *testing.T) {
	t.Run("rounds to one decimal", func(t *testing.T) {
		assert.Equal(t, 33.3, Percentage(1, 3))
		assert.Equal(t, 66.7, Percentage(2, 3))
		assert.Equal(t, 50.0, Percentage(1, 2))
	})

	t.Run("zero total yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Percentage(100, 0))
		assert.Equal(t, 0.0, Percentage(0, 0))
	})

	t.Run("shares sum close to 100", func(t *testing.T) {
		parts := []float64{31234.56, 8123.44, 499.87}
		total := parts[0] + parts[1] + parts[2]

		sum := Percentage(parts[0], total) + Percentage(parts[1], total) + Percentage(parts[2], total)
		assert.InDelta(t, 100.0, sum, 0.1)
	})
}

func TestCampaignProgress(t *testing.T) {
	assert.Equal(t, 75.0, CampaignProgress(7500, 10000))
	assert.Equal(t, 120.0, CampaignProgress(12000, 10000))
	assert.Equal(t, 0.0, CampaignProgress(500, 0))
}

func TestFinanceConfig_Rating(t *testing.T) {
	cfg := testFinanceConfig()

	tests := []struct {
		pct  float64
		want string
	}{
		{85, "Excellent"},
		{80.1, "Excellent"},
		{80, "Good"},
		{75, "Good"},
		{70.1, "Good"},
		{70, "Fair"},
		{50, "Fair"},
		{0, "Fair"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.Rating(tt.pct), "program share %.1f", tt.pct)
	}
}

func TestFinanceService_GetOverview(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewFinanceService(db, testFinanceConfig())

	t.Run("aggregates donations and expenses", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\)\\s+FROM donations").
			WithArgs(2026).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(50000.0))
		mock.ExpectQuery("SELECT category, COALESCE\\(SUM\\(amount\\), 0\\)\\s+FROM expenses").
			WithArgs(2026).
			WillReturnRows(sqlmock.NewRows([]string{"category", "sum"}).
				AddRow("program", 30000.0).
				AddRow("admin", 6000.0).
				AddRow("fundraising", 4000.0))
		mock.ExpectQuery("SELECT id, name, description").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "goal_amount",
				"raised_amount", "project", "active", "end_date"}))

		req := httptest.NewRequest("GET", "/financial/overview?year=2026", nil)
		w := httptest.NewRecorder()

		service.GetOverview(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var overview models.FinancialOverview
		json.Unmarshal(w.Body.Bytes(), &overview)
		assert.Equal(t, 2026, overview.Year)
		assert.Equal(t, 50000.0, overview.TotalDonations)
		assert.Equal(t, 40000.0, overview.TotalExpenses)
		assert.Equal(t, 10000.0, overview.NetResult)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("year with no activity reports zeros", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\)\\s+FROM donations").
			WithArgs(1999).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0.0))
		mock.ExpectQuery("SELECT category, COALESCE\\(SUM\\(amount\\), 0\\)\\s+FROM expenses").
			WithArgs(1999).
			WillReturnRows(sqlmock.NewRows([]string{"category", "sum"}))
		mock.ExpectQuery("SELECT id, name, description").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "goal_amount",
				"raised_amount", "project", "active", "end_date"}))

		req := httptest.NewRequest("GET", "/financial/overview?year=1999", nil)
		w := httptest.NewRecorder()

		service.GetOverview(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var overview models.FinancialOverview
		json.Unmarshal(w.Body.Bytes(), &overview)
		assert.Equal(t, 0.0, overview.TotalDonations)
		assert.Equal(t, 0.0, overview.TotalExpenses)
		assert.Equal(t, 0.0, overview.NetResult)
	})
}

func TestFinanceService_BuildTransparency(t *testing.T) {
	service := NewFinanceService(nil, testFinanceConfig())

	t.Run("excellent year", func(t *testing.T) {
		report := service.buildTransparency(2026, map[string]float64{
			models.ExpenseCategoryProgram:     85000,
			models.ExpenseCategoryAdmin:       10000,
			models.ExpenseCategoryFundraising: 5000,
		})

		assert.Equal(t, 85.0, report.ProgramPercentage)
		assert.Equal(t, 10.0, report.AdminPercentage)
		assert.Equal(t, 5.0, report.FundraisingPercentage)
		assert.Equal(t, "Excellent", report.EfficiencyRating)
	})

	t.Run("boundary share is not excellent", func(t *testing.T) {
		report := service.buildTransparency(2026, map[string]float64{
			models.ExpenseCategoryProgram:     80000,
			models.ExpenseCategoryAdmin:       15000,
			models.ExpenseCategoryFundraising: 5000,
		})

		assert.Equal(t, 80.0, report.ProgramPercentage)
		assert.Equal(t, "Good", report.EfficiencyRating)
	})

	t.Run("no approved expenses", func(t *testing.T) {
		report := service.buildTransparency(2026, map[string]float64{})

		assert.Equal(t, 0.0, report.ProgramPercentage)
		assert.Equal(t, 0.0, report.AdminPercentage)
		assert.Equal(t, 0.0, report.FundraisingPercentage)
		assert.Equal(t, "Fair", report.EfficiencyRating)
	})
}

func TestFinanceService_GetCampaigns(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewFinanceService(db, testFinanceConfig())

	columns := []string{"id", "name", "description", "goal_amount", "raised_amount",
		"project", "active", "end_date"}

	mock.ExpectQuery("SELECT id, name, description").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "Clean Water Initiative", "Wells for rural communities", 10000.0, 7500.0, "water-access", true, testTime()).
			AddRow(2, "School Fund", "New classrooms", 0.0, 500.0, "education", true, testTime()))

	req := httptest.NewRequest("GET", "/financial/campaigns", nil)
	w := httptest.NewRecorder()

	service.GetCampaigns(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var campaigns []models.Campaign
	json.Unmarshal(w.Body.Bytes(), &campaigns)
	assert.Len(t, campaigns, 2)
	assert.Equal(t, 75.0, campaigns[0].Progress)
	// zero-goal campaign does not divide by zero
	assert.Equal(t, 0.0, campaigns[1].Progress)
}

func TestFinanceService_CalculateImpact(t *testing.T) {
	service := NewFinanceService(nil, testFinanceConfig())

	t.Run("computes all four impact lines", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"amount": 90.0})

		req := httptest.NewRequest("POST", "/financial/impact-calculator", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CalculateImpact(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Impact models.DonationImpact `json:"impact"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 2, response.Impact.FamiliesHelped)
		assert.Equal(t, 360, response.Impact.MealsProvided)
		assert.Equal(t, 180, response.Impact.CleanWaterDays)
		assert.Equal(t, 18, response.Impact.EducationHours)
	})

	t.Run("rejects non positive amounts", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"amount": -5.0})

		req := httptest.NewRequest("POST", "/financial/impact-calculator", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CalculateImpact(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects missing amount", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/financial/impact-calculator", bytes.NewBuffer([]byte(`{}`)))
		w := httptest.NewRecorder()

		service.CalculateImpact(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
