package config

// FinanceConfig holds the transparency-report policy constants. The
// efficiency thresholds are strict lower bounds: a program share has to
// exceed the threshold to earn the rating.
type FinanceConfig struct {
	ExcellentThreshold float64
	GoodThreshold      float64

	// impact-calculator ratios
	CostPerFamily        float64
	MealsPerDollar       float64
	WaterDaysPerDollar   float64
	CostPerEducationHour float64
}

func LoadFinanceConfig() *FinanceConfig {
	return &FinanceConfig{
		ExcellentThreshold:   getEnvAsFloat("EFFICIENCY_EXCELLENT_THRESHOLD", 80),
		GoodThreshold:        getEnvAsFloat("EFFICIENCY_GOOD_THRESHOLD", 70),
		CostPerFamily:        getEnvAsFloat("IMPACT_COST_PER_FAMILY", 45),
		MealsPerDollar:       getEnvAsFloat("IMPACT_MEALS_PER_DOLLAR", 4),
		WaterDaysPerDollar:   getEnvAsFloat("IMPACT_WATER_DAYS_PER_DOLLAR", 2),
		CostPerEducationHour: getEnvAsFloat("IMPACT_COST_PER_EDUCATION_HOUR", 5),
	}
}

// Rating maps a program-expense percentage onto a categorical label
func (c *FinanceConfig) Rating(programPercentage float64) string {
	switch {
	case programPercentage > c.ExcellentThreshold:
		return "Excellent"
	case programPercentage > c.GoodThreshold:
		return "Good"
	default:
		return "Fair"
	}
}
