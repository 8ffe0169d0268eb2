package pricing

// Recommendations is the static pricing strategy summary shipped with
// the model: thresholds, ranked factors and the per-band business
// strategy the calibration was designed around.
type Recommendations struct {
	BasePremium      float64           `json:"base_premium"`
	ClaimAmount      float64           `json:"claim_amount"`
	RiskThresholds   map[string]string `json:"risk_thresholds"`
	KeyFactors       map[string]string `json:"key_factors"`
	BusinessStrategy map[string]string `json:"business_strategy"`
}

func (m *PricingModel) PricingRecommendations() Recommendations {
	return Recommendations{
		BasePremium: m.params.BasePremium,
		ClaimAmount: m.params.ClaimAmount,
		RiskThresholds: map[string]string{
			"low_risk":    "< 0.8x multiplier",
			"medium_risk": "0.8x - 1.2x multiplier",
			"high_risk":   "> 1.2x multiplier",
		},
		KeyFactors: map[string]string{
			"most_important":   "Airline (up to 45x multiplier)",
			"second_important": "Arrival Airport (up to 8x multiplier)",
			"third_important":  "Season (0.6x - 1.35x multiplier)",
			"fourth_important": "Time of Day (0.8x - 3.6x multiplier)",
			"fifth_important":  "Day of Week (0.7x - 1.2x multiplier)",
		},
		BusinessStrategy: map[string]string{
			"low_risk_flights":    "Offer discounts to expand customer base",
			"medium_risk_flights": "Standard pricing with slight adjustments",
			"high_risk_flights":   "Higher pricing to screen out risky customers",
		},
	}
}
