// Package scoring combines feature signals and profile signals into a
// fraud score and derives a decision and risk level (spec component C5).
//
// Grounded on spec §4.5 for the exact weights and thresholds; the
// Go shape — a named sub-score with a slice of weighted predicate
// contributors — follows other_examples/Tae5567-GlobalPay-Gateway's
// fraud_engine.go rule-slice pattern and banking-aml-service's
// risk_calculator.go capped-weighted-sum pattern.
package scoring

import "github.com/fraudscorer/streaming-scorer/internal/models"

// contributor adds its weight to a sub-score when predicate holds.
type contributor struct {
	weight    float64
	predicate func(f map[string]any) bool
}

func boolFeature(f map[string]any, key string) bool {
	v, _ := f[key].(bool)
	return v
}

func stringFeature(f map[string]any, key string) string {
	v, _ := f[key].(string)
	return v
}

func floatFeature(f map[string]any, key string) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func intFeature(f map[string]any, key string) int64 {
	switch v := f[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

var amountContributors = []contributor{
	{0.3, func(f map[string]any) bool { return boolFeature(f, "is_large_for_user") }},
	{0.1, func(f map[string]any) bool { return boolFeature(f, "is_round_100") }},
	{0.2, func(f map[string]any) bool { return stringFeature(f, "amount_category") == "very_large" }},
	{0.1, func(f map[string]any) bool { return stringFeature(f, "amount_category") == "micro" }},
}

var temporalContributors = []contributor{
	{0.2, func(f map[string]any) bool { return boolFeature(f, "is_night_time") }},
	{0.15, func(f map[string]any) bool { return !boolFeature(f, "in_user_preferred_time") }},
	{0.1, func(f map[string]any) bool {
		return boolFeature(f, "is_weekend") && floatFeature(f, "weekend_activity_factor") < 0.3
	}},
}

// userBehaviorSubscore and merchantRiskSubscore are not pure predicate sums —
// each carries a magnitude-scaled term — so they are computed directly
// rather than through the contributor list.

func amountSubscore(f map[string]any) float64 {
	return sumContributors(f, amountContributors)
}

func temporalSubscore(f map[string]any) float64 {
	return sumContributors(f, temporalContributors)
}

func sumContributors(f map[string]any, cs []contributor) float64 {
	var total float64
	for _, c := range cs {
		if c.predicate(f) {
			total += c.weight
		}
	}
	return total
}

func userBehaviorSubscore(f map[string]any) float64 {
	var s float64
	if boolFeature(f, "is_very_new_account") {
		s += 0.4
	} else if boolFeature(f, "is_new_account") {
		s += 0.2
	}
	if !boolFeature(f, "is_kyc_verified") {
		s += 0.3
	}
	s += 0.5 * floatFeature(f, "user_risk_score")
	return s
}

func merchantRiskSubscore(f map[string]any) float64 {
	var s float64
	if boolFeature(f, "is_blacklisted_merchant") {
		s += 0.8
	}
	if boolFeature(f, "is_high_risk_category") {
		s += 0.3
	}
	s += 2.0 * floatFeature(f, "merchant_fraud_rate")
	if boolFeature(f, "suspicious_merchant_name") {
		s += 0.2
	}
	if within, ok := f["within_merchant_hours"].(bool); ok && !within {
		s += 0.15
	}
	return s
}

func velocitySubscore(f map[string]any) float64 {
	var s float64
	if boolFeature(f, "high_velocity_5min") {
		s += 0.6
	}
	if boolFeature(f, "high_velocity_1hour") {
		s += 0.4
	}
	if intFeature(f, "velocity_5min_count") > 3 {
		s += 0.2
	}
	if intFeature(f, "velocity_1hour_count") > 10 {
		s += 0.15
	}
	return s
}

func deviceNetworkSubscore(f map[string]any) float64 {
	var s float64
	if boolFeature(f, "is_new_device") {
		s += 0.3
	}
	s += floatFeature(f, "ip_risk_score")
	if boolFeature(f, "suspicious_user_agent") {
		s += 0.2
	}
	return s
}

// Weights per spec §4.5.
const (
	weightAmount         = 0.20
	weightTemporal       = 0.10
	weightUserBehavior   = 0.25
	weightMerchantRisk   = 0.20
	weightVelocity       = 0.15
	weightDeviceNetwork  = 0.10
)

// Score computes the fraud score, decision, and risk level for txn given
// its already-extracted feature map. It mutates txn in place and returns
// the same pointer for chaining.
func Score(txn *models.Transaction) *models.Transaction {
	f := txn.Features

	sf := weightAmount*amountSubscore(f) +
		weightTemporal*temporalSubscore(f) +
		weightUserBehavior*userBehaviorSubscore(f) +
		weightMerchantRisk*merchantRiskSubscore(f) +
		weightVelocity*velocitySubscore(f) +
		weightDeviceNetwork*deviceNetworkSubscore(f)

	combined := sf
	if txn.PriorFraudScore != nil {
		combined = 0.6*(*txn.PriorFraudScore) + 0.4*sf
	}
	combined = clamp01(combined)

	decision, riskLevel := decisionFor(combined)

	if boolFeature(f, "is_blacklisted_merchant") {
		decision, riskLevel = models.DecisionDecline, models.RiskCritical
	}

	txn.FraudScore = combined
	txn.Decision = decision
	txn.RiskLevel = riskLevel
	return txn
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// decisionFor implements the decision/risk-level mapping of spec §4.5.
func decisionFor(score float64) (models.Decision, models.RiskLevel) {
	switch {
	case score >= 0.95:
		return models.DecisionDecline, models.RiskCritical
	case score >= 0.80:
		return models.DecisionReview, models.RiskHigh
	case score >= 0.60:
		return models.DecisionReview, models.RiskMedium
	case score >= 0.30:
		return models.DecisionApprove, models.RiskLow
	default:
		return models.DecisionApprove, models.RiskVeryLow
	}
}
