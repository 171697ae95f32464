// Package features extracts the named feature vector spec §4.4 defines
// across eight groups (amount, temporal, geographic, user behavior,
// merchant risk, device/network, velocity, contextual) from a
// transaction plus its attached profiles and velocity counters.
//
// Grounded on original_source/FeatureExtractor.java: formulas, regex
// patterns, and thresholds are carried over verbatim from that file
// where spec.md itself is silent on the exact constant.
package features

import (
	"context"
	"math"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
	"github.com/fraudscorer/streaming-scorer/internal/stateclient"
)

var (
	cryptoPattern       = regexp.MustCompile(`(?i)(bitcoin|crypto|coinbase|binance|blockchain|wallet|mining|exchange)`)
	giftCardPattern     = regexp.MustCompile(`(?i)(gift\s*card|prepaid|reload|vanilla|amazon\s*gift|itunes)`)
	moneyTransferPattern = regexp.MustCompile(`(?i)(western\s*union|moneygram|remit|transfer|wire|paypal|venmo)`)
	highRiskNamePattern = regexp.MustCompile(`(?i)(casino|gambling|betting|lottery|forex|trading|investment|loan)`)
)

// Extractor produces feature maps for transactions, pulling velocity
// counters from the state store.
type Extractor struct {
	store *stateclient.Client
}

func New(store *stateclient.Client) *Extractor {
	return &Extractor{store: store}
}

// Extract produces the feature map for txn and never returns an error.
// Features whose inputs are absent are left out of the map rather than
// defaulted: the user- and merchant-relative amount ratios without a
// positive profile average, in_user_preferred_time and the international
// preference features without a user profile, the coordinate features
// without geolocation, within_merchant_hours without hour_of_day,
// suspicious_merchant_name without a merchant name, and the IP and
// user-agent features without those fields. A missing user or merchant
// profile yields fixed defaults for the core user-behavior and
// merchant-risk features, and velocity features read as zero when the
// state store has no counter.
func (e *Extractor) Extract(ctx context.Context, txn *models.Transaction) map[string]any {
	features := make(map[string]any, 64)

	extractAmount(txn, features)
	extractTemporal(txn, features)
	extractGeographic(txn, features)
	extractUserBehavior(txn, features)
	extractMerchantRisk(txn, features)
	extractDeviceNetwork(txn, features)
	e.extractVelocity(ctx, txn, features)
	extractContextual(txn, features)

	return features
}

func extractAmount(txn *models.Transaction, f map[string]any) {
	amount := txn.Amount
	f["amount"] = amount
	f["amount_log"] = math.Log(amount + 1)
	f["amount_sqrt"] = math.Sqrt(amount)
	f["is_round_amount"] = math.Mod(amount, 1.0) == 0
	f["is_round_10"] = math.Mod(amount, 10.0) == 0
	f["is_round_100"] = math.Mod(amount, 100.0) == 0

	if txn.UserProfile != nil && txn.UserProfile.AvgTransactionAmount > 0 {
		avg := txn.UserProfile.AvgTransactionAmount
		ratio := amount / avg
		f["amount_to_user_avg_ratio"] = ratio
		f["amount_deviation_zscore"] = (amount - avg) / avg
		f["is_large_for_user"] = ratio > 3.0
	}

	if txn.MerchantProfile != nil && txn.MerchantProfile.AvgTransactionAmount > 0 {
		merchantAvg := txn.MerchantProfile.AvgTransactionAmount
		f["amount_to_merchant_avg_ratio"] = amount / merchantAvg
		f["is_large_for_merchant"] = amount > merchantAvg*2.0
	}

	f["amount_category"] = categorizeAmount(amount)
}

func categorizeAmount(amount float64) string {
	switch {
	case amount < 10:
		return "micro"
	case amount < 100:
		return "small"
	case amount < 1000:
		return "medium"
	case amount < 10000:
		return "large"
	default:
		return "very_large"
	}
}

func categorizeTimePeriod(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

func extractTemporal(txn *models.Transaction, f map[string]any) {
	ts := txn.Timestamp.UTC()

	hour := ts.Hour()
	if txn.HourOfDay != nil {
		hour = *txn.HourOfDay
	}
	f["hour_of_day"] = hour
	f["day_of_week"] = isoWeekday(ts)
	f["day_of_month"] = ts.Day()

	isWeekend := ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday
	if txn.IsWeekend != nil {
		isWeekend = *txn.IsWeekend
	}
	f["is_weekend"] = isWeekend

	f["time_period"] = categorizeTimePeriod(hour)
	f["is_business_hours"] = hour >= 9 && hour <= 17
	f["is_night_time"] = hour <= 6 || hour >= 22

	if txn.UserProfile != nil {
		start, end := txn.UserProfile.PreferredTimeStart, txn.UserProfile.PreferredTimeEnd
		f["in_user_preferred_time"] = hour >= start && hour <= end
	}
}

// isoWeekday returns 1..7 for Monday..Sunday, matching Java's DayOfWeek.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func isHighRiskLocation(lat, lon float64) bool {
	return math.Abs(lat) > 60 || (math.Abs(lat) < 10 && math.Abs(lon) < 10)
}

func extractGeographic(txn *models.Transaction, f map[string]any) {
	f["has_geolocation"] = txn.Geolocation != nil
	f["has_merchant_location"] = txn.MerchantLocation != nil

	if txn.Geolocation != nil {
		lat, lon := txn.Geolocation.Latitude, txn.Geolocation.Longitude
		f["latitude"] = lat
		f["longitude"] = lon
		f["is_high_risk_country"] = isHighRiskLocation(lat, lon)

		if txn.MerchantLocation != nil {
			f["distance_to_merchant_km"] = HaversineKM(lat, lon, txn.MerchantLocation.Latitude, txn.MerchantLocation.Longitude)
		}
	}

	if txn.UserProfile != nil {
		intl := txn.UserProfile.InternationalTxnPref
		f["user_intl_preference"] = intl
		f["unexpected_intl_transaction"] = intl < 0.1
	}
}

func extractUserBehavior(txn *models.Transaction, f map[string]any) {
	p := txn.UserProfile
	if p == nil {
		f["account_age_days"] = 0
		f["is_new_account"] = true
		f["is_very_new_account"] = true
		f["user_risk_score"] = 0.8
		f["is_kyc_verified"] = false
		f["kyc_status"] = "unknown"
		return
	}

	f["account_age_days"] = p.AccountAgeDays
	f["is_new_account"] = p.AccountAgeDays < 30
	f["is_very_new_account"] = p.AccountAgeDays < 7

	riskScore := p.RiskScore
	if riskScore == 0 {
		riskScore = 0.5
	}
	f["user_risk_score"] = riskScore
	f["is_kyc_verified"] = p.Verified

	kyc := p.KYCStatus
	if kyc == "" {
		kyc = "unknown"
	}
	f["kyc_status"] = kyc

	f["weekend_activity_factor"] = patternValue(p.BehavioralPatterns, "weekend_activity", 0.5)
	f["online_preference"] = patternValue(p.BehavioralPatterns, "online_preference", 0.7)

	f["user_avg_amount"] = p.AvgTransactionAmount
	f["user_transaction_frequency"] = p.TransactionFrequency
}

func patternValue(patterns map[string]float64, key string, def float64) float64 {
	if v, ok := patterns[key]; ok {
		return v
	}
	return def
}

func extractMerchantRisk(txn *models.Transaction, f map[string]any) {
	m := txn.MerchantProfile
	if m == nil {
		f["merchant_risk_level"] = "unknown"
		f["merchant_fraud_rate"] = 0.1
		f["is_blacklisted_merchant"] = false
		f["merchant_category"] = "unknown"
		f["is_high_risk_category"] = false
		f["merchant_risk_multiplier"] = 2.0
		return
	}

	riskLevel := m.RiskLevel
	if riskLevel == "" {
		riskLevel = "unknown"
	}
	f["merchant_risk_level"] = riskLevel
	f["merchant_fraud_rate"] = m.FraudRate
	f["is_blacklisted_merchant"] = m.IsBlacklisted

	category := m.Category
	if category == "" {
		category = "unknown"
	}
	f["merchant_category"] = category
	f["is_high_risk_category"] = m.IsHighRiskCategory

	if txn.HourOfDay != nil {
		_, within := m.OperatingHours[*txn.HourOfDay]
		f["within_merchant_hours"] = within
	}

	f["merchant_risk_multiplier"] = m.RiskMultiplier

	if m.Name != "" {
		f["suspicious_merchant_name"] = suspiciousMerchantName(m.Name)
	}
}

func suspiciousMerchantName(name string) bool {
	return cryptoPattern.MatchString(name) ||
		giftCardPattern.MatchString(name) ||
		moneyTransferPattern.MatchString(name) ||
		highRiskNamePattern.MatchString(name)
}

func extractDeviceNetwork(txn *models.Transaction, f map[string]any) {
	knownDevice := false
	if txn.DeviceFingerprint != "" && txn.UserProfile != nil {
		_, knownDevice = txn.UserProfile.DeviceFingerprints[txn.DeviceFingerprint]
	}
	f["is_known_device"] = knownDevice
	f["is_new_device"] = !knownDevice

	if txn.IPAddress != "" {
		f["is_private_ip"] = isPrivateIP(txn.IPAddress)
		f["ip_risk_score"] = ipRiskScore(txn.IPAddress)
	}

	if txn.UserAgent != "" {
		f["suspicious_user_agent"] = suspiciousUserAgent(txn.UserAgent)
	}
}

func isPrivateIP(ip string) bool {
	return strings.HasPrefix(ip, "192.168.") || strings.HasPrefix(ip, "10.") || strings.HasPrefix(ip, "172.16.")
}

func ipRiskScore(ip string) float64 {
	if isPrivateIP(ip) {
		return 0.1
	}
	return 0.3
}

// validIP is available for callers that want to reject malformed
// addresses before scoring; extraction itself treats any non-empty
// string as present per the teacher's validateIP helper.
func validIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

func suspiciousUserAgent(ua string) bool {
	lower := strings.ToLower(ua)
	return strings.Contains(lower, "bot") || strings.Contains(lower, "crawler") || len(ua) < 20
}

func extractContextual(txn *models.Transaction, f map[string]any) {
	paymentMethod := txn.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "unknown"
	}
	f["payment_method"] = paymentMethod
	f["is_high_risk_payment"] = isHighRiskPaymentMethod(paymentMethod)

	transactionType := txn.TransactionType
	if transactionType == "" {
		transactionType = "unknown"
	}
	f["transaction_type"] = transactionType
	f["is_refund"] = strings.EqualFold(transactionType, "refund")

	cardType := txn.CardType
	if cardType == "" {
		cardType = "unknown"
	}
	f["card_type"] = cardType
}

func isHighRiskPaymentMethod(method string) bool {
	lower := strings.ToLower(method)
	return strings.Contains(lower, "prepaid") ||
		strings.Contains(lower, "gift") ||
		strings.Contains(lower, "crypto") ||
		strings.Contains(lower, "wire")
}

func (e *Extractor) extractVelocity(ctx context.Context, txn *models.Transaction, f map[string]any) {
	windows := []models.VelocityWindow{models.Velocity5Min, models.Velocity1Hour, models.Velocity24Hour}
	counts := make(map[models.VelocityWindow]int64, 3)
	amounts := make(map[models.VelocityWindow]float64, 3)

	for _, w := range windows {
		key := stateclient.VelocityPrefix + txn.UserID + ":" + string(w)
		hash, err := e.store.GetHash(ctx, key)
		if err != nil || len(hash) == 0 {
			continue
		}
		if v, ok := hash["count"]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				counts[w] = n
			}
		}
		if v, ok := hash["amount"]; ok {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				amounts[w] = n
			}
		}
	}

	f["velocity_5min_count"] = counts[models.Velocity5Min]
	f["velocity_5min_amount"] = amounts[models.Velocity5Min]
	f["velocity_1hour_count"] = counts[models.Velocity1Hour]
	f["velocity_1hour_amount"] = amounts[models.Velocity1Hour]
	f["velocity_24hour_count"] = counts[models.Velocity24Hour]
	f["velocity_24hour_amount"] = amounts[models.Velocity24Hour]

	f["high_velocity_5min"] = counts[models.Velocity5Min] > 5
	f["high_velocity_1hour"] = counts[models.Velocity1Hour] > 20
}

