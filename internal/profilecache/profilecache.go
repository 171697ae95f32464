// Package profilecache retrieves user and merchant party profiles (spec
// component C3), synthesizing defaults on a cache miss without writing
// the synthesized value back to the state store. An in-process LRU layer
// sits in front of the state-store round trip.
//
// Grounded on spec §4.3 and original_source/TransactionProcessor.java's
// default-profile construction; the LRU layer is grounded on
// estebanorue-y-wakala-reconciler's indirect hashicorp/golang-lru/v2
// dependency, exercised here directly for the first time in the pack.
package profilecache

import (
	"context"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fraudscorer/streaming-scorer/internal/models"
	"github.com/fraudscorer/streaming-scorer/internal/stateclient"
)

const lruSize = 50_000

// Cache is the profile cache facade.
type Cache struct {
	store      *stateclient.Client
	userLRU    *lru.Cache[string, *models.UserProfile]
	merchantLRU *lru.Cache[string, *models.MerchantProfile]
}

func New(store *stateclient.Client) *Cache {
	userLRU, _ := lru.New[string, *models.UserProfile](lruSize)
	merchantLRU, _ := lru.New[string, *models.MerchantProfile](lruSize)
	return &Cache{store: store, userLRU: userLRU, merchantLRU: merchantLRU}
}

// DefaultUserProfile synthesizes the default profile spec §4.3 describes
// for an unknown user.
func DefaultUserProfile(userID string) *models.UserProfile {
	return &models.UserProfile{
		UserID:           userID,
		RiskScore:        0.5,
		KYCStatus:        "pending",
		Verified:         false,
		PreferredTimeStart: 0,
		PreferredTimeEnd:   23,
		DeviceFingerprints: map[string]struct{}{},
		BehavioralPatterns: map[string]float64{},
	}
}

// DefaultMerchantProfile synthesizes the default profile spec §4.3
// describes for an unknown merchant.
func DefaultMerchantProfile(merchantID string) *models.MerchantProfile {
	return &models.MerchantProfile{
		MerchantID:     merchantID,
		RiskLevel:      "medium",
		FraudRate:      0.05,
		IsBlacklisted:  false,
		RiskMultiplier: 2.0,
		OperatingHours: map[int]struct{}{},
	}
}

// GetUser returns the cached profile or a synthesized default. The
// synthesized default is never written back, per spec §4.3.
func (c *Cache) GetUser(ctx context.Context, userID string) *models.UserProfile {
	if p, ok := c.userLRU.Get(userID); ok {
		return p
	}

	fields, err := c.store.GetHash(ctx, stateclient.UserProfilePrefix+userID)
	if err != nil || len(fields) == 0 {
		return DefaultUserProfile(userID)
	}

	profile := hashToUserProfile(userID, fields)
	c.userLRU.Add(userID, profile)
	return profile
}

// GetMerchant returns the cached profile or a synthesized default.
func (c *Cache) GetMerchant(ctx context.Context, merchantID string) *models.MerchantProfile {
	if p, ok := c.merchantLRU.Get(merchantID); ok {
		return p
	}

	fields, err := c.store.GetHash(ctx, stateclient.MerchantProfilePrefix+merchantID)
	if err != nil || len(fields) == 0 {
		return DefaultMerchantProfile(merchantID)
	}

	profile := hashToMerchantProfile(merchantID, fields)
	c.merchantLRU.Add(merchantID, profile)
	return profile
}

func hashToUserProfile(userID string, f map[string]string) *models.UserProfile {
	p := DefaultUserProfile(userID)
	if v, ok := f["account_age_days"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.AccountAgeDays = n
		}
	}
	if v, ok := f["risk_score"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			p.RiskScore = n
		}
	}
	if v, ok := f["kyc_status"]; ok {
		p.KYCStatus = v
	}
	if v, ok := f["verified"]; ok {
		p.Verified = v == "true" || v == "1"
	}
	if v, ok := f["preferred_time_start"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.PreferredTimeStart = n
		}
	}
	if v, ok := f["preferred_time_end"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.PreferredTimeEnd = n
		}
	}
	if v, ok := f["weekend_activity"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			p.WeekendActivity = n
		}
	}
	if v, ok := f["international_transactions"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			p.InternationalTxnPref = n
		}
	}
	if v, ok := f["avg_transaction_amount"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			p.AvgTransactionAmount = n
		}
	}
	if v, ok := f["transaction_frequency"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			p.TransactionFrequency = n
		}
	}
	if v, ok := f["device_fingerprints"]; ok && v != "" {
		for _, fp := range strings.Split(v, ",") {
			p.DeviceFingerprints[fp] = struct{}{}
		}
	}
	return p
}

func hashToMerchantProfile(merchantID string, f map[string]string) *models.MerchantProfile {
	p := DefaultMerchantProfile(merchantID)
	if v, ok := f["name"]; ok {
		p.Name = v
	}
	if v, ok := f["category"]; ok {
		p.Category = v
	}
	if v, ok := f["risk_level"]; ok {
		p.RiskLevel = v
	}
	if v, ok := f["fraud_rate"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			p.FraudRate = n
		}
	}
	if v, ok := f["is_blacklisted"]; ok {
		p.IsBlacklisted = v == "true" || v == "1"
	}
	if v, ok := f["avg_transaction_amount"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			p.AvgTransactionAmount = n
		}
	}
	if v, ok := f["risk_multiplier"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			p.RiskMultiplier = n
		}
	}
	if v, ok := f["is_high_risk_category"]; ok {
		p.IsHighRiskCategory = v == "true" || v == "1"
	}
	if v, ok := f["operating_hours"]; ok && v != "" {
		for _, h := range strings.Split(v, ",") {
			if n, err := strconv.Atoi(h); err == nil {
				p.OperatingHours[n] = struct{}{}
			}
		}
	}
	return p
}
