package profilecache

import "testing"

func TestDefaultUserProfile(t *testing.T) {
	p := DefaultUserProfile("u1")
	if p.RiskScore != 0.5 || p.KYCStatus != "pending" || p.Verified {
		t.Fatalf("unexpected default user profile: %+v", p)
	}
}

func TestDefaultMerchantProfile(t *testing.T) {
	p := DefaultMerchantProfile("m1")
	if p.RiskLevel != "medium" || p.FraudRate != 0.05 || p.IsBlacklisted || p.RiskMultiplier != 2.0 {
		t.Fatalf("unexpected default merchant profile: %+v", p)
	}
}
