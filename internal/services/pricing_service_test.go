package services

import (
	"context"
	"errors"
	"testing"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type stubRuleGetter struct {
	rules map[string]models.PricingRule
}

func (s *stubRuleGetter) GetActiveByDistrict(_ context.Context, districtID string) (models.PricingRule, error) {
	rule, ok := s.rules[districtID]
	if !ok {
		return models.PricingRule{}, models.ErrNoActivePricingRule
	}
	return rule, nil
}

func newPricingService() *PricingService {
	return &PricingService{
		Districts: &stubDistricts{active: map[string]models.District{
			"district-1": {ID: "district-1", Name: "Centro", IsActive: true},
			"district-2": {ID: "district-2", Name: "Norte", IsActive: true},
		}},
		Rules: &stubRuleGetter{rules: map[string]models.PricingRule{
			"district-1": {ID: "rule-1", DistrictID: "district-1", PricePerHour: 15.00, Currency: "AED", MinHours: 2, MaxHours: 8, IsActive: true},
		}},
	}
}

func TestGetQuoteComputesRoundedTotal(t *testing.T) {
	svc := newPricingService()

	quote, err := svc.GetQuote(context.Background(), "district-1", 3)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if quote.PriceTotal != 45.00 {
		t.Errorf("price_total = %.2f, want 45.00", quote.PriceTotal)
	}
	if quote.PricePerHour != 15.00 {
		t.Errorf("price_per_hour = %.2f, want 15.00", quote.PricePerHour)
	}
	if quote.Currency != "AED" {
		t.Errorf("currency = %s, want AED", quote.Currency)
	}
	if quote.DistrictName != "Centro" {
		t.Errorf("district_name = %s, want Centro", quote.DistrictName)
	}
}

func TestGetQuoteEnforcesHourBounds(t *testing.T) {
	svc := newPricingService()

	if _, err := svc.GetQuote(context.Background(), "district-1", 1); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("below min: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.GetQuote(context.Background(), "district-1", 9); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("above max: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.GetQuote(context.Background(), "district-1", 2); err != nil {
		t.Errorf("min boundary: %v", err)
	}
	if _, err := svc.GetQuote(context.Background(), "district-1", 8); err != nil {
		t.Errorf("max boundary: %v", err)
	}
}

func TestGetQuoteMissingRuleOrDistrict(t *testing.T) {
	svc := newPricingService()

	if _, err := svc.GetQuote(context.Background(), "district-2", 3); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("no rule: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.GetQuote(context.Background(), "district-9", 3); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("inactive district: err = %v, want ErrInvalidRequest", err)
	}
}
