package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type districtGetter interface {
	GetActiveByID(ctx context.Context, id string) (models.District, error)
}

type pricingRuleGetter interface {
	GetActiveByDistrict(ctx context.Context, districtID string) (models.PricingRule, error)
}

type PricingService struct {
	Districts districtGetter
	Rules     pricingRuleGetter
}

// GetQuote computes the total price for the requested hours against the
// district's active rule. Totals are rounded to two decimals.
func (s *PricingService) GetQuote(ctx context.Context, districtID string, hours int) (models.Quote, error) {
	district, err := s.Districts.GetActiveByID(ctx, districtID)
	if err != nil {
		if errors.Is(err, models.ErrDistrictInactive) {
			return models.Quote{}, fmt.Errorf("district not found or inactive: %w", models.ErrInvalidRequest)
		}
		return models.Quote{}, err
	}

	rule, err := s.Rules.GetActiveByDistrict(ctx, districtID)
	if err != nil {
		if errors.Is(err, models.ErrNoActivePricingRule) {
			return models.Quote{}, fmt.Errorf("no active pricing rule for district %s: %w", districtID, models.ErrInvalidRequest)
		}
		return models.Quote{}, err
	}

	if hours < rule.MinHours || hours > rule.MaxHours {
		return models.Quote{}, fmt.Errorf("hours must be between %d and %d: %w", rule.MinHours, rule.MaxHours, models.ErrInvalidRequest)
	}

	return models.Quote{
		DistrictID:   district.ID,
		DistrictName: district.Name,
		Hours:        hours,
		PricePerHour: rule.PricePerHour,
		PriceTotal:   math.Round(rule.PricePerHour*float64(hours)*100) / 100,
		Currency:     rule.Currency,
	}, nil
}
