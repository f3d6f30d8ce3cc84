package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type DistrictAdminStore interface {
	Create(ctx context.Context, district models.District) (models.District, error)
	GetActiveByID(ctx context.Context, id string) (models.District, error)
	ListActive(ctx context.Context) ([]models.District, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type PricingRuleStore interface {
	Create(ctx context.Context, rule models.PricingRule) (models.PricingRule, error)
	GetActiveByDistrict(ctx context.Context, districtID string) (models.PricingRule, error)
	UpdateRule(ctx context.Context, rule models.PricingRule) error
}

type DistrictService struct {
	Districts DistrictAdminStore
	Rules     PricingRuleStore
}

func (s *DistrictService) ListActive(ctx context.Context) ([]models.District, error) {
	return s.Districts.ListActive(ctx)
}

func (s *DistrictService) Create(ctx context.Context, admin models.User, name string) (models.District, error) {
	if admin.Role != models.RoleAdmin {
		return models.District{}, fmt.Errorf("only admin can create districts: %w", models.ErrForbidden)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.District{}, fmt.Errorf("district name is required: %w", models.ErrInvalidRequest)
	}
	return s.Districts.Create(ctx, models.District{Name: name, IsActive: true})
}

func (s *DistrictService) SetActive(ctx context.Context, admin models.User, id string, active bool) error {
	if admin.Role != models.RoleAdmin {
		return fmt.Errorf("only admin can change district state: %w", models.ErrForbidden)
	}
	err := s.Districts.SetActive(ctx, id, active)
	if errors.Is(err, models.ErrDistrictNotFound) {
		return fmt.Errorf("district not found: %w", models.ErrNotFound)
	}
	return err
}

// CreatePricingRule installs the active rule for a district.
func (s *DistrictService) CreatePricingRule(ctx context.Context, admin models.User, rule models.PricingRule) (models.PricingRule, error) {
	if admin.Role != models.RoleAdmin {
		return models.PricingRule{}, fmt.Errorf("only admin can manage pricing rules: %w", models.ErrForbidden)
	}
	if err := validatePricingRule(rule); err != nil {
		return models.PricingRule{}, err
	}
	if _, err := s.Districts.GetActiveByID(ctx, rule.DistrictID); err != nil {
		if errors.Is(err, models.ErrDistrictInactive) {
			return models.PricingRule{}, fmt.Errorf("district not found or inactive: %w", models.ErrInvalidRequest)
		}
		return models.PricingRule{}, err
	}
	return s.Rules.Create(ctx, rule)
}

func (s *DistrictService) UpdatePricingRule(ctx context.Context, admin models.User, rule models.PricingRule) error {
	if admin.Role != models.RoleAdmin {
		return fmt.Errorf("only admin can manage pricing rules: %w", models.ErrForbidden)
	}
	if err := validatePricingRule(rule); err != nil {
		return err
	}
	err := s.Rules.UpdateRule(ctx, rule)
	if errors.Is(err, models.ErrNoActivePricingRule) {
		return fmt.Errorf("pricing rule not found: %w", models.ErrNotFound)
	}
	return err
}

func validatePricingRule(rule models.PricingRule) error {
	if rule.PricePerHour <= 0 {
		return fmt.Errorf("price_per_hour must be positive: %w", models.ErrInvalidRequest)
	}
	if rule.Currency == "" {
		return fmt.Errorf("currency is required: %w", models.ErrInvalidRequest)
	}
	if rule.MinHours < 1 || rule.MaxHours < rule.MinHours {
		return fmt.Errorf("min_hours and max_hours must form a valid range: %w", models.ErrInvalidRequest)
	}
	return nil
}
