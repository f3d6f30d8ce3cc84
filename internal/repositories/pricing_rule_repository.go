package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type PricingRuleRepository struct {
	DB *sql.DB
}

func (r *PricingRuleRepository) Create(ctx context.Context, rule models.PricingRule) (models.PricingRule, error) {
	rule.ID = uuid.NewString()
	rule.CreatedAt = time.Now().UTC()
	query := `
        INSERT INTO pricing_rules (id, district_id, price_per_hour, currency, min_hours, max_hours, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.DB.ExecContext(ctx, query,
		rule.ID, rule.DistrictID, rule.PricePerHour, rule.Currency,
		rule.MinHours, rule.MaxHours, rule.IsActive, rule.CreatedAt)
	if err != nil {
		return models.PricingRule{}, err
	}
	return rule, nil
}

// GetActiveByDistrict returns the active rule for the district.
func (r *PricingRuleRepository) GetActiveByDistrict(ctx context.Context, districtID string) (models.PricingRule, error) {
	var rule models.PricingRule
	query := `
        SELECT id, district_id, price_per_hour, currency, min_hours, max_hours, is_active, created_at
        FROM pricing_rules
        WHERE district_id = ? AND is_active = TRUE
        LIMIT 1
    `
	err := r.DB.QueryRowContext(ctx, query, districtID).Scan(
		&rule.ID, &rule.DistrictID, &rule.PricePerHour, &rule.Currency,
		&rule.MinHours, &rule.MaxHours, &rule.IsActive, &rule.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PricingRule{}, models.ErrNoActivePricingRule
	}
	if err != nil {
		return models.PricingRule{}, err
	}
	return rule, nil
}

// UpdateRule replaces the mutable pricing fields of an existing rule.
func (r *PricingRuleRepository) UpdateRule(ctx context.Context, rule models.PricingRule) error {
	query := `
        UPDATE pricing_rules
        SET price_per_hour = ?, currency = ?, min_hours = ?, max_hours = ?, is_active = ?
        WHERE id = ?
    `
	res, err := r.DB.ExecContext(ctx, query,
		rule.PricePerHour, rule.Currency, rule.MinHours, rule.MaxHours, rule.IsActive, rule.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNoActivePricingRule
	}
	return nil
}
