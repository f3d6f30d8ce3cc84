package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type DistrictRepository struct {
	DB *sql.DB
}

func (r *DistrictRepository) Create(ctx context.Context, district models.District) (models.District, error) {
	district.ID = uuid.NewString()
	district.CreatedAt = time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO districts (id, name, is_active, created_at) VALUES (?, ?, ?, ?)`,
		district.ID, district.Name, district.IsActive, district.CreatedAt)
	if err != nil {
		return models.District{}, err
	}
	return district, nil
}

// GetActiveByID returns the district only when it exists and is active.
func (r *DistrictRepository) GetActiveByID(ctx context.Context, id string) (models.District, error) {
	var d models.District
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, is_active, created_at FROM districts WHERE id = ? AND is_active = TRUE`, id).
		Scan(&d.ID, &d.Name, &d.IsActive, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.District{}, models.ErrDistrictInactive
	}
	if err != nil {
		return models.District{}, err
	}
	return d, nil
}

func (r *DistrictRepository) ListActive(ctx context.Context) ([]models.District, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, is_active, created_at FROM districts WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var districts []models.District
	for rows.Next() {
		var d models.District
		if err := rows.Scan(&d.ID, &d.Name, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		districts = append(districts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return districts, nil
}

func (r *DistrictRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE districts SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrDistrictNotFound
	}
	return nil
}
