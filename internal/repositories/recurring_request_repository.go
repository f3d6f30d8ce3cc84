package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type RecurringRequestRepository struct {
	DB *sql.DB
}

const recurringColumns = `rr.id, rr.client_id, rr.district_id, d.name,
	       rr.address_street, rr.address_number, rr.address_floor_apt, rr.address_reference,
	       rr.address_latitude, rr.address_longitude,
	       rr.hours_requested, rr.day_of_week, rr.time_of_day, rr.is_active,
	       rr.next_scheduled_at, rr.created_at, rr.updated_at`

func (r *RecurringRequestRepository) Create(ctx context.Context, rec models.RecurringRequest) (models.RecurringRequest, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	query := `
        INSERT INTO recurring_requests
            (id, client_id, district_id, address_street, address_number, address_floor_apt,
             address_reference, address_latitude, address_longitude, hours_requested,
             day_of_week, time_of_day, is_active, next_scheduled_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID, rec.ClientID, rec.DistrictID, rec.AddressStreet, rec.AddressNumber,
		rec.AddressFloorApt, rec.AddressReference, rec.AddressLatitude, rec.AddressLongitude,
		rec.HoursRequested, rec.DayOfWeek, rec.TimeOfDay, rec.IsActive,
		rec.NextScheduledAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return models.RecurringRequest{}, err
	}
	return rec, nil
}

func (r *RecurringRequestRepository) GetByID(ctx context.Context, id string) (models.RecurringRequest, error) {
	query := `
        SELECT ` + recurringColumns + `
        FROM recurring_requests rr
        JOIN districts d ON d.id = rr.district_id
        WHERE rr.id = ?
    `
	rec, err := scanRecurringRequest(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.RecurringRequest{}, models.ErrRecurringNotFound
	}
	if err != nil {
		return models.RecurringRequest{}, err
	}
	return rec, nil
}

func (r *RecurringRequestRepository) ListActiveByClient(ctx context.Context, clientID string) ([]models.RecurringRequest, error) {
	query := `
        SELECT ` + recurringColumns + `
        FROM recurring_requests rr
        JOIN districts d ON d.id = rr.district_id
        WHERE rr.client_id = ? AND rr.is_active = TRUE
        ORDER BY rr.created_at DESC
    `
	return r.queryRecurring(ctx, query, clientID)
}

// ListDue returns active templates whose next occurrence falls before the
// horizon, oldest first so stale templates are handled before fresh ones.
func (r *RecurringRequestRepository) ListDue(ctx context.Context, horizon time.Time) ([]models.RecurringRequest, error) {
	query := `
        SELECT ` + recurringColumns + `
        FROM recurring_requests rr
        JOIN districts d ON d.id = rr.district_id
        WHERE rr.is_active = TRUE AND rr.next_scheduled_at <= ?
        ORDER BY rr.next_scheduled_at ASC
    `
	return r.queryRecurring(ctx, query, horizon)
}

func (r *RecurringRequestRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE recurring_requests SET is_active = FALSE, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrRecurringNotFound
	}
	return nil
}

// AdvanceSchedule moves next_scheduled_at forward after a generation attempt.
func (r *RecurringRequestRepository) AdvanceSchedule(ctx context.Context, id string, next time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE recurring_requests SET next_scheduled_at = ?, updated_at = ? WHERE id = ?`,
		next, time.Now().UTC(), id)
	return err
}

func (r *RecurringRequestRepository) queryRecurring(ctx context.Context, query string, args ...interface{}) ([]models.RecurringRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.RecurringRequest
	for rows.Next() {
		rec, err := scanRecurringRequest(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func scanRecurringRequest(row rowScanner) (models.RecurringRequest, error) {
	var rec models.RecurringRequest
	err := row.Scan(
		&rec.ID, &rec.ClientID, &rec.DistrictID, &rec.DistrictName,
		&rec.AddressStreet, &rec.AddressNumber, &rec.AddressFloorApt, &rec.AddressReference,
		&rec.AddressLatitude, &rec.AddressLongitude,
		&rec.HoursRequested, &rec.DayOfWeek, &rec.TimeOfDay, &rec.IsActive,
		&rec.NextScheduledAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}
