package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/lifecycle"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type ServiceRequestRepository struct {
	DB *sql.DB
}

const serviceRequestColumns = `sr.id, sr.client_id, sr.provider_id, sr.district_id, d.name,
	       sr.address_street, sr.address_number, sr.address_floor_apt, sr.address_reference,
	       sr.address_latitude, sr.address_longitude,
	       sr.hours_requested, sr.price_total, sr.currency, sr.scheduled_at, sr.status,
	       sr.accepted_at, sr.started_at, sr.completed_at,
	       sr.cancelled_at, sr.cancelled_by, sr.cancelled_by_role, sr.cancellation_reason,
	       sr.recurring_request_id, sr.expires_at, sr.created_at, sr.updated_at`

func (r *ServiceRequestRepository) Create(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	req.ID = uuid.NewString()
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	query := `
        INSERT INTO service_requests
            (id, client_id, district_id, address_street, address_number, address_floor_apt,
             address_reference, address_latitude, address_longitude, hours_requested,
             price_total, currency, scheduled_at, status, recurring_request_id,
             expires_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.DB.ExecContext(ctx, query,
		req.ID, req.ClientID, req.DistrictID, req.AddressStreet, req.AddressNumber,
		req.AddressFloorApt, req.AddressReference, req.AddressLatitude, req.AddressLongitude,
		req.HoursRequested, req.PriceTotal, req.Currency, req.ScheduledAt, req.Status,
		req.RecurringRequestID, req.ExpiresAt, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return models.ServiceRequest{}, err
	}
	return req, nil
}

func (r *ServiceRequestRepository) GetByID(ctx context.Context, id string) (models.ServiceRequest, error) {
	query := `
        SELECT ` + serviceRequestColumns + `
        FROM service_requests sr
        JOIN districts d ON d.id = sr.district_id
        WHERE sr.id = ?
    `
	req, err := scanServiceRequest(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ServiceRequest{}, models.ErrRequestNotFound
	}
	if err != nil {
		return models.ServiceRequest{}, err
	}
	return req, nil
}

// ListByClient returns the client's requests, newest first. An empty status
// means all statuses.
func (r *ServiceRequestRepository) ListByClient(ctx context.Context, clientID, status string) ([]models.ServiceRequest, error) {
	query := `
        SELECT ` + serviceRequestColumns + `
        FROM service_requests sr
        JOIN districts d ON d.id = sr.district_id
        WHERE sr.client_id = ?
    `
	args := []interface{}{clientID}
	if status != "" {
		query += ` AND sr.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY sr.created_at DESC`
	return r.queryServiceRequests(ctx, query, args...)
}

// ListPendingByDistrict returns unexpired PENDING requests in the district,
// oldest first.
func (r *ServiceRequestRepository) ListPendingByDistrict(ctx context.Context, districtID string, now time.Time, limit int) ([]models.ServiceRequest, error) {
	query := `
        SELECT ` + serviceRequestColumns + `
        FROM service_requests sr
        JOIN districts d ON d.id = sr.district_id
        WHERE sr.district_id = ? AND sr.status = ? AND sr.expires_at > ?
        ORDER BY sr.created_at ASC
        LIMIT ?
    `
	return r.queryServiceRequests(ctx, query, districtID, lifecycle.StatusPending, now, limit)
}

func (r *ServiceRequestRepository) ListAssignedToProvider(ctx context.Context, providerID string) ([]models.ServiceRequest, error) {
	query := `
        SELECT ` + serviceRequestColumns + `
        FROM service_requests sr
        JOIN districts d ON d.id = sr.district_id
        WHERE sr.provider_id = ? AND sr.status IN (?, ?, ?)
        ORDER BY sr.created_at DESC
    `
	return r.queryServiceRequests(ctx, query, providerID,
		lifecycle.StatusAccepted, lifecycle.StatusInProgress, lifecycle.StatusCompleted)
}

func (r *ServiceRequestRepository) ListRecent(ctx context.Context, limit int) ([]models.ServiceRequest, error) {
	query := `
        SELECT ` + serviceRequestColumns + `
        FROM service_requests sr
        JOIN districts d ON d.id = sr.district_id
        ORDER BY sr.created_at DESC
        LIMIT ?
    `
	return r.queryServiceRequests(ctx, query, limit)
}

// AcceptPending claims the request for the provider in one conditional write.
// The guard re-checks PENDING, no provider and an unexpired claim window at
// the moment of the update, so concurrent attempts cannot both win. Zero
// affected rows means the request was already taken or expired.
func (r *ServiceRequestRepository) AcceptPending(ctx context.Context, id, providerID string, now time.Time) error {
	query := `
        UPDATE service_requests
        SET provider_id = ?, status = ?, accepted_at = ?, updated_at = ?
        WHERE id = ? AND status = ? AND provider_id IS NULL AND expires_at > ?
    `
	res, err := r.DB.ExecContext(ctx, query,
		providerID, lifecycle.StatusAccepted, now, now,
		id, lifecycle.StatusPending, now,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrConflict
	}
	return nil
}

// StartAccepted moves an ACCEPTED request owned by the provider to
// IN_PROGRESS. The prior state is named in the guard; zero rows means the
// request changed underneath the caller.
func (r *ServiceRequestRepository) StartAccepted(ctx context.Context, id, providerID string, now time.Time) error {
	query := `
        UPDATE service_requests
        SET status = ?, started_at = ?, updated_at = ?
        WHERE id = ? AND status = ? AND provider_id = ?
    `
	return r.execTransition(ctx, query,
		lifecycle.StatusInProgress, now, now, id, lifecycle.StatusAccepted, providerID)
}

// CompleteInProgress moves an IN_PROGRESS request owned by the provider to COMPLETED.
func (r *ServiceRequestRepository) CompleteInProgress(ctx context.Context, id, providerID string, now time.Time) error {
	query := `
        UPDATE service_requests
        SET status = ?, completed_at = ?, updated_at = ?
        WHERE id = ? AND status = ? AND provider_id = ?
    `
	return r.execTransition(ctx, query,
		lifecycle.StatusCompleted, now, now, id, lifecycle.StatusInProgress, providerID)
}

// CancelFrom cancels the request only while it is still in fromStatus,
// stamping the audit fields in the same conditional write.
func (r *ServiceRequestRepository) CancelFrom(ctx context.Context, id, fromStatus, cancelledBy, role, reason string, now time.Time) error {
	query := `
        UPDATE service_requests
        SET status = ?, cancelled_at = ?, cancelled_by = ?, cancelled_by_role = ?,
            cancellation_reason = ?, updated_at = ?
        WHERE id = ? AND status = ?
    `
	return r.execTransition(ctx, query,
		lifecycle.StatusCancelled, now, cancelledBy, role, reason, now, id, fromStatus)
}

// ExpireDue moves every stale PENDING request to EXPIRED in one set-based
// operation and returns the number of rows affected. Running it with nothing
// due is a no-op.
func (r *ServiceRequestRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
        UPDATE service_requests
        SET status = ?, updated_at = ?
        WHERE status = ? AND expires_at < ?
    `
	res, err := r.DB.ExecContext(ctx, query,
		lifecycle.StatusExpired, now, lifecycle.StatusPending, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ForceStatus writes the status and audit fields without transition guards.
// Reserved for the privileged admin correction path.
func (r *ServiceRequestRepository) ForceStatus(ctx context.Context, req models.ServiceRequest) error {
	query := `
        UPDATE service_requests
        SET status = ?, accepted_at = ?, started_at = ?, completed_at = ?,
            cancelled_at = ?, cancelled_by = ?, cancelled_by_role = ?,
            cancellation_reason = ?, updated_at = ?
        WHERE id = ?
    `
	res, err := r.DB.ExecContext(ctx, query,
		req.Status, req.AcceptedAt, req.StartedAt, req.CompletedAt,
		req.CancelledAt, req.CancelledBy, req.CancelledByRole,
		req.CancellationReason, time.Now().UTC(), req.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrRequestNotFound
	}
	return nil
}

func (r *ServiceRequestRepository) execTransition(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

func (r *ServiceRequestRepository) queryServiceRequests(ctx context.Context, query string, args ...interface{}) ([]models.ServiceRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.ServiceRequest
	for rows.Next() {
		req, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanServiceRequest(row rowScanner) (models.ServiceRequest, error) {
	var req models.ServiceRequest
	err := row.Scan(
		&req.ID, &req.ClientID, &req.ProviderID, &req.DistrictID, &req.DistrictName,
		&req.AddressStreet, &req.AddressNumber, &req.AddressFloorApt, &req.AddressReference,
		&req.AddressLatitude, &req.AddressLongitude,
		&req.HoursRequested, &req.PriceTotal, &req.Currency, &req.ScheduledAt, &req.Status,
		&req.AcceptedAt, &req.StartedAt, &req.CompletedAt,
		&req.CancelledAt, &req.CancelledBy, &req.CancelledByRole, &req.CancellationReason,
		&req.RecurringRequestID, &req.ExpiresAt, &req.CreatedAt, &req.UpdatedAt,
	)
	return req, err
}
