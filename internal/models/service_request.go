package models

import "time"

// ServiceRequest is the central entity of the matching engine. The address is
// a snapshot captured at creation time; price and expiry never change after
// the row is inserted.
type ServiceRequest struct {
	ID                 string     `json:"id"`
	ClientID           string     `json:"client_id"`
	ProviderID         *string    `json:"provider_id,omitempty"`
	DistrictID         string     `json:"district_id"`
	DistrictName       string     `json:"district_name,omitempty"`
	AddressStreet      string     `json:"address_street"`
	AddressNumber      string     `json:"address_number"`
	AddressFloorApt    *string    `json:"address_floor_apt,omitempty"`
	AddressReference   *string    `json:"address_reference,omitempty"`
	AddressLatitude    *float64   `json:"address_latitude,omitempty"`
	AddressLongitude   *float64   `json:"address_longitude,omitempty"`
	HoursRequested     int        `json:"hours_requested"`
	PriceTotal         float64    `json:"price_total"`
	Currency           string     `json:"currency"`
	ScheduledAt        time.Time  `json:"scheduled_at"`
	Status             string     `json:"status"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *string    `json:"cancelled_by,omitempty"`
	CancelledByRole    *string    `json:"cancelled_by_role,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	RecurringRequestID *string    `json:"recurring_request_id,omitempty"`
	ExpiresAt          time.Time  `json:"expires_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateServiceRequestInput carries the creation payload. Either AddressID or
// the street+number pair must be present. RecurringRequestID and the
// coordinates are filled internally (recurrence sweep, saved-address lookup),
// never from the wire.
type CreateServiceRequestInput struct {
	DistrictID         string   `json:"district_id"`
	AddressID          *string  `json:"address_id,omitempty"`
	AddressStreet      string   `json:"address_street"`
	AddressNumber      string   `json:"address_number"`
	AddressFloorApt    *string  `json:"address_floor_apt,omitempty"`
	AddressReference   *string  `json:"address_reference,omitempty"`
	AddressLatitude    *float64 `json:"-"`
	AddressLongitude   *float64 `json:"-"`
	HoursRequested     int      `json:"hours_requested"`
	ScheduledAt        string   `json:"scheduled_at"`
	RecurringRequestID *string  `json:"-"`
}

// AvailableRequest is the provider-facing view of a claimable PENDING request.
type AvailableRequest struct {
	ID                   string    `json:"id"`
	DistrictName         string    `json:"district_name"`
	HoursRequested       int       `json:"hours_requested"`
	PriceTotal           float64   `json:"price_total"`
	Currency             string    `json:"currency"`
	ScheduledAt          time.Time `json:"scheduled_at"`
	ExpiresAt            time.Time `json:"expires_at"`
	TimeRemainingSeconds int64     `json:"time_remaining_seconds"`
}

type CancelServiceRequestInput struct {
	CancellationReason string `json:"cancellation_reason"`
}

type SetRequestStatusInput struct {
	Status             string  `json:"status"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
}
