package models

import "time"

// RecurringRequest is a weekly template that the generation sweep turns into
// fresh service requests. Cancellation deactivates it, never deletes it.
type RecurringRequest struct {
	ID               string     `json:"id"`
	ClientID         string     `json:"client_id"`
	DistrictID       string     `json:"district_id"`
	DistrictName     string     `json:"district_name,omitempty"`
	AddressStreet    string     `json:"address_street"`
	AddressNumber    string     `json:"address_number"`
	AddressFloorApt  *string    `json:"address_floor_apt,omitempty"`
	AddressReference *string    `json:"address_reference,omitempty"`
	AddressLatitude  *float64   `json:"address_latitude,omitempty"`
	AddressLongitude *float64   `json:"address_longitude,omitempty"`
	HoursRequested   int        `json:"hours_requested"`
	DayOfWeek        int        `json:"day_of_week"`
	TimeOfDay        string     `json:"time_of_day"`
	IsActive         bool       `json:"is_active"`
	NextScheduledAt  time.Time  `json:"next_scheduled_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type CreateRecurringRequestInput struct {
	DistrictID       string   `json:"district_id"`
	AddressStreet    string   `json:"address_street"`
	AddressNumber    string   `json:"address_number"`
	AddressFloorApt  *string  `json:"address_floor_apt,omitempty"`
	AddressReference *string  `json:"address_reference,omitempty"`
	AddressLatitude  *float64 `json:"address_latitude,omitempty"`
	AddressLongitude *float64 `json:"address_longitude,omitempty"`
	HoursRequested   int      `json:"hours_requested"`
	DayOfWeek        int      `json:"day_of_week"`
	TimeOfDay        string   `json:"time_of_day"`
}
