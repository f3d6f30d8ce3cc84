package models

import "time"

// District scopes pricing, provider matching and address validation.
type District struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// PricingRule is the per-district hourly rate used to quote a request. Only
// one rule per district is expected to be active at a time.
type PricingRule struct {
	ID           string    `json:"id"`
	DistrictID   string    `json:"district_id"`
	PricePerHour float64   `json:"price_per_hour"`
	Currency     string    `json:"currency"`
	MinHours     int       `json:"min_hours"`
	MaxHours     int       `json:"max_hours"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Quote is the frozen pricing outcome stored into a service request.
type Quote struct {
	DistrictID   string  `json:"district_id"`
	DistrictName string  `json:"district_name"`
	Hours        int     `json:"hours"`
	PricePerHour float64 `json:"price_per_hour"`
	PriceTotal   float64 `json:"price_total"`
	Currency     string  `json:"currency"`
}
