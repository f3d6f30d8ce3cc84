package models

import "time"

// Rating is immutable once created; at most one exists per service request,
// enforced by a unique key on service_request_id.
type Rating struct {
	ID               string    `json:"id"`
	ServiceRequestID string    `json:"service_request_id"`
	ClientID         string    `json:"client_id"`
	ProviderID       string    `json:"provider_id"`
	Stars            int       `json:"stars"`
	Comment          *string   `json:"comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type CreateRatingInput struct {
	Stars   int     `json:"stars"`
	Comment *string `json:"comment,omitempty"`
}

// ProviderRatingSummary aggregates all ratings received by one provider.
type ProviderRatingSummary struct {
	ProviderID   string   `json:"provider_id"`
	AverageStars float64  `json:"average_stars"`
	TotalRatings int      `json:"total_ratings"`
	Ratings      []Rating `json:"ratings"`
}
