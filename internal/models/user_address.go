package models

import "time"

// UserAddress is a saved address a client may reference at request creation.
// The request keeps its own copy; later edits here never touch past requests.
type UserAddress struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Label            string    `json:"label"`
	AddressStreet    string    `json:"address_street"`
	AddressNumber    string    `json:"address_number"`
	AddressFloorApt  *string   `json:"address_floor_apt,omitempty"`
	AddressReference *string   `json:"address_reference,omitempty"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type CreateUserAddressInput struct {
	Label            string   `json:"label"`
	AddressStreet    string   `json:"address_street"`
	AddressNumber    string   `json:"address_number"`
	AddressFloorApt  *string  `json:"address_floor_apt,omitempty"`
	AddressReference *string  `json:"address_reference,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
}
