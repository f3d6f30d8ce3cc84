package models

import (
	"errors"
)

// Error kinds surfaced by every public engine operation. Handlers map them to
// HTTP statuses with errors.Is; services wrap them with detail text.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
)

var (
	ErrUserNotFound        = errors.New("models: user not found")
	ErrDistrictNotFound    = errors.New("models: district not found")
	ErrRequestNotFound     = errors.New("models: service request not found")
	ErrRecurringNotFound   = errors.New("models: recurring request not found")
	ErrAddressNotFound     = errors.New("models: saved address not found")
	ErrAlreadyRated        = errors.New("models: rating already exists for this service request")
	ErrInvalidCredentials  = errors.New("models: invalid credentials")
	ErrDuplicateEmail      = errors.New("models: duplicate email")
	ErrNoActivePricingRule = errors.New("models: no active pricing rule found for district")
	ErrDistrictInactive    = errors.New("models: district not found or inactive")
)
