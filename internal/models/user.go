package models

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// User roles.
const (
	RoleClient   = "CLIENT"
	RoleProvider = "PROVIDER"
	RoleAdmin    = "ADMIN"
)

type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Password    string     `json:"-"`
	Role        string     `json:"role"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	DistrictID  string     `json:"district_id"`
	IsVerified  bool       `json:"is_verified"`
	IsBlocked   bool       `json:"is_blocked"`
	IsAvailable bool       `json:"is_available"`
	FCMToken    *string    `json:"fcm_token,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type SignUpRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	DistrictID string `json:"district_id"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SetAvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

type SetFCMTokenRequest struct {
	FCMToken string `json:"fcm_token"`
}
