package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/utils"
)

const accessTokenTTL = 24 * time.Hour

type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	SetFCMToken(ctx context.Context, userID, token string) error
	SetAvailability(ctx context.Context, userID string, available bool) error
	SetVerified(ctx context.Context, userID string, verified bool) error
	SetBlocked(ctx context.Context, userID string, blocked bool) error
}

type UserService struct {
	Users        UserStore
	Districts    DistrictStore
	TokenManager *utils.Manager
	SigningKey   string
}

// SignUp registers a client or provider. Providers start unverified and
// unavailable until an admin verifies them and they flip their own toggle.
func (s *UserService) SignUp(ctx context.Context, input models.SignUpRequest) (models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return models.User{}, fmt.Errorf("a valid email is required: %w", models.ErrInvalidRequest)
	}
	if len(input.Password) < 8 {
		return models.User{}, fmt.Errorf("password must be at least 8 characters: %w", models.ErrInvalidRequest)
	}
	if input.Role != models.RoleClient && input.Role != models.RoleProvider {
		return models.User{}, fmt.Errorf("role must be CLIENT or PROVIDER: %w", models.ErrInvalidRequest)
	}
	if _, err := s.Districts.GetActiveByID(ctx, input.DistrictID); err != nil {
		if errors.Is(err, models.ErrDistrictInactive) {
			return models.User{}, fmt.Errorf("district not found or inactive: %w", models.ErrInvalidRequest)
		}
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.Users.CreateUser(ctx, models.User{
		Email:      input.Email,
		Password:   string(hash),
		Role:       input.Role,
		FullName:   input.FullName,
		Phone:      input.Phone,
		DistrictID: input.DistrictID,
		IsVerified: input.Role == models.RoleClient,
	})
	if errors.Is(err, models.ErrDuplicateEmail) {
		return models.User{}, fmt.Errorf("email is already registered: %w", models.ErrConflict)
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SignIn checks the credentials and issues an access token carrying the
// user's id and role plus an opaque refresh token.
func (s *UserService) SignIn(ctx context.Context, input models.SignInRequest) (models.User, models.Tokens, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		return models.User{}, models.Tokens{}, fmt.Errorf("invalid email or password: %w", models.ErrForbidden)
	}
	if err != nil {
		return models.User{}, models.Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return models.User{}, models.Tokens{}, fmt.Errorf("invalid email or password: %w", models.ErrForbidden)
	}
	if user.IsBlocked {
		return models.User{}, models.Tokens{}, fmt.Errorf("account is blocked: %w", models.ErrForbidden)
	}

	claims := models.Claims{
		UserID: user.ID,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			ExpiresAt: time.Now().Add(accessTokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.SigningKey))
	if err != nil {
		return models.User{}, models.Tokens{}, err
	}
	refreshToken, err := s.TokenManager.NewRefreshToken()
	if err != nil {
		return models.User{}, models.Tokens{}, err
	}

	return user, models.Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.Users.GetUserByID(ctx, id)
	if errors.Is(err, models.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("user not found: %w", models.ErrNotFound)
	}
	return user, err
}

// SetAvailability flips the provider's claim toggle. Clients have no
// availability to manage.
func (s *UserService) SetAvailability(ctx context.Context, user models.User, available bool) error {
	if user.Role != models.RoleProvider {
		return fmt.Errorf("only providers have availability: %w", models.ErrForbidden)
	}
	return s.Users.SetAvailability(ctx, user.ID, available)
}

func (s *UserService) SetFCMToken(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("fcm_token is required: %w", models.ErrInvalidRequest)
	}
	return s.Users.SetFCMToken(ctx, userID, token)
}

func (s *UserService) SetVerified(ctx context.Context, admin models.User, userID string, verified bool) error {
	if admin.Role != models.RoleAdmin {
		return fmt.Errorf("only admin can verify providers: %w", models.ErrForbidden)
	}
	err := s.Users.SetVerified(ctx, userID, verified)
	if errors.Is(err, models.ErrUserNotFound) {
		return fmt.Errorf("user not found: %w", models.ErrNotFound)
	}
	return err
}

func (s *UserService) SetBlocked(ctx context.Context, admin models.User, userID string, blocked bool) error {
	if admin.Role != models.RoleAdmin {
		return fmt.Errorf("only admin can block users: %w", models.ErrForbidden)
	}
	err := s.Users.SetBlocked(ctx, userID, blocked)
	if errors.Is(err, models.ErrUserNotFound) {
		return fmt.Errorf("user not found: %w", models.ErrNotFound)
	}
	return err
}
