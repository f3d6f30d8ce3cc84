package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, email, password_hash, role, full_name, phone, district_id,
	       is_verified, is_blocked, is_available, fcm_token, created_at, updated_at`

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	query := `
        INSERT INTO users (id, email, password_hash, role, full_name, phone, district_id,
                           is_verified, is_blocked, is_available, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.DB.ExecContext(ctx, query,
		user.ID, user.Email, user.Password, user.Role, user.FullName, user.Phone,
		user.DistrictID, user.IsVerified, user.IsBlocked, user.IsAvailable, user.CreatedAt,
	)
	if isDuplicateKeyError(err) {
		return models.User{}, models.ErrDuplicateEmail
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(r.DB.QueryRowContext(ctx, query, email))
}

// ListProviderPushTokens returns the device tokens of every provider in the
// district that could claim a new request right now.
func (r *UserRepository) ListProviderPushTokens(ctx context.Context, districtID string) ([]string, error) {
	query := `
        SELECT fcm_token FROM users
        WHERE role = ? AND district_id = ?
          AND is_verified = TRUE AND is_blocked = FALSE AND is_available = TRUE
          AND fcm_token IS NOT NULL
    `
	rows, err := r.DB.QueryContext(ctx, query, models.RoleProvider, districtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *UserRepository) SetFCMToken(ctx context.Context, userID, token string) error {
	return r.updateUserField(ctx, `UPDATE users SET fcm_token = ?, updated_at = ? WHERE id = ?`, token, userID)
}

func (r *UserRepository) SetAvailability(ctx context.Context, userID string, available bool) error {
	return r.updateUserField(ctx, `UPDATE users SET is_available = ?, updated_at = ? WHERE id = ?`, available, userID)
}

func (r *UserRepository) SetVerified(ctx context.Context, userID string, verified bool) error {
	return r.updateUserField(ctx, `UPDATE users SET is_verified = ?, updated_at = ? WHERE id = ?`, verified, userID)
}

func (r *UserRepository) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	return r.updateUserField(ctx, `UPDATE users SET is_blocked = ?, updated_at = ? WHERE id = ?`, blocked, userID)
}

func (r *UserRepository) updateUserField(ctx context.Context, query string, value interface{}, userID string) error {
	res, err := r.DB.ExecContext(ctx, query, value, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var updatedAt sql.NullTime
	err := row.Scan(
		&user.ID, &user.Email, &user.Password, &user.Role, &user.FullName, &user.Phone,
		&user.DistrictID, &user.IsVerified, &user.IsBlocked, &user.IsAvailable,
		&user.FCMToken, &user.CreatedAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	if updatedAt.Valid {
		user.UpdatedAt = &updatedAt.Time
	}
	return user, nil
}
