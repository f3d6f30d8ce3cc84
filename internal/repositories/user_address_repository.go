package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type UserAddressRepository struct {
	DB *sql.DB
}

const userAddressColumns = `id, user_id, label, address_street, address_number,
	       address_floor_apt, address_reference, latitude, longitude, created_at`

func (r *UserAddressRepository) Create(ctx context.Context, addr models.UserAddress) (models.UserAddress, error) {
	addr.ID = uuid.NewString()
	addr.CreatedAt = time.Now().UTC()
	query := `
        INSERT INTO user_addresses (id, user_id, label, address_street, address_number,
                                    address_floor_apt, address_reference, latitude, longitude, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.DB.ExecContext(ctx, query,
		addr.ID, addr.UserID, addr.Label, addr.AddressStreet, addr.AddressNumber,
		addr.AddressFloorApt, addr.AddressReference, addr.Latitude, addr.Longitude, addr.CreatedAt)
	if err != nil {
		return models.UserAddress{}, err
	}
	return addr, nil
}

func (r *UserAddressRepository) GetByID(ctx context.Context, id string) (models.UserAddress, error) {
	query := `SELECT ` + userAddressColumns + ` FROM user_addresses WHERE id = ?`
	var addr models.UserAddress
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&addr.ID, &addr.UserID, &addr.Label, &addr.AddressStreet, &addr.AddressNumber,
		&addr.AddressFloorApt, &addr.AddressReference, &addr.Latitude, &addr.Longitude, &addr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserAddress{}, models.ErrAddressNotFound
	}
	if err != nil {
		return models.UserAddress{}, err
	}
	return addr, nil
}

func (r *UserAddressRepository) ListByUser(ctx context.Context, userID string) ([]models.UserAddress, error) {
	query := `SELECT ` + userAddressColumns + ` FROM user_addresses WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []models.UserAddress
	for rows.Next() {
		var addr models.UserAddress
		if err := rows.Scan(&addr.ID, &addr.UserID, &addr.Label, &addr.AddressStreet, &addr.AddressNumber,
			&addr.AddressFloorApt, &addr.AddressReference, &addr.Latitude, &addr.Longitude, &addr.CreatedAt); err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return addrs, nil
}
