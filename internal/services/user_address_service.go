package services

import (
	"context"
	"fmt"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type UserAddressStore interface {
	Create(ctx context.Context, addr models.UserAddress) (models.UserAddress, error)
	GetByID(ctx context.Context, id string) (models.UserAddress, error)
	ListByUser(ctx context.Context, userID string) ([]models.UserAddress, error)
}

type UserAddressService struct {
	Addresses UserAddressStore
}

func (s *UserAddressService) Create(ctx context.Context, user models.User, input models.CreateUserAddressInput) (models.UserAddress, error) {
	if input.AddressStreet == "" || input.AddressNumber == "" {
		return models.UserAddress{}, fmt.Errorf("address_street and address_number are required: %w", models.ErrInvalidRequest)
	}
	return s.Addresses.Create(ctx, models.UserAddress{
		UserID:           user.ID,
		Label:            input.Label,
		AddressStreet:    input.AddressStreet,
		AddressNumber:    input.AddressNumber,
		AddressFloorApt:  input.AddressFloorApt,
		AddressReference: input.AddressReference,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
	})
}

func (s *UserAddressService) ListMine(ctx context.Context, userID string) ([]models.UserAddress, error) {
	return s.Addresses.ListByUser(ctx, userID)
}
