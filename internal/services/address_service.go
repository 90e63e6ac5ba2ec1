package services

import (
	"context"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/models"
	"restaurant_orders/internal/repository"
)

type AddressService interface {
	Create(ctx context.Context, caller Identity, address *models.Address) error
	List(ctx context.Context, caller Identity) ([]models.Address, error)
	Delete(ctx context.Context, caller Identity, id uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{addressRepo: addressRepo}
}

func (s *addressService) Create(ctx context.Context, caller Identity, address *models.Address) error {
	if address.Street == "" || address.Number == "" || address.Neighborhood == "" ||
		address.City == "" || address.State == "" {
		return apperrors.Validation("street, number, neighborhood, city and state are required")
	}

	address.UserID = caller.UserID
	return s.addressRepo.Create(ctx, address)
}

func (s *addressService) List(ctx context.Context, caller Identity) ([]models.Address, error) {
	return s.addressRepo.GetByUserID(ctx, caller.UserID)
}

func (s *addressService) Delete(ctx context.Context, caller Identity, id uint) error {
	address, err := s.addressRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if address == nil {
		return apperrors.NotFound("address not found")
	}
	if !caller.IsAdmin() && address.UserID != caller.UserID {
		return apperrors.Authorization("you do not have permission to delete this address")
	}
	return s.addressRepo.Delete(ctx, id)
}
