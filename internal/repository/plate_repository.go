package repository

import (
	"context"
	"errors"

	"restaurant_orders/internal/models"

	"gorm.io/gorm"
)

type PlateRepository interface {
	Create(ctx context.Context, plate *models.Plate) error
	GetByID(ctx context.Context, id uint) (*models.Plate, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Plate, error)
	GetAll(ctx context.Context) ([]models.Plate, error)
}

type plateRepository struct {
	db *gorm.DB
}

func NewPlateRepository(db *gorm.DB) PlateRepository {
	return &plateRepository{db: db}
}

func (r *plateRepository) Create(ctx context.Context, plate *models.Plate) error {
	return r.db.WithContext(ctx).Create(plate).Error
}

func (r *plateRepository) GetByID(ctx context.Context, id uint) (*models.Plate, error) {
	var plate models.Plate
	err := r.db.WithContext(ctx).First(&plate, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plate, nil
}

func (r *plateRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Plate, error) {
	var plates []models.Plate
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&plates).Error
	return plates, err
}

func (r *plateRepository) GetAll(ctx context.Context) ([]models.Plate, error) {
	var plates []models.Plate
	err := r.db.WithContext(ctx).Where("is_available = ?", true).Find(&plates).Error
	return plates, err
}
