package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agromarket/search-alerts/internal/entities"
)

type Categories struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *Categories {
	return &Categories{db: db}
}

func (repo *Categories) GetByName(ctx context.Context, name string) (*entities.Category, error) {

	var category entities.Category
	name = entities.NormalizeCategoryName(name)
	if err := repo.db.WithContext(ctx).First(&category, "normalized_name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (repo *Categories) GetAll(ctx context.Context) ([]entities.Category, error) {

	var categories []entities.Category
	if err := repo.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}
