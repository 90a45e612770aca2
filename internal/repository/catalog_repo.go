package repository

import (
	"context"

	"github.com/quocanhngo/sportcast/internal/model"
	"gorm.io/gorm"
)

// CatalogRepository reads categories and channels
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Count(&count).Error
	return count, err
}

func (r *CatalogRepository) CountChannels(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Channel{}).Count(&count).Error
	return count, err
}
