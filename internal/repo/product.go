package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/models"
)

func (r *GormRepo) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, storeErr(err)
	}
	return &p, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}

	var items []models.Product
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return items, total, nil
}

func (r *GormRepo) ListManufacturerProducts(ctx context.Context, manufacturerID uuid.UUID, search string, offset, limit int) ([]models.Product, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("manufacturer_id = ?", manufacturerID)
	if search != "" {
		q = q.Where("title LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}

	var items []models.Product
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, storeErr(err)
	}
	return items, total, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := r.DB.WithContext(ctx).Create(p).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	if err := r.DB.WithContext(ctx).Save(p).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := r.DB.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *GormRepo) CountManufacturerProducts(ctx context.Context, manufacturerID uuid.UUID) (total, outOfStock int64, err error) {
	db := r.DB.WithContext(ctx).Model(&models.Product{})
	if err = db.Where("manufacturer_id = ?", manufacturerID).Count(&total).Error; err != nil {
		return 0, 0, storeErr(err)
	}
	err = r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("manufacturer_id = ? AND stock = 0", manufacturerID).Count(&outOfStock).Error
	if err != nil {
		return 0, 0, storeErr(err)
	}
	return total, outOfStock, nil
}

func (r *GormRepo) RecentManufacturerProducts(ctx context.Context, manufacturerID uuid.UUID, n int) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).Where("manufacturer_id = ?", manufacturerID).
		Order("created_at DESC").Limit(n).Find(&items).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}
