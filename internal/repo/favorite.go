package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/promarket/promarket/internal/models"
)

func (r *GormRepo) ListFavorites(ctx context.Context, professionalID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Joins("JOIN favorites ON favorites.product_id = products.id").
		Where("favorites.professional_id = ?", professionalID).
		Order("favorites.created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return products, nil
}

func (r *GormRepo) AddFavorite(ctx context.Context, professionalID, productID uuid.UUID) error {
	fav := models.Favorite{ProfessionalID: professionalID, ProductID: productID}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *GormRepo) RemoveFavorite(ctx context.Context, professionalID, productID uuid.UUID) error {
	err := r.DB.WithContext(ctx).
		Where("professional_id = ? AND product_id = ?", professionalID, productID).
		Delete(&models.Favorite{}).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}
