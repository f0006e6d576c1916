package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/models"
)

// Cart mutations run inside a transaction and touch line items with
// conditional updates only, so two concurrent adds of the same product
// both land as increments instead of one overwriting the other.

func (r *GormRepo) GetOrCreateActiveCart(ctx context.Context, subjectID uuid.UUID, role domain.Role) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateActiveCart(tx, subjectID, role)
		if err != nil {
			return err
		}
		out, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, wrapCartErr(err)
	}
	return out, nil
}

func (r *GormRepo) AddCartItem(ctx context.Context, subjectID uuid.UUID, role domain.Role, productID uuid.UUID, quantity uint, price float64) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateActiveCart(tx, subjectID, role)
		if err != nil {
			return err
		}

		item := models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			Price:     price,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("cart_items.quantity + ?", quantity),
				"price":    price,
			}),
		}).Create(&item).Error
		if err != nil {
			return err
		}

		if err := recomputeTotal(tx, cart.ID); err != nil {
			return err
		}
		out, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, wrapCartErr(err)
	}
	return out, nil
}

// SetCartItemQuantity sets the line quantity directly; zero removes the
// line. A missing line is an error either way, matching the update route
// of the public API.
func (r *GormRepo) SetCartItemQuantity(ctx context.Context, subjectID uuid.UUID, role domain.Role, productID uuid.UUID, quantity uint) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateActiveCart(tx, subjectID, role)
		if err != nil {
			return err
		}

		var res *gorm.DB
		if quantity == 0 {
			res = tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Delete(&models.CartItem{})
		} else {
			res = tx.Model(&models.CartItem{}).
				Where("cart_id = ? AND product_id = ?", cart.ID, productID).
				Update("quantity", quantity)
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrCartItemNotFound
		}

		if err := recomputeTotal(tx, cart.ID); err != nil {
			return err
		}
		out, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, wrapCartErr(err)
	}
	return out, nil
}

// RemoveCartItem is idempotent: deleting an absent line returns the cart
// unchanged.
func (r *GormRepo) RemoveCartItem(ctx context.Context, subjectID uuid.UUID, role domain.Role, productID uuid.UUID) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateActiveCart(tx, subjectID, role)
		if err != nil {
			return err
		}

		if err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		if err := recomputeTotal(tx, cart.ID); err != nil {
			return err
		}
		out, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, wrapCartErr(err)
	}
	return out, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, subjectID uuid.UUID, role domain.Role) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateActiveCart(tx, subjectID, role)
		if err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).Update("total", 0).Error; err != nil {
			return err
		}
		out, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, wrapCartErr(err)
	}
	return out, nil
}

func (r *GormRepo) CompleteCart(ctx context.Context, subjectID uuid.UUID, role domain.Role) (*models.Cart, error) {
	return r.closeCart(ctx, subjectID, role, domain.CartCompleted)
}

func (r *GormRepo) AbandonCart(ctx context.Context, subjectID uuid.UUID, role domain.Role) (*models.Cart, error) {
	return r.closeCart(ctx, subjectID, role, domain.CartAbandoned)
}

func (r *GormRepo) closeCart(ctx context.Context, subjectID uuid.UUID, role domain.Role, status string) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateActiveCart(tx, subjectID, role)
		if err != nil {
			return err
		}

		if status == domain.CartCompleted {
			var count int64
			if err := tx.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrEmptyCart
			}
		}

		// The status guard keeps a terminal record terminal even if a
		// concurrent request already closed this cart.
		res := tx.Model(&models.Cart{}).
			Where("id = ? AND status = ?", cart.ID, domain.CartActive).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrCartNotActive
		}

		out, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, wrapCartErr(err)
	}
	return out, nil
}

// getOrCreateActiveCart converges on the oldest active cart for the pair so
// a rare double-create settles on one canonical record.
func getOrCreateActiveCart(tx *gorm.DB, subjectID uuid.UUID, role domain.Role) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Where("subject_id = ? AND role = ? AND status = ?", subjectID, string(role), domain.CartActive).
		Order("created_at ASC").First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{SubjectID: subjectID, Role: string(role), Status: domain.CartActive}
	if err := tx.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func recomputeTotal(tx *gorm.DB, cartID uuid.UUID) error {
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.CartItem{}).
		Select("COALESCE(SUM(price * quantity), 0)").
		Where("cart_id = ?", cartID)
	return tx.Model(&models.Cart{}).Where("id = ?", cartID).Update("total", sub).Error
}

func loadCart(tx *gorm.DB, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("added_at ASC")
	}).First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func wrapCartErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrCartItemNotFound),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrCartNotActive),
		errors.Is(err, domain.ErrStoreUnavailable):
		return err
	}
	return storeErr(err)
}
