package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/logging"
	"github.com/promarket/promarket/internal/models"
	"github.com/promarket/promarket/internal/mykafka"
	"github.com/promarket/promarket/internal/repo"
)

// Service is the cart aggregator. Every operation targets the unique active
// cart of the identity, creating an empty one when none exists. Completed
// and abandoned carts are terminal; the next operation starts a fresh cart.
type Service struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

func (s *Service) GetActiveCart(ctx context.Context, identity domain.Identity) (*models.Cart, error) {
	return s.Repo.GetOrCreateActiveCart(ctx, identity.SubjectID, identity.Role)
}

// AddItem consolidates duplicate lines: adding a product already in the cart
// increments its quantity and refreshes the price snapshot to the current
// catalog price.
func (s *Service) AddItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidQuantity)
	}

	product, err := s.Repo.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.Repo.AddCartItem(ctx, identity.SubjectID, identity.Role, productID, quantity, product.Price)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, identity, map[string]interface{}{
		"type":       "cart_item_added",
		"product_id": productID,
		"quantity":   quantity,
	})
	return c, nil
}

// UpdateQuantity sets a line's quantity directly; zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidQuantity)
	}

	c, err := s.Repo.SetCartItemQuantity(ctx, identity.SubjectID, identity.Role, productID, uint(quantity))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, identity, map[string]interface{}{
		"type":       "cart_item_updated",
		"product_id": productID,
		"quantity":   quantity,
	})
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, identity domain.Identity, productID uuid.UUID) (*models.Cart, error) {
	c, err := s.Repo.RemoveCartItem(ctx, identity.SubjectID, identity.Role, productID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, identity, map[string]interface{}{
		"type":       "cart_item_removed",
		"product_id": productID,
	})
	return c, nil
}

func (s *Service) Clear(ctx context.Context, identity domain.Identity) (*models.Cart, error) {
	c, err := s.Repo.ClearCart(ctx, identity.SubjectID, identity.Role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, identity, map[string]interface{}{"type": "cart_cleared"})
	return c, nil
}

func (s *Service) Complete(ctx context.Context, identity domain.Identity) (*models.Cart, error) {
	c, err := s.Repo.CompleteCart(ctx, identity.SubjectID, identity.Role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, identity, map[string]interface{}{
		"type":    "cart_completed",
		"cart_id": c.ID,
		"total":   c.Total,
	})
	return c, nil
}

func (s *Service) Abandon(ctx context.Context, identity domain.Identity) (*models.Cart, error) {
	c, err := s.Repo.AbandonCart(ctx, identity.SubjectID, identity.Role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, identity, map[string]interface{}{
		"type":    "cart_abandoned",
		"cart_id": c.ID,
	})
	return c, nil
}

func (s *Service) publish(ctx context.Context, identity domain.Identity, event map[string]interface{}) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	event["subject_id"] = identity.SubjectID
	event["role"] = identity.Role
	if err := s.Producer.PublishEvent(pubCtx, "cart_events", identity.SubjectID.String(), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
