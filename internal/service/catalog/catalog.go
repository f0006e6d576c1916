package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/logging"
	"github.com/promarket/promarket/internal/models"
	"github.com/promarket/promarket/internal/mykafka"
	"github.com/promarket/promarket/internal/repo"
	"github.com/promarket/promarket/internal/service/search"
	"github.com/promarket/promarket/internal/util"
)

type Service struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

type Page struct {
	Items      []models.Product `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	TotalPages int64            `json:"total_pages"`
}

type CreateProductInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Price        float64  `json:"price"`
	Stock        uint     `json:"stock"`
	Images       []string `json:"images"`
	Specs        []string `json:"specs"`
	ModelFormats []string `json:"model_formats"`
}

type UpdateProductInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price"`
	Stock       *uint    `json:"stock"`
	Images      []string `json:"images"`
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.Repo.ProductByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, page, size int) (*Page, error) {
	offset, limit := util.Calculate(page, size)
	items, total, err := s.Repo.ListProducts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return makePage(items, total, page, limit), nil
}

func (s *Service) ListOwnProducts(ctx context.Context, identity domain.Identity, searchTerm string, page, size int) (*Page, error) {
	offset, limit := util.Calculate(page, size)
	items, total, err := s.Repo.ListManufacturerProducts(ctx, identity.SubjectID, searchTerm, offset, limit)
	if err != nil {
		return nil, err
	}
	return makePage(items, total, page, limit), nil
}

func (s *Service) CreateProduct(ctx context.Context, identity domain.Identity, in CreateProductInput) (*models.Product, error) {
	if in.Title == "" || in.Description == "" {
		return nil, fmt.Errorf("%w: title and description are required", domain.ErrValidation)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if len(in.Images) == 0 {
		return nil, fmt.Errorf("%w: at least one product image is required", domain.ErrValidation)
	}

	p := models.Product{
		ManufacturerID: identity.SubjectID,
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		Price:          in.Price,
		Stock:          in.Stock,
		Images:         in.Images,
		Specs:          in.Specs,
		ModelFormats:   in.ModelFormats,
	}
	if err := s.Repo.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}

	s.indexProduct(ctx, &p)
	s.publish(ctx, identity, map[string]interface{}{
		"type":       "product_created",
		"product_id": p.ID,
		"title":      p.Title,
	})
	return &p, nil
}

// UpdateProduct mutates a product only for its owning manufacturer. A
// non-owner gets ErrNotOwner, which the boundary presents as not-found.
func (s *Service) UpdateProduct(ctx context.Context, identity domain.Identity, id uuid.UUID, in UpdateProductInput) (*models.Product, error) {
	p, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ManufacturerID != identity.SubjectID {
		return nil, domain.ErrNotOwner
	}

	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
		}
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if len(in.Images) > 0 {
		p.Images = in.Images
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}

	s.indexProduct(ctx, p)
	s.publish(ctx, identity, map[string]interface{}{
		"type":       "product_updated",
		"product_id": p.ID,
		"title":      p.Title,
	})
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, identity domain.Identity, id uuid.UUID) error {
	p, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		return err
	}
	if p.ManufacturerID != identity.SubjectID {
		return domain.ErrNotOwner
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	if s.ES != nil {
		if err := search.DeleteProduct(ctx, s.ES, s.Index, id.String()); err != nil {
			logging.FromContext(ctx).Warn("search index delete failed", "error", err)
		}
	}
	s.publish(ctx, identity, map[string]interface{}{
		"type":       "product_deleted",
		"product_id": id,
	})
	return nil
}

func makePage(items []models.Product, total int64, page, limit int) *Page {
	if page < 1 {
		page = 1
	}
	return &Page{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
}

func (s *Service) indexProduct(ctx context.Context, p *models.Product) {
	if s.ES == nil {
		return
	}
	if err := search.IndexProduct(ctx, s.ES, s.Index, p); err != nil {
		logging.FromContext(ctx).Warn("search index failed", "product_id", p.ID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, identity domain.Identity, event map[string]interface{}) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	event["subject_id"] = identity.SubjectID
	if err := s.Producer.PublishEvent(pubCtx, "product_events", identity.SubjectID.String(), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
