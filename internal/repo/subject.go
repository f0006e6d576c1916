package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/models"
)

// Subject is the role-neutral view of an account that the session authority
// needs: existence, activity and a display identity.
type Subject struct {
	ID     uuid.UUID
	Role   domain.Role
	Email  string
	Name   string
	Active bool
}

func (r *GormRepo) SubjectByID(ctx context.Context, id uuid.UUID, role domain.Role) (*Subject, error) {
	switch role {
	case domain.RoleManufacturer:
		m, err := r.ManufacturerByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Subject{ID: m.ID, Role: role, Email: m.Email, Name: m.CompanyName, Active: m.Active}, nil
	case domain.RoleProfessional:
		p, err := r.ProfessionalByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Subject{ID: p.ID, Role: role, Email: p.Email, Name: p.FullName, Active: p.Active}, nil
	}
	return nil, domain.ErrSubjectNotFound
}

func (r *GormRepo) ManufacturerByID(ctx context.Context, id uuid.UUID) (*models.Manufacturer, error) {
	var m models.Manufacturer
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubjectNotFound
		}
		return nil, storeErr(err)
	}
	return &m, nil
}

func (r *GormRepo) ManufacturerByEmail(ctx context.Context, email string) (*models.Manufacturer, error) {
	var m models.Manufacturer
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubjectNotFound
		}
		return nil, storeErr(err)
	}
	return &m, nil
}

func (r *GormRepo) ProfessionalByID(ctx context.Context, id uuid.UUID) (*models.Professional, error) {
	var p models.Professional
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubjectNotFound
		}
		return nil, storeErr(err)
	}
	return &p, nil
}

func (r *GormRepo) ProfessionalByEmail(ctx context.Context, email string) (*models.Professional, error) {
	var p models.Professional
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubjectNotFound
		}
		return nil, storeErr(err)
	}
	return &p, nil
}

func (r *GormRepo) CreateManufacturer(ctx context.Context, m *models.Manufacturer) error {
	if err := r.DB.WithContext(ctx).Create(m).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *GormRepo) CreateProfessional(ctx context.Context, p *models.Professional) error {
	if err := r.DB.WithContext(ctx).Create(p).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *GormRepo) SaveManufacturer(ctx context.Context, m *models.Manufacturer) error {
	if err := r.DB.WithContext(ctx).Save(m).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *GormRepo) SaveProfessional(ctx context.Context, p *models.Professional) error {
	if err := r.DB.WithContext(ctx).Save(p).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

// TouchLastLogin is an observability side effect, deliberately detached from
// the authenticate path.
func (r *GormRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, role domain.Role) error {
	now := time.Now().UTC()
	var err error
	switch role {
	case domain.RoleManufacturer:
		err = r.DB.WithContext(ctx).Model(&models.Manufacturer{}).Where("id = ?", id).Update("last_login", now).Error
	case domain.RoleProfessional:
		err = r.DB.WithContext(ctx).Model(&models.Professional{}).Where("id = ?", id).Update("last_login", now).Error
	}
	if err != nil {
		return storeErr(err)
	}
	return nil
}
