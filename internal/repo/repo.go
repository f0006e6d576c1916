package repo

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/promarket/promarket/internal/domain"
)

// GormRepo is the single data-access type; entity-specific methods live in
// the sibling files of this package.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// storeErr classifies an unexpected database failure as a retryable service
// error. Not-found conditions are mapped to their domain errors by the
// callers before reaching here.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
