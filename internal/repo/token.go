package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/models"
)

func (r *GormRepo) AddSessionToken(ctx context.Context, subjectID uuid.UUID, role domain.Role, digest string, expiresAt time.Time) error {
	st := models.SessionToken{
		SubjectID:   subjectID,
		Role:        string(role),
		TokenDigest: digest,
		ExpiresAt:   expiresAt,
	}
	if err := r.DB.WithContext(ctx).Create(&st).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

// RemoveSessionToken deletes exactly one entry of the live-token set; other
// sessions of the same subject stay valid.
func (r *GormRepo) RemoveSessionToken(ctx context.Context, digest string) (bool, error) {
	res := r.DB.WithContext(ctx).Where("token_digest = ?", digest).Delete(&models.SessionToken{})
	if res.Error != nil {
		return false, storeErr(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) SessionTokenLive(ctx context.Context, digest string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.SessionToken{}).
		Where("token_digest = ? AND expires_at > ?", digest, time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, storeErr(err)
	}
	return count > 0, nil
}

func (r *GormRepo) RevokeToken(ctx context.Context, digest string, expiresAt time.Time) error {
	rt := models.RevokedToken{TokenDigest: digest, ExpiresAt: expiresAt}
	if err := r.DB.WithContext(ctx).Create(&rt).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *GormRepo) TokenRevoked(ctx context.Context, digest string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("token_digest = ? AND expires_at > ?", digest, time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, storeErr(err)
	}
	return count > 0, nil
}

// PruneExpiredTokens drops session-set entries and blacklist rows whose
// tokens expired anyway. Called from a background ticker, never from the
// request path.
func (r *GormRepo) PruneExpiredTokens(ctx context.Context) error {
	now := time.Now().UTC()
	if err := r.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.SessionToken{}).Error; err != nil {
		return storeErr(err)
	}
	if err := r.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.RevokedToken{}).Error; err != nil {
		return storeErr(err)
	}
	return nil
}
