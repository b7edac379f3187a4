package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/inventory/internal/hash"
	"github.com/Skotchmaster/inventory/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, token, login string, expiresAt time.Time) error {
	s := models.Session{
		TokenHash: hash.Sha256Hex(token),
		Login:     login,
		ExpiresAt: expiresAt.Unix(),
	}
	if err := r.DB.WithContext(ctx).Create(&s).Error; err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FindSession returns ErrNotFound for unknown and expired tokens alike.
func (r *GormRepo) FindSession(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", hash.Sha256Hex(token), now.Unix()).
		First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormRepo) DeleteSession(ctx context.Context, token string) error {
	if err := r.DB.WithContext(ctx).Where("token_hash = ?", hash.Sha256Hex(token)).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *GormRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", now.Unix()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
