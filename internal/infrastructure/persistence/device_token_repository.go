package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/macrolens/tracker/internal/domain"
	"gorm.io/gorm"
)

// deviceTokenRepository implements domain.DeviceTokenRepository
type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository is the constructor for deviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) domain.DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) Create(ctx context.Context, token *domain.DeviceToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	m := fromDeviceTokenDomain(token)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, domain.ErrNotFound, "create device token")
	}
	token.CreatedAt = m.CreatedAt
	return nil
}

func (r *deviceTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.DeviceToken, error) {
	var m DeviceTokenModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		return nil, translate(err, domain.ErrNotFound, "find device token")
	}
	return toDeviceTokenDomain(&m), nil
}

func (r *deviceTokenRepository) ListByUser(ctx context.Context, userID string) ([]*domain.DeviceToken, error) {
	var models []*DeviceTokenModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, "list device tokens")
	}

	tokens := make([]*domain.DeviceToken, 0, len(models))
	for _, m := range models {
		tokens = append(tokens, toDeviceTokenDomain(m))
	}
	return tokens, nil
}

func (r *deviceTokenRepository) Touch(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&DeviceTokenModel{}).
		Where("id = ?", id).
		Update("last_active_at", at).Error
	return translate(err, domain.ErrNotFound, "touch device token")
}

func (r *deviceTokenRepository) Revoke(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&DeviceTokenModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("revoked", true)
	if result.Error != nil {
		return translate(result.Error, domain.ErrNotFound, "revoke device token")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *deviceTokenRepository) DeleteStalePending(ctx context.Context, userID string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND last_active_at IS NULL AND expires_at IS NOT NULL AND expires_at <= ?", userID, now).
		Delete(&DeviceTokenModel{})
	if result.Error != nil {
		return 0, translate(result.Error, domain.ErrNotFound, "delete stale device tokens")
	}
	return result.RowsAffected, nil
}
