package persistence

import (
	"context"
	"time"

	"github.com/macrolens/tracker/internal/domain"
	"gorm.io/gorm"
)

// pairingRepository implements domain.PairingRepository
type pairingRepository struct {
	db *gorm.DB
}

// NewPairingRepository is the constructor for pairingRepository
func NewPairingRepository(db *gorm.DB) domain.PairingRepository {
	return &pairingRepository{db: db}
}

func (r *pairingRepository) Create(ctx context.Context, code *domain.PairingCode) error {
	m := fromPairingDomain(code)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, domain.ErrPairingNotFound, "create pairing code")
	}
	code.CreatedAt = m.CreatedAt
	return nil
}

func (r *pairingRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.PairingCode, error) {
	var m PairingCodeModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		return nil, translate(err, domain.ErrPairingNotFound, "find pairing code by token")
	}
	return toPairingDomain(&m), nil
}

func (r *pairingRepository) FindOpenByCode(ctx context.Context, code string, now time.Time) (*domain.PairingCode, error) {
	var m PairingCodeModel
	err := r.db.WithContext(ctx).
		Where("code = ? AND claimed_by IS NULL AND expires_at > ?", code, now).
		First(&m).Error
	if err != nil {
		return nil, translate(err, domain.ErrPairingNotFound, "find open pairing code")
	}
	return toPairingDomain(&m), nil
}

// MarkClaimed only touches a row whose claimed_by is still NULL, so a code is claimed at most once
func (r *pairingRepository) MarkClaimed(ctx context.Context, code, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&PairingCodeModel{}).
		Where("code = ? AND claimed_by IS NULL", code).
		Update("claimed_by", userID)
	if result.Error != nil {
		return false, translate(result.Error, domain.ErrPairingNotFound, "claim pairing code")
	}
	return result.RowsAffected == 1, nil
}

func (r *pairingRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&PairingCodeModel{}).Error
	return translate(err, domain.ErrPairingNotFound, "delete pairing code")
}

func (r *pairingRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("claimed_by IS NULL AND expires_at <= ?", now).
		Delete(&PairingCodeModel{})
	if result.Error != nil {
		return 0, translate(result.Error, domain.ErrPairingNotFound, "delete expired pairing codes")
	}
	return result.RowsAffected, nil
}
