package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/macrolens/tracker/internal/domain"
	"gorm.io/gorm"
)

// logRepository implements domain.LogRepository
type logRepository struct {
	db *gorm.DB
}

// NewLogRepository is the constructor for logRepository
func NewLogRepository(db *gorm.DB) domain.LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) Create(ctx context.Context, entry *domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	m := fromLogDomain(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, domain.ErrNotFound, "create log entry")
	}
	entry.CreatedAt = m.CreatedAt
	return nil
}

func (r *logRepository) FindByID(ctx context.Context, id string) (*domain.LogEntry, error) {
	var m LogEntryModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, domain.ErrNotFound, "find log entry")
	}
	return toLogDomain(&m), nil
}

func (r *logRepository) Update(ctx context.Context, entry *domain.LogEntry) error {
	result := r.db.WithContext(ctx).
		Model(&LogEntryModel{}).
		Where("id = ?", entry.ID).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(fromLogDomain(entry))
	if result.Error != nil {
		return translate(result.Error, domain.ErrNotFound, "update log entry")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
