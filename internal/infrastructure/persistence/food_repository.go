package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/macrolens/tracker/internal/domain"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// foodRepository implements domain.FoodRepository
type foodRepository struct {
	db *gorm.DB
}

// NewFoodRepository is the constructor for foodRepository
func NewFoodRepository(db *gorm.DB) domain.FoodRepository {
	return &foodRepository{db: db}
}

func (r *foodRepository) FindByID(ctx context.Context, id string) (*domain.Food, error) {
	var m FoodModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, "find food by id")
	}
	return toFoodDomain(&m), nil
}

// FindByBarcode prefers the caller's own row over a shared one
func (r *foodRepository) FindByBarcode(ctx context.Context, barcode, userID string) (*domain.Food, error) {
	var m FoodModel
	err := r.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		Where(r.db.Where("user_id IS NULL").Or("user_id = ?", userID)).
		Order("user_id IS NULL").
		First(&m).Error
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, "find food by barcode")
	}
	return toFoodDomain(&m), nil
}

func (r *foodRepository) FindShared(ctx context.Context, name string, brand *string, source domain.FoodSource) (*domain.Food, error) {
	var m FoodModel
	err := whereBrand(r.db.WithContext(ctx), brand).
		Where("user_id IS NULL AND name = ? AND source = ?", name, string(source)).
		First(&m).Error
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, "find shared food")
	}
	return toFoodDomain(&m), nil
}

func (r *foodRepository) FindPersonalCopy(ctx context.Context, userID, name string, source domain.FoodSource, brand *string) (*domain.Food, error) {
	var m FoodModel
	err := whereBrand(r.db.WithContext(ctx), brand).
		Where("user_id = ? AND name = ? AND source = ?", userID, name, string(source)).
		Order("created_at").
		First(&m).Error
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, "find personal copy")
	}
	return toFoodDomain(&m), nil
}

// whereBrand matches a NULL brand only against NULL, never against ""
func whereBrand(db *gorm.DB, brand *string) *gorm.DB {
	if brand == nil {
		return db.Where("brand IS NULL")
	}
	return db.Where("brand = ?", *brand)
}

func (r *foodRepository) Search(ctx context.Context, query, userID string, limit int) ([]*domain.Food, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"

	var models []*FoodModel
	err := r.db.WithContext(ctx).
		Where(r.db.Where("user_id IS NULL").Or("user_id = ?", userID)).
		Where(r.db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).Or(`LOWER(brand) LIKE ? ESCAPE '\'`, pattern)).
		Order("name").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, "search foods")
	}

	foods := make([]*domain.Food, 0, len(models))
	for _, m := range models {
		foods = append(foods, toFoodDomain(m))
	}
	return foods, nil
}

func (r *foodRepository) Create(ctx context.Context, food *domain.Food) error {
	if food.ID == "" {
		food.ID = uuid.NewString()
	}
	m := fromFoodDomain(food)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, domain.ErrNotFound, "create food")
	}
	food.CreatedAt = m.CreatedAt
	return nil
}

// UpdateNutrition writes every column except identity and ownership, zero values included
func (r *foodRepository) UpdateNutrition(ctx context.Context, food *domain.Food) error {
	m := fromFoodDomain(food)
	result := r.db.WithContext(ctx).
		Model(&FoodModel{}).
		Where("id = ?", food.ID).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(m)
	if result.Error != nil {
		return translate(result.Error, domain.ErrNotFound, "update food")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
