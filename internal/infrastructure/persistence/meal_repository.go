package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/macrolens/tracker/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mealRepository implements domain.MealRepository
type mealRepository struct {
	db *gorm.DB
}

// NewMealRepository is the constructor for mealRepository
func NewMealRepository(db *gorm.DB) domain.MealRepository {
	return &mealRepository{db: db}
}

func (r *mealRepository) Create(ctx context.Context, meal *domain.Meal) error {
	if meal.ID == "" {
		meal.ID = uuid.NewString()
	}

	m := &MealModel{ID: meal.ID, UserID: meal.UserID, Name: meal.Name, TotalServings: meal.TotalServings}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return translate(err, domain.ErrNotFound, "create meal")
	}

	if len(meal.Items) == 0 {
		return nil
	}
	items := make([]MealItemModel, 0, len(meal.Items))
	for _, item := range meal.Items {
		items = append(items, MealItemModel{MealID: meal.ID, FoodID: item.FoodID, Servings: item.Servings})
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error; err != nil {
		return translate(err, domain.ErrNotFound, "create meal items")
	}
	return nil
}

func (r *mealRepository) FindByID(ctx context.Context, id string) (*domain.Meal, error) {
	var m MealModel
	err := r.db.WithContext(ctx).
		Preload("Items.Food").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, "find meal")
	}
	return toMealDomain(&m), nil
}
