package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/macrolens/tracker/internal/domain"
	"go.uber.org/zap"
)

const logDateLayout = "2006-01-02"

// LogFoodRequest logs servings of a single food
type LogFoodRequest struct {
	FoodID   string          `json:"food_id"`
	Date     string          `json:"date"`
	MealType domain.MealType `json:"meal_type"`
	Servings float64         `json:"servings"`
}

// LogMealRequest logs servings of one of the caller's meals
type LogMealRequest struct {
	MealID   string          `json:"meal_id"`
	Date     string          `json:"date"`
	MealType domain.MealType `json:"meal_type"`
	Servings float64         `json:"servings"`
}

// LogService writes daily log entries as macro snapshots
type LogService struct {
	foods     domain.FoodRepository
	meals     domain.MealRepository
	logs      domain.LogRepository
	ownership *OwnershipService
	logger    *zap.Logger
}

// NewLogService creates a new log service with dependencies
func NewLogService(
	foods domain.FoodRepository,
	meals domain.MealRepository,
	logs domain.LogRepository,
	ownership *OwnershipService,
	logger *zap.Logger,
) *LogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ownership == nil {
		ownership = NewOwnershipService(foods, logger)
	}
	return &LogService{
		foods:     foods,
		meals:     meals,
		logs:      logs,
		ownership: ownership,
		logger:    logger.Named("log"),
	}
}

// LogFood snapshots food macros × servings against a food the caller owns
func (s *LogService) LogFood(ctx context.Context, userID string, req LogFoodRequest) (*domain.LogEntry, error) {
	if err := validateLogFields(req.Date, req.MealType, req.Servings); err != nil {
		return nil, err
	}

	food, err := s.foods.FindByID(ctx, req.FoodID)
	if err != nil {
		return nil, fmt.Errorf("find food: %w", err)
	}
	foodID, err := s.ownership.EnsureUserFood(ctx, food, userID)
	if err != nil {
		return nil, err
	}

	entry := &domain.LogEntry{
		UserID:   userID,
		Date:     req.Date,
		MealType: req.MealType,
		FoodID:   &foodID,
		Servings: req.Servings,
	}
	entry.SetMacros(snapshot(domain.MacrosOf(food).Scale(req.Servings)))

	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create log entry: %w", err)
	}
	return entry, nil
}

// LogMeal snapshots the meal aggregate ÷ total servings × servings
func (s *LogService) LogMeal(ctx context.Context, userID string, req LogMealRequest) (*domain.LogEntry, error) {
	if err := validateLogFields(req.Date, req.MealType, req.Servings); err != nil {
		return nil, err
	}

	meal, err := s.findMeal(ctx, req.MealID, userID)
	if err != nil {
		return nil, err
	}

	mealID := meal.ID
	entry := &domain.LogEntry{
		UserID:   userID,
		Date:     req.Date,
		MealType: req.MealType,
		MealID:   &mealID,
		Servings: req.Servings,
	}
	entry.SetMacros(snapshot(meal.MacrosForServings(req.Servings)))

	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create log entry: %w", err)
	}
	return entry, nil
}

// LogEntryUpdate is a partial update of a log entry; nil fields are left unchanged
type LogEntryUpdate struct {
	Servings *float64 `json:"servings"`
	FoodID   *string  `json:"food_id"`
}

// UpdateEntry changes the servings and/or the food of an entry and recomputes
// its snapshot. Every field is validated before the single write.
func (s *LogService) UpdateEntry(ctx context.Context, userID, entryID string, update LogEntryUpdate) (*domain.LogEntry, error) {
	if update.Servings == nil && update.FoodID == nil {
		return nil, fmt.Errorf("%w: servings or food_id is required", domain.ErrInvalidRequest)
	}
	if update.Servings != nil && !validServings(*update.Servings) {
		return nil, fmt.Errorf("%w: servings must be positive", domain.ErrInvalidRequest)
	}

	entry, err := s.findEntry(ctx, entryID, userID)
	if err != nil {
		return nil, err
	}
	if update.FoodID != nil && entry.MealID != nil {
		return nil, fmt.Errorf("%w: meal entries cannot reference a food", domain.ErrInvalidRequest)
	}

	if update.Servings != nil {
		entry.Servings = *update.Servings
	}

	if update.FoodID != nil {
		food, err := s.foods.FindByID(ctx, *update.FoodID)
		if err != nil {
			return nil, fmt.Errorf("find food: %w", err)
		}
		ownedID, err := s.ownership.EnsureUserFood(ctx, food, userID)
		if err != nil {
			return nil, err
		}
		entry.FoodID = &ownedID
		entry.SetMacros(snapshot(domain.MacrosOf(food).Scale(entry.Servings)))
	} else if err := s.recompute(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.logs.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update log entry: %w", err)
	}
	return entry, nil
}

// UpdateServings changes the servings of an entry and recomputes its snapshot
// from the food or meal it currently references
func (s *LogService) UpdateServings(ctx context.Context, userID, entryID string, servings float64) (*domain.LogEntry, error) {
	return s.UpdateEntry(ctx, userID, entryID, LogEntryUpdate{Servings: &servings})
}

// ChangeFood points a food entry at another food and recomputes its snapshot
func (s *LogService) ChangeFood(ctx context.Context, userID, entryID, foodID string) (*domain.LogEntry, error) {
	return s.UpdateEntry(ctx, userID, entryID, LogEntryUpdate{FoodID: &foodID})
}

func (s *LogService) recompute(ctx context.Context, entry *domain.LogEntry) error {
	if entry.MealID != nil {
		meal, err := s.findMeal(ctx, *entry.MealID, entry.UserID)
		if err != nil {
			return err
		}
		entry.SetMacros(snapshot(meal.MacrosForServings(entry.Servings)))
		return nil
	}
	if entry.FoodID == nil {
		return fmt.Errorf("%w: entry %s references nothing", domain.ErrInvalidRequest, entry.ID)
	}

	food, err := s.foods.FindByID(ctx, *entry.FoodID)
	if err != nil {
		return fmt.Errorf("find food: %w", err)
	}
	entry.SetMacros(snapshot(domain.MacrosOf(food).Scale(entry.Servings)))
	return nil
}

// findMeal loads a meal, hiding other users' meals as not found
func (s *LogService) findMeal(ctx context.Context, mealID, userID string) (*domain.Meal, error) {
	meal, err := s.meals.FindByID(ctx, mealID)
	if err != nil {
		return nil, fmt.Errorf("find meal: %w", err)
	}
	if meal.UserID != userID {
		return nil, fmt.Errorf("meal %s: %w", mealID, domain.ErrNotFound)
	}
	return meal, nil
}

func (s *LogService) findEntry(ctx context.Context, entryID, userID string) (*domain.LogEntry, error) {
	entry, err := s.logs.FindByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("find log entry: %w", err)
	}
	if entry.UserID != userID {
		return nil, fmt.Errorf("log entry %s: %w", entryID, domain.ErrNotFound)
	}
	return entry, nil
}

func validateLogFields(date string, mealType domain.MealType, servings float64) error {
	if _, err := time.Parse(logDateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidRequest)
	}
	if !mealType.IsValid() {
		return fmt.Errorf("%w: unknown meal type %q", domain.ErrInvalidRequest, mealType)
	}
	if !validServings(servings) {
		return fmt.Errorf("%w: servings must be positive", domain.ErrInvalidRequest)
	}
	return nil
}

func validServings(servings float64) bool {
	return servings > 0 && !math.IsNaN(servings) && !math.IsInf(servings, 0)
}

// snapshot rounds scaled macros to one decimal for storage
func snapshot(m domain.Macros) domain.Macros {
	return domain.Macros{
		Calories: math.Round(m.Calories*10) / 10,
		Protein:  math.Round(m.Protein*10) / 10,
		Carbs:    math.Round(m.Carbs*10) / 10,
		Fat:      math.Round(m.Fat*10) / 10,
	}
}
