package usecase

import (
	"context"
	"testing"

	"github.com/macrolens/tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logFixture struct {
	foods *MockFoodRepository
	meals *MockMealRepository
	logs  *MockLogRepository
	svc   *LogService
}

func newLogFixture(foods []*domain.Food, meals ...*domain.Meal) *logFixture {
	f := &logFixture{
		foods: NewMockFoodRepository(foods...),
		meals: NewMockMealRepository(meals...),
		logs:  NewMockLogRepository(),
	}
	f.svc = NewLogService(f.foods, f.meals, f.logs, nil, nil)
	return f
}

func lasagnaMeal() *domain.Meal {
	return &domain.Meal{
		ID:            "meal-1",
		UserID:        "user-1",
		Name:          "Lasagna",
		TotalServings: 4,
		Items: []domain.MealItem{
			{FoodID: "pasta", Servings: 2, Food: &domain.Food{ID: "pasta", Calories: 200, Protein: 7, Carbs: 40, Fat: 1}},
			{FoodID: "sauce", Servings: 1, Food: &domain.Food{ID: "sauce", Calories: 400, Protein: 30, Carbs: 10, Fat: 26}},
		},
	}
}

func TestLogService_LogFood(t *testing.T) {
	shared := sharedOats()
	f := newLogFixture([]*domain.Food{shared})

	entry, err := f.svc.LogFood(context.Background(), "user-1", LogFoodRequest{
		FoodID:   shared.ID,
		Date:     "2026-10-18",
		MealType: domain.MealBreakfast,
		Servings: 1.5,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.NotEqual(t, shared.ID, *entry.FoodID, "entries reference the caller's copy")
	assert.Nil(t, entry.MealID)
	assert.Equal(t, 225.0, entry.Calories)
	assert.Equal(t, 7.5, entry.Protein)
	assert.Equal(t, 40.5, entry.Carbs)
	assert.Equal(t, 4.5, entry.Fat)

	owned, err := f.foods.FindByID(context.Background(), *entry.FoodID)
	require.NoError(t, err)
	assert.True(t, owned.Ownership().IsOwnedBy("user-1"))
}

func TestLogService_LogMealScalesByTotalServings(t *testing.T) {
	f := newLogFixture(nil, lasagnaMeal())

	entry, err := f.svc.LogMeal(context.Background(), "user-1", LogMealRequest{
		MealID:   "meal-1",
		Date:     "2026-10-18",
		MealType: domain.MealDinner,
		Servings: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, 400.0, entry.Calories, "800 / 4 * 2")
	assert.Equal(t, 22.0, entry.Protein)
	assert.Equal(t, "meal-1", *entry.MealID)
	assert.Nil(t, entry.FoodID)
}

func TestLogService_LogMealOfAnotherUser(t *testing.T) {
	f := newLogFixture(nil, lasagnaMeal())

	_, err := f.svc.LogMeal(context.Background(), "user-2", LogMealRequest{
		MealID: "meal-1", Date: "2026-10-18", MealType: domain.MealDinner, Servings: 1,
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.logs.entries)
}

func TestLogService_UpdateServings(t *testing.T) {
	f := newLogFixture([]*domain.Food{sharedOats()}, lasagnaMeal())
	ctx := context.Background()

	foodEntry, err := f.svc.LogFood(ctx, "user-1", LogFoodRequest{
		FoodID: "shared-oats", Date: "2026-10-18", MealType: domain.MealSnack, Servings: 1,
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateServings(ctx, "user-1", foodEntry.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 450.0, updated.Calories)

	stored, err := f.logs.FindByID(ctx, foodEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, stored.Servings)
	assert.Equal(t, 450.0, stored.Calories)

	mealEntry, err := f.svc.LogMeal(ctx, "user-1", LogMealRequest{
		MealID: "meal-1", Date: "2026-10-18", MealType: domain.MealDinner, Servings: 1,
	})
	require.NoError(t, err)
	updated, err = f.svc.UpdateServings(ctx, "user-1", mealEntry.ID, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 100.0, updated.Calories)

	_, err = f.svc.UpdateServings(ctx, "user-2", foodEntry.ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.UpdateServings(ctx, "user-1", foodEntry.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestLogService_SnapshotIgnoresLaterFoodEdits(t *testing.T) {
	f := newLogFixture([]*domain.Food{sharedOats()})
	ctx := context.Background()

	entry, err := f.svc.LogFood(ctx, "user-1", LogFoodRequest{
		FoodID: "shared-oats", Date: "2026-10-18", MealType: domain.MealLunch, Servings: 2,
	})
	require.NoError(t, err)

	owned, err := f.foods.FindByID(ctx, *entry.FoodID)
	require.NoError(t, err)
	owned.Calories = 10
	require.NoError(t, f.foods.UpdateNutrition(ctx, owned))

	stored, err := f.logs.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, stored.Calories)
}

func TestLogService_ChangeFood(t *testing.T) {
	banana := &domain.Food{ID: "banana", Name: "Banana", Calories: 89, Protein: 1.1, Carbs: 22.8, Fat: 0.3, Source: domain.SourceUSDA}
	f := newLogFixture([]*domain.Food{sharedOats(), banana})
	ctx := context.Background()

	entry, err := f.svc.LogFood(ctx, "user-1", LogFoodRequest{
		FoodID: "shared-oats", Date: "2026-10-18", MealType: domain.MealBreakfast, Servings: 2,
	})
	require.NoError(t, err)

	changed, err := f.svc.ChangeFood(ctx, "user-1", entry.ID, "banana")

	require.NoError(t, err)
	assert.Equal(t, 178.0, changed.Calories)
	assert.Equal(t, 2.0, changed.Servings)
	assert.NotEqual(t, "banana", *changed.FoodID)
}

func TestLogService_UpdateEntry(t *testing.T) {
	banana := &domain.Food{ID: "banana", Name: "Banana", Calories: 89, Protein: 1.1, Carbs: 22.8, Fat: 0.3, Source: domain.SourceUSDA}
	ctx := context.Background()

	logOats := func(t *testing.T, f *logFixture) *domain.LogEntry {
		t.Helper()
		entry, err := f.svc.LogFood(ctx, "user-1", LogFoodRequest{
			FoodID: "shared-oats", Date: "2026-10-18", MealType: domain.MealBreakfast, Servings: 2,
		})
		require.NoError(t, err)
		return entry
	}

	t.Run("food and servings together", func(t *testing.T) {
		f := newLogFixture([]*domain.Food{sharedOats(), banana})
		entry := logOats(t, f)

		foodID, servings := "banana", 3.0
		updated, err := f.svc.UpdateEntry(ctx, "user-1", entry.ID, LogEntryUpdate{FoodID: &foodID, Servings: &servings})

		require.NoError(t, err)
		assert.Equal(t, 3.0, updated.Servings)
		assert.Equal(t, 267.0, updated.Calories)

		stored, err := f.logs.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 267.0, stored.Calories)
		assert.Equal(t, *updated.FoodID, *stored.FoodID)
	})

	t.Run("invalid servings leaves the entry untouched", func(t *testing.T) {
		f := newLogFixture([]*domain.Food{sharedOats(), banana})
		entry := logOats(t, f)

		for _, servings := range []float64{-1, 0} {
			foodID := "banana"
			_, err := f.svc.UpdateEntry(ctx, "user-1", entry.ID, LogEntryUpdate{FoodID: &foodID, Servings: &servings})
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		}

		stored, err := f.logs.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, *entry.FoodID, *stored.FoodID)
		assert.Equal(t, 2.0, stored.Servings)
		assert.Equal(t, 300.0, stored.Calories)
	})

	t.Run("meal entry rejects food before servings are applied", func(t *testing.T) {
		f := newLogFixture([]*domain.Food{banana}, lasagnaMeal())
		entry, err := f.svc.LogMeal(ctx, "user-1", LogMealRequest{
			MealID: "meal-1", Date: "2026-10-18", MealType: domain.MealDinner, Servings: 1,
		})
		require.NoError(t, err)

		foodID, servings := "banana", 2.0
		_, err = f.svc.UpdateEntry(ctx, "user-1", entry.ID, LogEntryUpdate{FoodID: &foodID, Servings: &servings})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)

		stored, err := f.logs.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 1.0, stored.Servings)
		assert.Equal(t, 200.0, stored.Calories)
	})

	t.Run("unknown food leaves servings untouched", func(t *testing.T) {
		f := newLogFixture([]*domain.Food{sharedOats()})
		entry := logOats(t, f)

		foodID, servings := "missing", 5.0
		_, err := f.svc.UpdateEntry(ctx, "user-1", entry.ID, LogEntryUpdate{FoodID: &foodID, Servings: &servings})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		stored, err := f.logs.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 2.0, stored.Servings)
	})

	t.Run("empty update", func(t *testing.T) {
		f := newLogFixture([]*domain.Food{sharedOats()})
		entry := logOats(t, f)

		_, err := f.svc.UpdateEntry(ctx, "user-1", entry.ID, LogEntryUpdate{})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestValidateLogFields(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		mealType domain.MealType
		servings float64
		wantErr  bool
	}{
		{"valid", "2026-10-18", domain.MealLunch, 1, false},
		{"bad date", "18/10/2026", domain.MealLunch, 1, true},
		{"impossible date", "2026-02-30", domain.MealLunch, 1, true},
		{"bad meal type", "2026-10-18", "brunch", 1, true},
		{"zero servings", "2026-10-18", domain.MealLunch, 0, true},
		{"negative servings", "2026-10-18", domain.MealLunch, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLogFields(tt.date, tt.mealType, tt.servings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
