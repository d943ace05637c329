package usecase

import (
	"context"
	"testing"

	"github.com/macrolens/tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoodService_Persist(t *testing.T) {
	t.Run("inserts a shared row for external sources", func(t *testing.T) {
		repo := NewMockFoodRepository()
		svc := NewFoodService(repo, nil)
		preview := sharedOats()
		preview.ID = ""

		food, err := svc.Persist(context.Background(), preview, "user-1")

		require.NoError(t, err)
		assert.NotEmpty(t, food.ID)
		assert.True(t, food.Ownership().IsShared())
		assert.Equal(t, 1, repo.count())
		assert.Empty(t, preview.ID, "the caller's preview is not modified")
	})

	t.Run("returns the stored row for a known barcode", func(t *testing.T) {
		stored := sharedOats()
		repo := NewMockFoodRepository(stored)
		svc := NewFoodService(repo, nil)
		preview := sharedOats()
		preview.ID = ""
		preview.Calories = 999

		food, err := svc.Persist(context.Background(), preview, "user-1")

		require.NoError(t, err)
		assert.Equal(t, stored.ID, food.ID)
		assert.Equal(t, 150.0, food.Calories)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("overwrites a stored empty row", func(t *testing.T) {
		stored := &domain.Food{
			ID:       "empty-row",
			Barcode:  domain.StringPtr("0039978005205"),
			Name:     "Rolled Oats",
			Source:   domain.SourceOpenFoodFacts,
			Category: domain.CategoryFood,
		}
		repo := NewMockFoodRepository(stored)
		svc := NewFoodService(repo, nil)
		preview := sharedOats()
		preview.ID = ""
		preview.Source = domain.SourceUSDA

		food, err := svc.Persist(context.Background(), preview, "user-1")

		require.NoError(t, err)
		assert.Equal(t, "empty-row", food.ID)
		reloaded, err := repo.FindByID(context.Background(), "empty-row")
		require.NoError(t, err)
		assert.Equal(t, 150.0, reloaded.Calories)
		assert.Equal(t, domain.SourceUSDA, reloaded.Source)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("dedups by name, brand and source without barcode", func(t *testing.T) {
		stored := sharedOats()
		stored.Barcode = nil
		repo := NewMockFoodRepository(stored)
		svc := NewFoodService(repo, nil)
		preview := sharedOats()
		preview.ID = ""
		preview.Barcode = nil

		food, err := svc.Persist(context.Background(), preview, "user-1")

		require.NoError(t, err)
		assert.Equal(t, stored.ID, food.ID)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("manual foods belong to the caller", func(t *testing.T) {
		repo := NewMockFoodRepository()
		svc := NewFoodService(repo, nil)
		manual := &domain.Food{Name: " Grandma's Lasagna ", Calories: 420, Protein: 22, Source: domain.SourceLocal}

		food, err := svc.Persist(context.Background(), manual, "user-1")
		require.NoError(t, err)
		again, err := svc.Persist(context.Background(), manual, "user-1")
		require.NoError(t, err)

		assert.True(t, food.Ownership().IsOwnedBy("user-1"))
		assert.Equal(t, "Grandma's Lasagna", food.Name)
		assert.Equal(t, domain.CategoryFood, food.Category)
		assert.Equal(t, food.ID, again.ID)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("another user's manual barcode does not block the shared row", func(t *testing.T) {
		repo := NewMockFoodRepository()
		svc := NewFoodService(repo, nil)
		manual := &domain.Food{
			Name:     "Homemade Granola",
			Barcode:  domain.StringPtr("0123"),
			Calories: 450,
			Source:   domain.SourceLocal,
		}
		_, err := svc.Persist(context.Background(), manual, "user-b")
		require.NoError(t, err)

		preview := sharedOats()
		preview.ID = ""
		preview.Barcode = domain.StringPtr("0123")
		food, err := svc.Persist(context.Background(), preview, "user-a")

		require.NoError(t, err)
		assert.True(t, food.Ownership().IsShared())
		assert.Equal(t, 2, repo.count())
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewFoodService(NewMockFoodRepository(), nil)

		_, err := svc.Persist(context.Background(), &domain.Food{Name: "  ", Source: domain.SourceUSDA}, "user-1")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)

		_, err = svc.Persist(context.Background(), &domain.Food{Name: "Oats", Source: "nutritionix"}, "user-1")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)

		_, err = svc.Persist(context.Background(), &domain.Food{Name: "Oats", Source: domain.SourceLocal}, "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
