package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/macrolens/tracker/internal/domain"
	"go.uber.org/zap"
)

// FoodService commits previews and manual entries to the store
type FoodService struct {
	foods  domain.FoodRepository
	logger *zap.Logger
}

// NewFoodService creates a new food service
func NewFoodService(foods domain.FoodRepository, logger *zap.Logger) *FoodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FoodService{foods: foods, logger: logger.Named("food")}
}

// Persist stores food and returns the persisted record, reusing an existing one when possible.
// Flow: dedup by barcode (an empty stored row is overwritten) -> dedup by
// (name, brand, source) -> insert. Manual foods belong to the caller; everything else is shared.
func (s *FoodService) Persist(ctx context.Context, food *domain.Food, userID string) (*domain.Food, error) {
	if food == nil || strings.TrimSpace(food.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	if !food.Source.IsValid() {
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidRequest, food.Source)
	}

	candidate := food.Clone()
	candidate.ID = ""
	candidate.Name = strings.TrimSpace(candidate.Name)
	if candidate.Category == "" {
		candidate.Category = domain.CategoryFood
	}
	if candidate.Barcode != nil {
		candidate.Barcode = domain.StringPtr(strings.TrimSpace(*candidate.Barcode))
	}
	candidate.UserID = nil
	if candidate.Source == domain.SourceLocal {
		if userID == "" {
			return nil, domain.ErrUnauthorized
		}
		candidate.UserID = &userID
	}

	if candidate.Barcode != nil {
		existing, err := s.foods.FindByBarcode(ctx, *candidate.Barcode, userID)
		switch {
		case err == nil:
			return s.refresh(ctx, existing, candidate)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("find by barcode: %w", err)
		}
	}

	existing, err := s.findByIdentity(ctx, candidate, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find by identity: %w", err)
	}

	if err := s.foods.Create(ctx, candidate); err != nil {
		if errors.Is(err, domain.ErrConflict) && candidate.Barcode != nil {
			// lost an insert race on the barcode
			if winner, findErr := s.foods.FindByBarcode(ctx, *candidate.Barcode, userID); findErr == nil {
				return winner, nil
			}
		}
		return nil, fmt.Errorf("create food: %w", err)
	}

	s.logger.Debug("food persisted",
		zap.String("food_id", candidate.ID),
		zap.String("source", string(candidate.Source)))
	return candidate, nil
}

// refresh overwrites a stored empty row with non-empty nutrition; otherwise the stored row wins
func (s *FoodService) refresh(ctx context.Context, existing, candidate *domain.Food) (*domain.Food, error) {
	if !existing.IsEmpty() || candidate.IsEmpty() {
		return existing, nil
	}

	candidate.ID = existing.ID
	candidate.UserID = existing.UserID
	candidate.CreatedAt = existing.CreatedAt
	if err := s.foods.UpdateNutrition(ctx, candidate); err != nil {
		return nil, fmt.Errorf("update empty food: %w", err)
	}

	s.logger.Info("empty food refreshed",
		zap.String("food_id", existing.ID),
		zap.String("source", string(candidate.Source)))
	return candidate, nil
}

func (s *FoodService) findByIdentity(ctx context.Context, candidate *domain.Food, userID string) (*domain.Food, error) {
	if candidate.Source == domain.SourceLocal {
		return s.foods.FindPersonalCopy(ctx, userID, candidate.Name, candidate.Source, candidate.Brand)
	}
	return s.foods.FindShared(ctx, candidate.Name, candidate.Brand, candidate.Source)
}
