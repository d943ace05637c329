package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/macrolens/tracker/internal/domain"
	"go.uber.org/zap"
)

// OwnershipService hands out food ids the caller owns, so edits to "my copy"
// never touch shared records
type OwnershipService struct {
	foods  domain.FoodRepository
	logger *zap.Logger
}

// NewOwnershipService creates a new ownership service
func NewOwnershipService(foods domain.FoodRepository, logger *zap.Logger) *OwnershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OwnershipService{foods: foods, logger: logger.Named("ownership")}
}

// EnsureUserFood returns the id of a food owned by userID carrying food's nutrition.
// Owned foods are returned as is; shared foods reuse an existing personal copy
// matched on (name, source, brand) or get a new one with no barcode.
func (s *OwnershipService) EnsureUserFood(ctx context.Context, food *domain.Food, userID string) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthorized
	}
	if food == nil {
		return "", fmt.Errorf("%w: food is required", domain.ErrInvalidRequest)
	}

	ownership := food.Ownership()
	if ownership.IsOwnedBy(userID) {
		return food.ID, nil
	}
	if !ownership.IsShared() {
		// another user's private food is not visible to the caller
		return "", domain.ErrNotFound
	}

	existing, err := s.foods.FindPersonalCopy(ctx, userID, food.Name, food.Source, food.Brand)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("find personal copy: %w", err)
	}

	personal := food.Clone()
	personal.ID = ""
	personal.Barcode = nil
	personal.UserID = &userID
	if err := s.foods.Create(ctx, personal); err != nil {
		return "", fmt.Errorf("create personal copy: %w", err)
	}

	s.logger.Debug("personal copy created",
		zap.String("user_id", userID),
		zap.String("shared_id", food.ID),
		zap.String("food_id", personal.ID))
	return personal.ID, nil
}
