package persistence

import (
	"errors"
	"fmt"

	"github.com/macrolens/tracker/internal/domain"
	"gorm.io/gorm"
)

// translate maps GORM errors onto domain sentinels, wrapping anything else with op
func translate(err error, notFound error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
