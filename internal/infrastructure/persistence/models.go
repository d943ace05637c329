package persistence

import (
	"time"

	"github.com/macrolens/tracker/internal/domain"
)

// FoodModel is the GORM-specific struct for the 'foods' table.
// A NULL user_id is a shared row. Barcodes are unique among shared rows only;
// a user's manual food may carry a barcode another user also scanned.
type FoodModel struct {
	ID           string  `gorm:"type:varchar(36);primaryKey"`
	Barcode      *string `gorm:"type:varchar(64);uniqueIndex:idx_foods_shared_barcode,where:user_id IS NULL;index:idx_foods_barcode_lookup"`
	Name         string  `gorm:"type:varchar(255);not null;index"`
	Brand        *string `gorm:"type:varchar(255)"`
	ServingSize  string  `gorm:"type:varchar(100);not null"`
	ServingSizeG *float64
	Calories     float64 `gorm:"not null;default:0"`
	Protein      float64 `gorm:"not null;default:0"`
	Carbs        float64 `gorm:"not null;default:0"`
	Fat          float64 `gorm:"not null;default:0"`
	Source       string  `gorm:"type:varchar(20);not null"`
	UserID       *string `gorm:"type:varchar(64);index"`
	Category     string  `gorm:"type:varchar(20);not null;default:food"`
	CreatedAt    time.Time

	domain.Micronutrients `gorm:"embedded"`
}

// TableName explicitly sets the table name for GORM.
func (FoodModel) TableName() string {
	return "foods"
}

func fromFoodDomain(f *domain.Food) *FoodModel {
	return &FoodModel{
		ID:             f.ID,
		Barcode:        f.Barcode,
		Name:           f.Name,
		Brand:          f.Brand,
		ServingSize:    f.ServingSize,
		ServingSizeG:   f.ServingSizeG,
		Calories:       f.Calories,
		Protein:        f.Protein,
		Carbs:          f.Carbs,
		Fat:            f.Fat,
		Source:         string(f.Source),
		UserID:         f.UserID,
		Category:       string(f.Category),
		CreatedAt:      f.CreatedAt,
		Micronutrients: f.Micronutrients.Clone(),
	}
}

func toFoodDomain(m *FoodModel) *domain.Food {
	return &domain.Food{
		ID:             m.ID,
		Barcode:        m.Barcode,
		Name:           m.Name,
		Brand:          m.Brand,
		ServingSize:    m.ServingSize,
		ServingSizeG:   m.ServingSizeG,
		Calories:       m.Calories,
		Protein:        m.Protein,
		Carbs:          m.Carbs,
		Fat:            m.Fat,
		Source:         domain.FoodSource(m.Source),
		UserID:         m.UserID,
		Category:       domain.FoodCategory(m.Category),
		CreatedAt:      m.CreatedAt,
		Micronutrients: m.Micronutrients,
	}
}

// MealModel is the GORM-specific struct for the 'meals' table
type MealModel struct {
	ID            string          `gorm:"type:varchar(36);primaryKey"`
	UserID        string          `gorm:"type:varchar(64);not null;index"`
	Name          string          `gorm:"type:varchar(255);not null"`
	TotalServings float64         `gorm:"not null;default:1"`
	Items         []MealItemModel `gorm:"foreignKey:MealID"`
	CreatedAt     time.Time
}

func (MealModel) TableName() string {
	return "meals"
}

// MealItemModel is one food of a meal
type MealItemModel struct {
	ID       uint      `gorm:"primaryKey"`
	MealID   string    `gorm:"type:varchar(36);not null;index"`
	FoodID   string    `gorm:"type:varchar(36);not null"`
	Servings float64   `gorm:"not null;default:1"`
	Food     FoodModel `gorm:"foreignKey:FoodID"`
}

func (MealItemModel) TableName() string {
	return "meal_items"
}

func toMealDomain(m *MealModel) *domain.Meal {
	meal := &domain.Meal{
		ID:            m.ID,
		UserID:        m.UserID,
		Name:          m.Name,
		TotalServings: m.TotalServings,
		Items:         make([]domain.MealItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		item := domain.MealItem{FoodID: m.Items[i].FoodID, Servings: m.Items[i].Servings}
		if m.Items[i].Food.ID != "" {
			item.Food = toFoodDomain(&m.Items[i].Food)
		}
		meal.Items = append(meal.Items, item)
	}
	return meal
}

// LogEntryModel is the GORM-specific struct for the 'log_entries' table
type LogEntryModel struct {
	ID        string  `gorm:"type:varchar(36);primaryKey"`
	UserID    string  `gorm:"type:varchar(64);not null;index:idx_log_user_date"`
	Date      string  `gorm:"type:varchar(10);not null;index:idx_log_user_date"`
	MealType  string  `gorm:"type:varchar(20);not null"`
	FoodID    *string `gorm:"type:varchar(36)"`
	MealID    *string `gorm:"type:varchar(36)"`
	Servings  float64 `gorm:"not null"`
	Calories  float64 `gorm:"not null"`
	Protein   float64 `gorm:"not null"`
	Carbs     float64 `gorm:"not null"`
	Fat       float64 `gorm:"not null"`
	CreatedAt time.Time
}

func (LogEntryModel) TableName() string {
	return "log_entries"
}

func fromLogDomain(e *domain.LogEntry) *LogEntryModel {
	return &LogEntryModel{
		ID:        e.ID,
		UserID:    e.UserID,
		Date:      e.Date,
		MealType:  string(e.MealType),
		FoodID:    e.FoodID,
		MealID:    e.MealID,
		Servings:  e.Servings,
		Calories:  e.Calories,
		Protein:   e.Protein,
		Carbs:     e.Carbs,
		Fat:       e.Fat,
		CreatedAt: e.CreatedAt,
	}
}

func toLogDomain(m *LogEntryModel) *domain.LogEntry {
	return &domain.LogEntry{
		ID:        m.ID,
		UserID:    m.UserID,
		Date:      m.Date,
		MealType:  domain.MealType(m.MealType),
		FoodID:    m.FoodID,
		MealID:    m.MealID,
		Servings:  m.Servings,
		Calories:  m.Calories,
		Protein:   m.Protein,
		Carbs:     m.Carbs,
		Fat:       m.Fat,
		CreatedAt: m.CreatedAt,
	}
}

// PairingCodeModel is the GORM-specific struct for the 'pairing_codes' table
type PairingCodeModel struct {
	Code       string    `gorm:"type:varchar(6);primaryKey"`
	TokenHash  string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	DeviceName string    `gorm:"type:varchar(255)"`
	DeviceType string    `gorm:"type:varchar(50)"`
	DeviceInfo string    `gorm:"type:text"`
	ClaimedBy  *string   `gorm:"type:varchar(64)"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time
}

func (PairingCodeModel) TableName() string {
	return "pairing_codes"
}

func fromPairingDomain(p *domain.PairingCode) *PairingCodeModel {
	return &PairingCodeModel{
		Code:       p.Code,
		TokenHash:  p.TokenHash,
		DeviceName: p.DeviceName,
		DeviceType: p.DeviceType,
		DeviceInfo: p.DeviceInfo,
		ClaimedBy:  p.ClaimedBy,
		ExpiresAt:  p.ExpiresAt,
		CreatedAt:  p.CreatedAt,
	}
}

func toPairingDomain(m *PairingCodeModel) *domain.PairingCode {
	return &domain.PairingCode{
		Code:       m.Code,
		TokenHash:  m.TokenHash,
		DeviceName: m.DeviceName,
		DeviceType: m.DeviceType,
		DeviceInfo: m.DeviceInfo,
		ClaimedBy:  m.ClaimedBy,
		ExpiresAt:  m.ExpiresAt,
		CreatedAt:  m.CreatedAt,
	}
}

// DeviceTokenModel is the GORM-specific struct for the 'device_tokens' table
type DeviceTokenModel struct {
	ID           string  `gorm:"type:varchar(36);primaryKey"`
	UserID       string  `gorm:"type:varchar(64);not null;index"`
	TokenHash    string  `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name         string  `gorm:"type:varchar(255)"`
	DeviceType   string  `gorm:"type:varchar(50)"`
	DeviceInfo   string  `gorm:"type:text"`
	Revoked      bool    `gorm:"not null;default:false"`
	LastActiveAt *time.Time
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

func (DeviceTokenModel) TableName() string {
	return "device_tokens"
}

func fromDeviceTokenDomain(t *domain.DeviceToken) *DeviceTokenModel {
	return &DeviceTokenModel{
		ID:           t.ID,
		UserID:       t.UserID,
		TokenHash:    t.TokenHash,
		Name:         t.Name,
		DeviceType:   t.DeviceType,
		DeviceInfo:   t.DeviceInfo,
		Revoked:      t.Revoked,
		LastActiveAt: t.LastActiveAt,
		ExpiresAt:    t.ExpiresAt,
		CreatedAt:    t.CreatedAt,
	}
}

func toDeviceTokenDomain(m *DeviceTokenModel) *domain.DeviceToken {
	return &domain.DeviceToken{
		ID:           m.ID,
		UserID:       m.UserID,
		TokenHash:    m.TokenHash,
		Name:         m.Name,
		DeviceType:   m.DeviceType,
		DeviceInfo:   m.DeviceInfo,
		Revoked:      m.Revoked,
		LastActiveAt: m.LastActiveAt,
		ExpiresAt:    m.ExpiresAt,
		CreatedAt:    m.CreatedAt,
	}
}
