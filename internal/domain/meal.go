package domain

import "time"

// MealType is the daily log bucket an entry belongs to
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// IsValid reports whether the meal type is one of the four buckets
func (t MealType) IsValid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// Macros is an absolute calories/protein/carbs/fat total
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// MacrosOf returns the per-serving macros of a food
func MacrosOf(f *Food) Macros {
	return Macros{Calories: f.Calories, Protein: f.Protein, Carbs: f.Carbs, Fat: f.Fat}
}

// Scale multiplies every macro by factor
func (m Macros) Scale(factor float64) Macros {
	return Macros{
		Calories: m.Calories * factor,
		Protein:  m.Protein * factor,
		Carbs:    m.Carbs * factor,
		Fat:      m.Fat * factor,
	}
}

// Add returns the element-wise sum of m and o
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Meal is a named, user-owned bundle of foods that makes TotalServings servings
type Meal struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	TotalServings float64    `json:"total_servings"`
	Items         []MealItem `json:"items"`
}

// MealItem references a food with a serving multiplier
type MealItem struct {
	FoodID   string  `json:"food_id"`
	Servings float64 `json:"servings"`
	Food     *Food   `json:"food,omitempty"`
}

// AggregateMacros sums every item's macros scaled by its servings
func (m *Meal) AggregateMacros() Macros {
	var total Macros
	for _, item := range m.Items {
		if item.Food == nil {
			continue
		}
		total = total.Add(MacrosOf(item.Food).Scale(item.Servings))
	}
	return total
}

// MacrosForServings divides the aggregate by TotalServings, then multiplies by servings.
// A non-positive TotalServings is treated as 1.
func (m *Meal) MacrosForServings(servings float64) Macros {
	total := m.TotalServings
	if total <= 0 {
		total = 1
	}
	return m.AggregateMacros().Scale(servings / total)
}

// LogEntry is an immutable macro snapshot for one day and meal bucket.
// Exactly one of FoodID and MealID is set. Macros are already scaled by Servings.
type LogEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	MealType  MealType  `json:"meal_type"`
	FoodID    *string   `json:"food_id"`
	MealID    *string   `json:"meal_id"`
	Servings  float64   `json:"servings"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fat       float64   `json:"fat"`
	CreatedAt time.Time `json:"created_at"`
}

// SetMacros overwrites the snapshot values
func (e *LogEntry) SetMacros(m Macros) {
	e.Calories = m.Calories
	e.Protein = m.Protein
	e.Carbs = m.Carbs
	e.Fat = m.Fat
}
