package openfoodfacts

import (
	"math"
	"strings"

	"github.com/macrolens/tracker/internal/domain"
)

// supplementKeywords in the category text mark a product as a supplement
var supplementKeywords = []string{"supplement", "vitamin"}

// nutrimentRename maps an OpenFoodFacts per-100g key onto a canonical micronutrient.
// OpenFoodFacts stores every nutriment in grams; scale converts to the canonical unit.
type nutrimentRename struct {
	key   string
	field string
	scale float64
}

var nutrimentRenames = []nutrimentRename{
	{"fiber_100g", domain.NutrientFiber, 1},
	{"sugars_100g", domain.NutrientSugar, 1},
	{"sodium_100g", domain.NutrientSodium, 1e3},
	{"saturated-fat_100g", domain.NutrientSaturatedFat, 1},
	{"trans-fat_100g", domain.NutrientTransFat, 1},
	{"cholesterol_100g", domain.NutrientCholesterol, 1e3},
	{"potassium_100g", domain.NutrientPotassium, 1e3},
	{"calcium_100g", domain.NutrientCalcium, 1e3},
	{"iron_100g", domain.NutrientIron, 1e3},
	{"magnesium_100g", domain.NutrientMagnesium, 1e3},
	{"phosphorus_100g", domain.NutrientPhosphorus, 1e3},
	{"zinc_100g", domain.NutrientZinc, 1e3},
	{"selenium_100g", domain.NutrientSelenium, 1e6},
	{"vitamin-a_100g", domain.NutrientVitaminA, 1e6},
	{"vitamin-c_100g", domain.NutrientVitaminC, 1e3},
	{"vitamin-d_100g", domain.NutrientVitaminD, 1e6},
	{"vitamin-e_100g", domain.NutrientVitaminE, 1e3},
	{"vitamin-k_100g", domain.NutrientVitaminK, 1e6},
	{"vitamin-b1_100g", domain.NutrientThiamin, 1e3},
	{"vitamin-b2_100g", domain.NutrientRiboflavin, 1e3},
	{"vitamin-pp_100g", domain.NutrientNiacin, 1e3},
	{"vitamin-b6_100g", domain.NutrientVitaminB6, 1e3},
	{"vitamin-b9_100g", domain.NutrientFolate, 1e6},
	{"vitamin-b12_100g", domain.NutrientVitaminB12, 1e6},
	{"caffeine_100g", domain.NutrientCaffeine, 1e3},
}

const kilojoulesPerKilocalorie = 4.184

// IsSupplement reports whether the product's categories mark it as a supplement
func IsSupplement(p domain.OFFProduct) bool {
	categories := strings.ToLower(p.Categories)
	for _, kw := range supplementKeywords {
		if strings.Contains(categories, kw) {
			return true
		}
	}
	return false
}

// ToFood converts an OpenFoodFacts product into a preview Food with per-100g values.
// Returns nil when the product has no name. Missing macros default to 0; micronutrients
// are only kept when strictly positive because this source cannot tell unknown from none.
func ToFood(p domain.OFFProduct) *domain.Food {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		return nil
	}

	category := domain.CategoryFood
	if IsSupplement(p) {
		category = domain.CategorySupplement
	}

	food := &domain.Food{
		Barcode:      domain.StringPtr(strings.TrimSpace(p.Code)),
		Name:         name,
		Brand:        PrimaryBrand(p.Brands),
		ServingSize:  "100g",
		ServingSizeG: domain.FloatPtr(100),
		Calories:     math.Round(calories(p.Nutriments)),
		Protein:      round1(positive(p.Nutriments, "proteins_100g")),
		Carbs:        round1(positive(p.Nutriments, "carbohydrates_100g")),
		Fat:          round1(positive(p.Nutriments, "fat_100g")),
		Source:       domain.SourceOpenFoodFacts,
		Category:     category,
	}

	for _, r := range nutrimentRenames {
		v, ok := p.Nutriments[r.key]
		if !ok || !v.Valid || v.Value <= 0 {
			continue
		}
		food.Set(r.field, round1(v.Value*r.scale))
	}

	return food
}

// PrimaryBrand returns the first brand of a comma-separated brand list
func PrimaryBrand(brands string) *string {
	first, _, _ := strings.Cut(brands, ",")
	return domain.StringPtr(strings.TrimSpace(first))
}

func calories(n domain.OFFNutriments) float64 {
	if v := positive(n, "energy-kcal_100g"); v > 0 {
		return v
	}
	return positive(n, "energy_100g") / kilojoulesPerKilocalorie
}

func positive(n domain.OFFNutriments, key string) float64 {
	v, ok := n[key]
	if !ok || !v.Valid || v.Value < 0 {
		return 0
	}
	return v.Value
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
