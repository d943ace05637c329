package dsld

import (
	"math"
	"strconv"
	"strings"

	"github.com/macrolens/tracker/internal/domain"
)

// ingredientSynonyms maps a normalized label ingredient name to a canonical micronutrient
var ingredientSynonyms = map[string]string{
	"vitamin a":          domain.NutrientVitaminA,
	"retinol":            domain.NutrientVitaminA,
	"beta carotene":      domain.NutrientVitaminA,
	"vitamin c":          domain.NutrientVitaminC,
	"ascorbic acid":      domain.NutrientVitaminC,
	"vitamin d":          domain.NutrientVitaminD,
	"vitamin d2":         domain.NutrientVitaminD,
	"vitamin d3":         domain.NutrientVitaminD,
	"cholecalciferol":    domain.NutrientVitaminD,
	"ergocalciferol":     domain.NutrientVitaminD,
	"vitamin e":          domain.NutrientVitaminE,
	"vitamin k":          domain.NutrientVitaminK,
	"vitamin k1":         domain.NutrientVitaminK,
	"vitamin k2":         domain.NutrientVitaminK,
	"thiamin":            domain.NutrientThiamin,
	"thiamine":           domain.NutrientThiamin,
	"vitamin b1":         domain.NutrientThiamin,
	"riboflavin":         domain.NutrientRiboflavin,
	"vitamin b2":         domain.NutrientRiboflavin,
	"niacin":             domain.NutrientNiacin,
	"niacinamide":        domain.NutrientNiacin,
	"vitamin b3":         domain.NutrientNiacin,
	"vitamin b6":         domain.NutrientVitaminB6,
	"pyridoxine":         domain.NutrientVitaminB6,
	"folate":             domain.NutrientFolate,
	"folic acid":         domain.NutrientFolate,
	"vitamin b9":         domain.NutrientFolate,
	"vitamin b12":        domain.NutrientVitaminB12,
	"cobalamin":          domain.NutrientVitaminB12,
	"cyanocobalamin":     domain.NutrientVitaminB12,
	"methylcobalamin":    domain.NutrientVitaminB12,
	"calcium":            domain.NutrientCalcium,
	"iron":               domain.NutrientIron,
	"magnesium":          domain.NutrientMagnesium,
	"phosphorus":         domain.NutrientPhosphorus,
	"potassium":          domain.NutrientPotassium,
	"sodium":             domain.NutrientSodium,
	"zinc":               domain.NutrientZinc,
	"selenium":           domain.NutrientSelenium,
	"dietary fiber":      domain.NutrientFiber,
	"fiber":              domain.NutrientFiber,
	"total sugars":       domain.NutrientSugar,
	"sugars":             domain.NutrientSugar,
	"saturated fat":      domain.NutrientSaturatedFat,
	"trans fat":          domain.NutrientTransFat,
	"cholesterol":        domain.NutrientCholesterol,
	"caffeine":           domain.NutrientCaffeine,
	"caffeine anhydrous": domain.NutrientCaffeine,
}

// microgramNutrients are stored in µg; every other micronutrient is in mg or g
var microgramNutrients = map[string]bool{
	domain.NutrientVitaminA:   true,
	domain.NutrientVitaminD:   true,
	domain.NutrientVitaminK:   true,
	domain.NutrientFolate:     true,
	domain.NutrientVitaminB12: true,
	domain.NutrientSelenium:   true,
}

// gramNutrients are stored in g
var gramNutrients = map[string]bool{
	domain.NutrientFiber:        true,
	domain.NutrientSugar:        true,
	domain.NutrientSaturatedFat: true,
	domain.NutrientTransFat:     true,
}

// ToFood converts a supplement label into a Food carrying only micronutrients.
// Returns nil when the label has no name.
func ToFood(label domain.DSLDLabel) *domain.Food {
	name := strings.TrimSpace(label.FullName)
	if name == "" {
		return nil
	}

	servingText, servingGrams := servingSize(label.ServingSizes)

	food := &domain.Food{
		Barcode:      domain.StringPtr(digitsOnly(label.UpcSku)),
		Name:         name,
		Brand:        domain.StringPtr(strings.TrimSpace(label.BrandName)),
		ServingSize:  servingText,
		ServingSizeG: servingGrams,
		Source:       domain.SourceDSLD,
		Category:     domain.CategorySupplement,
	}

	for _, row := range label.IngredientRows {
		field, ok := CanonicalNutrient(row.Name)
		if !ok || len(row.Quantity) == 0 {
			continue
		}
		if existing, _ := food.Get(field); existing != nil {
			continue
		}
		if v, ok := convert(field, row.Quantity[0]); ok {
			food.Set(field, v)
		}
	}

	return food
}

// CanonicalNutrient resolves a label ingredient name like "Vitamin D3 (as Cholecalciferol)"
func CanonicalNutrient(ingredient string) (string, bool) {
	name, _, _ := strings.Cut(strings.ToLower(ingredient), "(")
	// "Beta-Carotene" reads as two words, "Vitamin B-12" as one
	if field, ok := ingredientSynonyms[normalizeName(strings.ReplaceAll(name, "-", " "))]; ok {
		return field, true
	}
	field, ok := ingredientSynonyms[normalizeName(strings.ReplaceAll(name, "-", ""))]
	return field, ok
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// convert normalizes a label amount into the canonical unit for field
func convert(field string, q domain.DSLDIngredientQty) (float64, bool) {
	if q.Quantity < 0 {
		return 0, false
	}

	var mg float64
	switch unit := strings.ToLower(strings.TrimSpace(q.Unit)); {
	case strings.HasPrefix(unit, "mcg"), strings.HasPrefix(unit, "µg"), strings.HasPrefix(unit, "ug"):
		mg = q.Quantity / 1000
	case strings.HasPrefix(unit, "mg"):
		mg = q.Quantity
	case strings.HasPrefix(unit, "gram"), unit == "g":
		mg = q.Quantity * 1000
	case unit == "iu" && field == domain.NutrientVitaminD:
		// 1 IU of vitamin D is 0.025 µg
		mg = q.Quantity * 0.025 / 1000
	default:
		return 0, false
	}

	switch {
	case microgramNutrients[field]:
		return round1(mg * 1000), true
	case gramNutrients[field]:
		return round1(mg / 1000), true
	default:
		return round1(mg), true
	}
}

func servingSize(sizes []domain.DSLDServingSize) (string, *float64) {
	if len(sizes) == 0 || sizes[0].MinQuantity <= 0 {
		return "1 serving", nil
	}
	s := sizes[0]

	amount := formatQuantity(s.MinQuantity)
	if s.MaxQuantity > s.MinQuantity {
		amount += "-" + formatQuantity(s.MaxQuantity)
	}

	unit := strings.TrimSpace(s.Unit)
	if unit == "" {
		return amount + " serving", nil
	}

	var grams *float64
	if u := strings.ToLower(unit); u == "g" || strings.HasPrefix(u, "gram") {
		grams = domain.FloatPtr(s.MinQuantity)
	}
	return amount + " " + unit, grams
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
