package usda

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/macrolens/tracker/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// USDA Nutrient IDs for key macronutrients
const (
	NutrientIDEnergy         = 1008 // Calories (kcal)
	NutrientIDEnergyGeneral  = 2047 // Energy (Atwater General Factors)
	NutrientIDEnergySpecific = 2048 // Energy (Atwater Specific Factors)
	NutrientIDProtein        = 1003 // Protein (g)
	NutrientIDCarbohydrate   = 1005 // Carbohydrates (g)
	NutrientIDTotalFat       = 1004 // Total Fat (g)
)

// micronutrientIDs maps USDA nutrient ids onto canonical micronutrient keys
var micronutrientIDs = map[int]string{
	1079: domain.NutrientFiber,
	2000: domain.NutrientSugar,
	1093: domain.NutrientSodium,
	1258: domain.NutrientSaturatedFat,
	1257: domain.NutrientTransFat,
	1253: domain.NutrientCholesterol,
	1092: domain.NutrientPotassium,
	1087: domain.NutrientCalcium,
	1089: domain.NutrientIron,
	1090: domain.NutrientMagnesium,
	1091: domain.NutrientPhosphorus,
	1095: domain.NutrientZinc,
	1103: domain.NutrientSelenium,
	1106: domain.NutrientVitaminA,
	1162: domain.NutrientVitaminC,
	1114: domain.NutrientVitaminD,
	1109: domain.NutrientVitaminE,
	1185: domain.NutrientVitaminK,
	1165: domain.NutrientThiamin,
	1166: domain.NutrientRiboflavin,
	1167: domain.NutrientNiacin,
	1175: domain.NutrientVitaminB6,
	1190: domain.NutrientFolate,
	1178: domain.NutrientVitaminB12,
	1057: domain.NutrientCaffeine,
}

// wholeNumberNutrients are reported on a scale where decimals are noise
var wholeNumberNutrients = map[string]bool{
	domain.NutrientSodium:     true,
	domain.NutrientCalcium:    true,
	domain.NutrientPotassium:  true,
	domain.NutrientMagnesium:  true,
	domain.NutrientPhosphorus: true,
}

// ToFood converts a USDA search hit into a preview Food.
// Returns nil unless energy, protein, carbohydrate and fat are all present.
func ToFood(usdaFood domain.USDAFood) *domain.Food {
	calories, ok := FindNutrientValue(usdaFood.Nutrients, NutrientIDEnergy)
	if !ok {
		calories, ok = FindNutrientValue(usdaFood.Nutrients, NutrientIDEnergyGeneral)
	}
	if !ok {
		calories, ok = FindNutrientValue(usdaFood.Nutrients, NutrientIDEnergySpecific)
	}
	protein, hasProtein := FindNutrientValue(usdaFood.Nutrients, NutrientIDProtein)
	carbs, hasCarbs := FindNutrientValue(usdaFood.Nutrients, NutrientIDCarbohydrate)
	fat, hasFat := FindNutrientValue(usdaFood.Nutrients, NutrientIDTotalFat)
	if !ok || !hasProtein || !hasCarbs || !hasFat {
		return nil
	}

	servingText, servingGrams := servingSize(usdaFood)

	food := &domain.Food{
		Barcode:      domain.StringPtr(strings.TrimSpace(usdaFood.GtinUpc)),
		Name:         titleCase(usdaFood.Description),
		Brand:        brand(usdaFood),
		ServingSize:  servingText,
		ServingSizeG: servingGrams,
		Calories:     math.Round(calories),
		Protein:      round1(protein),
		Carbs:        round1(carbs),
		Fat:          round1(fat),
		Source:       domain.SourceUSDA,
		Category:     domain.CategoryFood,
	}
	food.Micronutrients = extractMicronutrients(usdaFood.Nutrients)

	return food
}

// extractMicronutrients fills every tracked micronutrient the USDA entry reports
func extractMicronutrients(usdaNutrients []domain.USDANutrient) domain.Micronutrients {
	var m domain.Micronutrients

	for _, nutrient := range usdaNutrients {
		key, ok := micronutrientIDs[nutrient.NutrientID]
		if !ok {
			continue
		}
		if wholeNumberNutrients[key] {
			m.Set(key, math.Round(nutrient.Value))
		} else {
			m.Set(key, round1(nutrient.Value))
		}
	}

	return m
}

// FindNutrientValue finds a specific nutrient value by ID
func FindNutrientValue(nutrients []domain.USDANutrient, nutrientID int) (float64, bool) {
	for _, nutrient := range nutrients {
		if nutrient.NutrientID == nutrientID {
			return nutrient.Value, true
		}
	}
	return 0, false
}

// servingSize picks the household text, then amount+unit, then a per-data-type default
func servingSize(f domain.USDAFood) (string, *float64) {
	unit := normalizeUnit(f.ServingSizeUnit)

	var grams *float64
	if f.ServingSize > 0 && unit == "g" {
		grams = domain.FloatPtr(f.ServingSize)
	}

	if text := strings.TrimSpace(f.HouseholdServingFullText); text != "" {
		return text, grams
	}
	if f.ServingSize > 0 && unit != "" {
		return strconv.FormatFloat(f.ServingSize, 'f', -1, 64) + unit, grams
	}
	if f.DataType == domain.USDADataTypeBranded {
		return "1 serving", grams
	}
	return "100g", domain.FloatPtr(100)
}

func normalizeUnit(unit string) string {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "":
		return ""
	case "G", "GRM":
		return "g"
	case "ML", "MLT":
		return "ml"
	default:
		return strings.ToLower(unit)
	}
}

func brand(f domain.USDAFood) *string {
	if b := strings.TrimSpace(f.BrandName); b != "" {
		return &b
	}
	return domain.StringPtr(strings.TrimSpace(f.BrandOwner))
}

// titleCase turns "CHEDDAR CHEESE, SHARP" into "Cheddar Cheese, Sharp"
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(s)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// FdcID formats the USDA identifier for logging
func FdcID(f domain.USDAFood) string {
	return fmt.Sprintf("%d", f.FdcID)
}
