package domain

// Micronutrients holds the optional nutrient values of a food.
// nil means unknown; 0 means the source confirmed none is present.
type Micronutrients struct {
	Fiber        *float64 `json:"fiber,omitempty"`         // g
	Sugar        *float64 `json:"sugar,omitempty"`         // g
	Sodium       *float64 `json:"sodium,omitempty"`        // mg
	SaturatedFat *float64 `json:"saturated_fat,omitempty"` // g
	TransFat     *float64 `json:"trans_fat,omitempty"`     // g
	Cholesterol  *float64 `json:"cholesterol,omitempty"`   // mg
	Potassium    *float64 `json:"potassium,omitempty"`     // mg
	Calcium      *float64 `json:"calcium,omitempty"`       // mg
	Iron         *float64 `json:"iron,omitempty"`          // mg
	Magnesium    *float64 `json:"magnesium,omitempty"`     // mg
	Phosphorus   *float64 `json:"phosphorus,omitempty"`    // mg
	Zinc         *float64 `json:"zinc,omitempty"`          // mg
	Selenium     *float64 `json:"selenium,omitempty"`      // µg
	VitaminA     *float64 `json:"vitamin_a,omitempty"`     // µg RAE
	VitaminC     *float64 `json:"vitamin_c,omitempty"`     // mg
	VitaminD     *float64 `json:"vitamin_d,omitempty"`     // µg
	VitaminE     *float64 `json:"vitamin_e,omitempty"`     // mg
	VitaminK     *float64 `json:"vitamin_k,omitempty"`     // µg
	Thiamin      *float64 `json:"thiamin,omitempty"`       // mg
	Riboflavin   *float64 `json:"riboflavin,omitempty"`    // mg
	Niacin       *float64 `json:"niacin,omitempty"`        // mg
	VitaminB6    *float64 `json:"vitamin_b6,omitempty"`    // mg
	Folate       *float64 `json:"folate,omitempty"`        // µg DFE
	VitaminB12   *float64 `json:"vitamin_b12,omitempty"`   // µg
	Caffeine     *float64 `json:"caffeine,omitempty"`      // mg
}

// Canonical micronutrient keys
const (
	NutrientFiber        = "fiber"
	NutrientSugar        = "sugar"
	NutrientSodium       = "sodium"
	NutrientSaturatedFat = "saturated_fat"
	NutrientTransFat     = "trans_fat"
	NutrientCholesterol  = "cholesterol"
	NutrientPotassium    = "potassium"
	NutrientCalcium      = "calcium"
	NutrientIron         = "iron"
	NutrientMagnesium    = "magnesium"
	NutrientPhosphorus   = "phosphorus"
	NutrientZinc         = "zinc"
	NutrientSelenium     = "selenium"
	NutrientVitaminA     = "vitamin_a"
	NutrientVitaminC     = "vitamin_c"
	NutrientVitaminD     = "vitamin_d"
	NutrientVitaminE     = "vitamin_e"
	NutrientVitaminK     = "vitamin_k"
	NutrientThiamin      = "thiamin"
	NutrientRiboflavin   = "riboflavin"
	NutrientNiacin       = "niacin"
	NutrientVitaminB6    = "vitamin_b6"
	NutrientFolate       = "folate"
	NutrientVitaminB12   = "vitamin_b12"
	NutrientCaffeine     = "caffeine"
)

type micronutrientField struct {
	key   string
	field func(m *Micronutrients) **float64
}

var micronutrientFields = []micronutrientField{
	{NutrientFiber, func(m *Micronutrients) **float64 { return &m.Fiber }},
	{NutrientSugar, func(m *Micronutrients) **float64 { return &m.Sugar }},
	{NutrientSodium, func(m *Micronutrients) **float64 { return &m.Sodium }},
	{NutrientSaturatedFat, func(m *Micronutrients) **float64 { return &m.SaturatedFat }},
	{NutrientTransFat, func(m *Micronutrients) **float64 { return &m.TransFat }},
	{NutrientCholesterol, func(m *Micronutrients) **float64 { return &m.Cholesterol }},
	{NutrientPotassium, func(m *Micronutrients) **float64 { return &m.Potassium }},
	{NutrientCalcium, func(m *Micronutrients) **float64 { return &m.Calcium }},
	{NutrientIron, func(m *Micronutrients) **float64 { return &m.Iron }},
	{NutrientMagnesium, func(m *Micronutrients) **float64 { return &m.Magnesium }},
	{NutrientPhosphorus, func(m *Micronutrients) **float64 { return &m.Phosphorus }},
	{NutrientZinc, func(m *Micronutrients) **float64 { return &m.Zinc }},
	{NutrientSelenium, func(m *Micronutrients) **float64 { return &m.Selenium }},
	{NutrientVitaminA, func(m *Micronutrients) **float64 { return &m.VitaminA }},
	{NutrientVitaminC, func(m *Micronutrients) **float64 { return &m.VitaminC }},
	{NutrientVitaminD, func(m *Micronutrients) **float64 { return &m.VitaminD }},
	{NutrientVitaminE, func(m *Micronutrients) **float64 { return &m.VitaminE }},
	{NutrientVitaminK, func(m *Micronutrients) **float64 { return &m.VitaminK }},
	{NutrientThiamin, func(m *Micronutrients) **float64 { return &m.Thiamin }},
	{NutrientRiboflavin, func(m *Micronutrients) **float64 { return &m.Riboflavin }},
	{NutrientNiacin, func(m *Micronutrients) **float64 { return &m.Niacin }},
	{NutrientVitaminB6, func(m *Micronutrients) **float64 { return &m.VitaminB6 }},
	{NutrientFolate, func(m *Micronutrients) **float64 { return &m.Folate }},
	{NutrientVitaminB12, func(m *Micronutrients) **float64 { return &m.VitaminB12 }},
	{NutrientCaffeine, func(m *Micronutrients) **float64 { return &m.Caffeine }},
}

// MicronutrientKeys lists every tracked micronutrient key in canonical order
func MicronutrientKeys() []string {
	keys := make([]string, len(micronutrientFields))
	for i, f := range micronutrientFields {
		keys[i] = f.key
	}
	return keys
}

// Get returns the value for key and whether the key is tracked
func (m *Micronutrients) Get(key string) (*float64, bool) {
	for _, f := range micronutrientFields {
		if f.key == key {
			return *f.field(m), true
		}
	}
	return nil, false
}

// Set stores v under key. Returns false for untracked keys.
func (m *Micronutrients) Set(key string, v float64) bool {
	for _, f := range micronutrientFields {
		if f.key == key {
			*f.field(m) = &v
			return true
		}
	}
	return false
}

// IsEmpty reports whether every micronutrient is unknown
func (m *Micronutrients) IsEmpty() bool {
	for _, f := range micronutrientFields {
		if *f.field(m) != nil {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no pointers with m
func (m Micronutrients) Clone() Micronutrients {
	var c Micronutrients
	for _, f := range micronutrientFields {
		if v := *f.field(&m); v != nil {
			c.Set(f.key, *v)
		}
	}
	return c
}
