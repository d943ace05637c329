package domain

import "time"

// FoodSource identifies where a food record's nutrition data came from
type FoodSource string

const (
	SourceLocal         FoodSource = "local"         // manual entry
	SourceOpenFoodFacts FoodSource = "openfoodfacts" // consumer product database
	SourceUSDA          FoodSource = "usda"          // government nutrition database
	SourceDSLD          FoodSource = "dsld"          // supplement label database
)

// IsValid reports whether the source is one of the known providers
func (s FoodSource) IsValid() bool {
	switch s {
	case SourceLocal, SourceOpenFoodFacts, SourceUSDA, SourceDSLD:
		return true
	}
	return false
}

// FoodCategory separates ordinary foods from supplements
type FoodCategory string

const (
	CategoryFood       FoodCategory = "food"
	CategorySupplement FoodCategory = "supplement"
)

// Food is the canonical nutrition record shared by every source.
// A Food with an empty ID is a preview that has not been persisted yet.
type Food struct {
	ID           string       `json:"id"`
	Barcode      *string      `json:"barcode"`
	Name         string       `json:"name"`
	Brand        *string      `json:"brand"`
	ServingSize  string       `json:"serving_size"`
	ServingSizeG *float64     `json:"serving_size_g"`
	Calories     float64      `json:"calories"`
	Protein      float64      `json:"protein"`
	Carbs        float64      `json:"carbs"`
	Fat          float64      `json:"fat"`
	Source       FoodSource   `json:"source"`
	UserID       *string      `json:"user_id"`
	Category     FoodCategory `json:"category"`
	CreatedAt    time.Time    `json:"created_at,omitzero"`

	Micronutrients
}

// IsEmpty reports whether the food carries no nutrition signal at all:
// every macro is exactly zero and every tracked micronutrient is unknown.
func (f *Food) IsEmpty() bool {
	if f == nil {
		return true
	}
	if f.Calories != 0 || f.Protein != 0 || f.Carbs != 0 || f.Fat != 0 {
		return false
	}
	return f.Micronutrients.IsEmpty()
}

// IsPreview reports whether the food has not been persisted
func (f *Food) IsPreview() bool {
	return f.ID == ""
}

// Ownership returns the ownership of the record as an explicit sum type
func (f *Food) Ownership() Ownership {
	if f.UserID == nil {
		return Shared()
	}
	return OwnedBy(*f.UserID)
}

// BrandOrEmpty returns the brand, or "" when it is unknown
func (f *Food) BrandOrEmpty() string {
	if f.Brand == nil {
		return ""
	}
	return *f.Brand
}

// Clone returns a deep copy of the food
func (f *Food) Clone() *Food {
	c := *f
	c.Barcode = cloneString(f.Barcode)
	c.Brand = cloneString(f.Brand)
	c.UserID = cloneString(f.UserID)
	c.ServingSizeG = cloneFloat(f.ServingSizeG)
	c.Micronutrients = f.Micronutrients.Clone()
	return &c
}

// Ownership distinguishes shared records from records owned by a single user.
// Construct it with Shared or OwnedBy; the zero value is Shared.
type Ownership struct {
	owner string
	owned bool
}

// Shared returns the ownership of a system-wide record
func Shared() Ownership {
	return Ownership{}
}

// OwnedBy returns the ownership of a record belonging to userID
func OwnedBy(userID string) Ownership {
	return Ownership{owner: userID, owned: true}
}

// Owner returns the owning user and true, or "" and false for shared records
func (o Ownership) Owner() (string, bool) {
	return o.owner, o.owned
}

// IsShared reports whether the record is system-wide
func (o Ownership) IsShared() bool {
	return !o.owned
}

// IsOwnedBy reports whether the record belongs to userID
func (o Ownership) IsOwnedBy(userID string) bool {
	return o.owned && o.owner == userID
}

// StringPtr returns a pointer to s, or nil when s is blank
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FloatPtr returns a pointer to v
func FloatPtr(v float64) *float64 {
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
