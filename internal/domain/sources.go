package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// USDAFood is a food entry from the USDA FoodData Central search API
type USDAFood struct {
	FdcID                    int            `json:"fdcId"`
	Description              string         `json:"description"`
	DataType                 string         `json:"dataType"`
	GtinUpc                  string         `json:"gtinUpc,omitempty"`
	BrandOwner               string         `json:"brandOwner,omitempty"`
	BrandName                string         `json:"brandName,omitempty"`
	ServingSize              float64        `json:"servingSize,omitempty"`
	ServingSizeUnit          string         `json:"servingSizeUnit,omitempty"`
	HouseholdServingFullText string         `json:"householdServingFullText,omitempty"`
	Nutrients                []USDANutrient `json:"foodNutrients"`
}

// USDA data types
const (
	USDADataTypeBranded    = "Branded"
	USDADataTypeFoundation = "Foundation"
	USDADataTypeSurvey     = "Survey (FNDDS)"
	USDADataTypeSRLegacy   = "SR Legacy"
)

// USDANutrient represents a single nutrient from USDA data
type USDANutrient struct {
	NutrientID     int     `json:"nutrientId"`
	NutrientName   string  `json:"nutrientName"`
	NutrientNumber string  `json:"nutrientNumber,omitempty"`
	UnitName       string  `json:"unitName"`
	Value          float64 `json:"value"`
}

// USDASearchResponse represents the response from USDA search API
type USDASearchResponse struct {
	Foods       []USDAFood `json:"foods"`
	TotalHits   int        `json:"totalHits"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
}

// OFFResponse is the OpenFoodFacts product lookup envelope
type OFFResponse struct {
	Code          string      `json:"code"`
	Status        int         `json:"status"`
	StatusVerbose string      `json:"status_verbose"`
	Product       *OFFProduct `json:"product"`
}

// OFFProduct is a product from the OpenFoodFacts database
type OFFProduct struct {
	Code            string        `json:"code"`
	ProductName     string        `json:"product_name"`
	Brands          string        `json:"brands"`
	Categories      string        `json:"categories"`
	ServingSize     string        `json:"serving_size"`
	ServingQuantity FlexFloat     `json:"serving_quantity"`
	Nutriments      OFFNutriments `json:"nutriments"`
}

// OFFNutriments is the loosely typed nutriments block keyed like "proteins_100g"
type OFFNutriments map[string]FlexFloat

// DSLDSearchResponse is the NIH Dietary Supplement Label Database search envelope
type DSLDSearchResponse struct {
	Hits []DSLDSearchHit `json:"hits"`
}

// DSLDSearchHit is a single label summary from a DSLD search
type DSLDSearchHit struct {
	ID     string           `json:"_id"`
	Source DSLDSearchSource `json:"_source"`
}

// DSLDSearchSource holds the indexed label fields of a search hit
type DSLDSearchSource struct {
	FullName  string `json:"fullName"`
	BrandName string `json:"brandName"`
	UpcSku    string `json:"upcSku"`
}

// DSLDLabel is a full supplement label
type DSLDLabel struct {
	ID             FlexString          `json:"id"`
	FullName       string              `json:"fullName"`
	BrandName      string              `json:"brandName"`
	UpcSku         string              `json:"upcSku"`
	ServingSizes   []DSLDServingSize   `json:"servingSizes"`
	IngredientRows []DSLDIngredientRow `json:"ingredientRows"`
}

// DSLDServingSize is the structured serving-size block of a label
type DSLDServingSize struct {
	MinQuantity float64 `json:"minQuantity"`
	MaxQuantity float64 `json:"maxQuantity"`
	Unit        string  `json:"unit"`
}

// DSLDIngredientRow is one line of the supplement facts panel
type DSLDIngredientRow struct {
	Name     string              `json:"name"`
	Quantity []DSLDIngredientQty `json:"quantity"`
}

// DSLDIngredientQty is an amount per serving
type DSLDIngredientQty struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// FlexFloat decodes a JSON number or numeric string. Anything else leaves Valid false.
type FlexFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil
	}
	f.Value, f.Valid = v, true
	return nil
}

// MarshalJSON implements json.Marshaler
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// FlexString decodes a JSON string or number into a string
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(data)
	return nil
}
