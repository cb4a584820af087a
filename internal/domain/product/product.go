// Package product contains the grocery product domain model.
package product

import (
	"encoding/json"
	"strings"
)

// Category groups comparable products ("snacks", "beverages", ...)
type Category string

var categorySeparators = strings.NewReplacer(" ", "-", "_", "-")

// Normalize lowercases a category and joins words with hyphens ("Soft Drinks" -> "soft-drinks")
func (c Category) Normalize() Category {
	return Category(categorySeparators.Replace(strings.ToLower(strings.TrimSpace(string(c)))))
}

// Params carries the raw attributes used to build a Product
type Params struct {
	Barcode      string
	Name         string
	Brand        string
	Category     Category
	Ingredients  string
	AllergenText string
	Nutrition    NutritionFacts
	UnitPrice    Nutrient
}

// Product is an immutable grocery item keyed by barcode
type Product struct {
	barcode      string
	name         string
	brand        string
	category     Category
	ingredients  string
	allergenText string
	nutrition    NutritionFacts
	unitPrice    Nutrient
}

// New builds a Product. Nutrition values outside their plausible range are
// treated as absent rather than rejected.
func New(p Params) Product {
	return Product{
		barcode:      strings.TrimSpace(p.Barcode),
		name:         strings.TrimSpace(p.Name),
		brand:        strings.TrimSpace(p.Brand),
		category:     p.Category.Normalize(),
		ingredients:  p.Ingredients,
		allergenText: p.AllergenText,
		nutrition:    p.Nutrition.sanitize(),
		unitPrice:    p.UnitPrice,
	}
}

// Barcode returns the product barcode
func (p Product) Barcode() string {
	return p.barcode
}

// Name returns the product name
func (p Product) Name() string {
	return p.name
}

// Brand returns the product brand
func (p Product) Brand() string {
	return p.brand
}

// Category returns the normalized product category
func (p Product) Category() Category {
	return p.category
}

// Ingredients returns the free-text ingredient list
func (p Product) Ingredients() string {
	return p.ingredients
}

// AllergenText returns the declared allergen text
func (p Product) AllergenText() string {
	return p.allergenText
}

// Nutrition returns the per-100g nutrition facts
func (p Product) Nutrition() NutritionFacts {
	return p.nutrition
}

// UnitPrice returns the unit price, if known
func (p Product) UnitPrice() Nutrient {
	return p.unitPrice
}

// DisplayName prefers the brand, falling back to the product name
func (p Product) DisplayName() string {
	if p.brand != "" {
		return p.brand
	}
	return p.name
}

// SearchText returns lowercased name and ingredients for keyword matching
func (p Product) SearchText() string {
	return strings.ToLower(p.name + " " + p.ingredients)
}

// Validate checks identity fields required for recommendation
func (p Product) Validate() error {
	if p.barcode == "" {
		return ErrMissingBarcode
	}
	if p.name == "" {
		return ErrMissingName
	}
	return nil
}

type productJSON struct {
	Barcode      string             `json:"barcode"`
	Name         string             `json:"name"`
	Brand        string             `json:"brand,omitempty"`
	Category     Category           `json:"category,omitempty"`
	Ingredients  string             `json:"ingredients,omitempty"`
	AllergenText string             `json:"allergen_text,omitempty"`
	Nutrition    map[Field]*float64 `json:"nutrition_per_100g"`
	UnitPrice    *float64           `json:"unit_price,omitempty"`
}

// MarshalJSON serializes the product, rendering absent nutrients as null
func (p Product) MarshalJSON() ([]byte, error) {
	nutrition := make(map[Field]*float64, len(AllFields))
	for _, f := range AllFields {
		nutrition[f] = p.nutrition.Get(f).Ptr()
	}
	return json.Marshal(productJSON{
		Barcode:      p.barcode,
		Name:         p.name,
		Brand:        p.brand,
		Category:     p.category,
		Ingredients:  p.ingredients,
		AllergenText: p.allergenText,
		Nutrition:    nutrition,
		UnitPrice:    p.unitPrice.Ptr(),
	})
}

// UnmarshalJSON accepts loosely typed nutrition values ("n/a", "12", 12)
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw struct {
		Barcode      string                `json:"barcode"`
		Name         string                `json:"name"`
		Brand        string                `json:"brand"`
		Category     Category              `json:"category"`
		Ingredients  string                `json:"ingredients"`
		AllergenText string                `json:"allergen_text"`
		Nutrition    map[Field]interface{} `json:"nutrition_per_100g"`
		UnitPrice    interface{}           `json:"unit_price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = New(Params{
		Barcode:      raw.Barcode,
		Name:         raw.Name,
		Brand:        raw.Brand,
		Category:     raw.Category,
		Ingredients:  raw.Ingredients,
		AllergenText: raw.AllergenText,
		Nutrition: NutritionFacts{
			EnergyKcal:    Parse(raw.Nutrition[FieldEnergyKcal]),
			Protein:       Parse(raw.Nutrition[FieldProtein]),
			Fat:           Parse(raw.Nutrition[FieldFat]),
			SaturatedFat:  Parse(raw.Nutrition[FieldSaturatedFat]),
			Carbohydrates: Parse(raw.Nutrition[FieldCarbohydrates]),
			Sugar:         Parse(raw.Nutrition[FieldSugar]),
			Fiber:         Parse(raw.Nutrition[FieldFiber]),
			Sodium:        Parse(raw.Nutrition[FieldSodium]),
		},
		UnitPrice: Parse(raw.UnitPrice),
	})
	return nil
}
