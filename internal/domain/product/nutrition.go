package product

// Field names a per-100g nutrition fact
type Field string

const (
	FieldEnergyKcal    Field = "energyKcal"
	FieldProtein       Field = "protein"
	FieldFat           Field = "fat"
	FieldSaturatedFat  Field = "saturatedFat"
	FieldCarbohydrates Field = "carbohydrates"
	FieldSugar         Field = "sugar"
	FieldFiber         Field = "fiber"
	FieldSodium        Field = "sodium"
)

// AllFields lists every tracked nutrition field in a stable order
var AllFields = []Field{
	FieldEnergyKcal,
	FieldProtein,
	FieldFat,
	FieldSaturatedFat,
	FieldCarbohydrates,
	FieldSugar,
	FieldFiber,
	FieldSodium,
}

// Range is the plausible interval for a nutrient per 100g
type Range struct {
	Min float64
	Max float64
}

// PlausibleRanges bounds each field. Energy is kcal, sodium and the macros are grams.
var PlausibleRanges = map[Field]Range{
	FieldEnergyKcal:    {0, 900},
	FieldProtein:       {0, 100},
	FieldFat:           {0, 100},
	FieldSaturatedFat:  {0, 100},
	FieldCarbohydrates: {0, 100},
	FieldSugar:         {0, 100},
	FieldFiber:         {0, 100},
	FieldSodium:        {0, 40},
}

// NutritionFacts holds per-100g values, each of which may be absent
type NutritionFacts struct {
	EnergyKcal    Nutrient
	Protein       Nutrient
	Fat           Nutrient
	SaturatedFat  Nutrient
	Carbohydrates Nutrient
	Sugar         Nutrient
	Fiber         Nutrient
	Sodium        Nutrient
}

// Get returns the nutrient for a field
func (n NutritionFacts) Get(f Field) Nutrient {
	switch f {
	case FieldEnergyKcal:
		return n.EnergyKcal
	case FieldProtein:
		return n.Protein
	case FieldFat:
		return n.Fat
	case FieldSaturatedFat:
		return n.SaturatedFat
	case FieldCarbohydrates:
		return n.Carbohydrates
	case FieldSugar:
		return n.Sugar
	case FieldFiber:
		return n.Fiber
	case FieldSodium:
		return n.Sodium
	}
	return None()
}

// InRange reports whether every present field lies within its plausible range
func (n NutritionFacts) InRange() bool {
	for _, f := range AllFields {
		v, ok := n.Get(f).Value()
		if !ok {
			continue
		}
		r := PlausibleRanges[f]
		if v < r.Min || v > r.Max {
			return false
		}
	}
	return true
}

// sanitize drops every value outside its plausible range
func (n NutritionFacts) sanitize() NutritionFacts {
	clamp := func(f Field, v Nutrient) Nutrient {
		r := PlausibleRanges[f]
		return v.within(r.Min, r.Max)
	}
	return NutritionFacts{
		EnergyKcal:    clamp(FieldEnergyKcal, n.EnergyKcal),
		Protein:       clamp(FieldProtein, n.Protein),
		Fat:           clamp(FieldFat, n.Fat),
		SaturatedFat:  clamp(FieldSaturatedFat, n.SaturatedFat),
		Carbohydrates: clamp(FieldCarbohydrates, n.Carbohydrates),
		Sugar:         clamp(FieldSugar, n.Sugar),
		Fiber:         clamp(FieldFiber, n.Fiber),
		Sodium:        clamp(FieldSodium, n.Sodium),
	}
}
