package product

import (
	"strconv"
	"strings"
)

// Nutrient is an optional per-100g nutrition value. The zero value is absent,
// so a missing field never silently reads as 0.
type Nutrient struct {
	value   float64
	present bool
}

// Some returns a present nutrient value
func Some(v float64) Nutrient {
	return Nutrient{value: v, present: true}
}

// None returns an absent nutrient value
func None() Nutrient {
	return Nutrient{}
}

// FromPtr converts a nullable column into a Nutrient
func FromPtr(v *float64) Nutrient {
	if v == nil {
		return None()
	}
	return Some(*v)
}

// Parse converts loosely typed source values ("12.5", "n/a", 3, nil) into a Nutrient.
// Anything that is not a finite number is absent.
func Parse(raw interface{}) Nutrient {
	switch v := raw.(type) {
	case nil:
		return None()
	case Nutrient:
		return v
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return Some(float64(v))
	case int64:
		return Some(float64(v))
	case *float64:
		return FromPtr(v)
	case string:
		s := strings.TrimSpace(strings.ToLower(v))
		switch s {
		case "", "unknown", "n/a", "na", "none", "null", "-":
			return None()
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return None()
		}
		return finite(f)
	default:
		return None()
	}
}

func finite(v float64) Nutrient {
	if v != v || v > 1e300 || v < -1e300 {
		return None()
	}
	return Some(v)
}

// Value returns the value and whether it is present
func (n Nutrient) Value() (float64, bool) {
	return n.value, n.present
}

// Present reports whether the value is known
func (n Nutrient) Present() bool {
	return n.present
}

// Or returns the value, or def when absent
func (n Nutrient) Or(def float64) float64 {
	if !n.present {
		return def
	}
	return n.value
}

// Ptr returns a nullable representation for persistence
func (n Nutrient) Ptr() *float64 {
	if !n.present {
		return nil
	}
	v := n.value
	return &v
}

// within returns the nutrient unchanged if it lies in [min, max], absent otherwise
func (n Nutrient) within(min, max float64) Nutrient {
	if !n.present || n.value < min || n.value > max {
		return None()
	}
	return n
}
