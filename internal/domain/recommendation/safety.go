package recommendation

import "github.com/nutriswap/recommender/internal/domain/user"

// RiskLevel grades an allergen exposure
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
	// RiskUnknown is reported when the product could not be checked
	RiskUnknown RiskLevel = "unknown"
)

// RiskForSeverity maps a declared severity onto a risk level
func RiskForSeverity(s user.Severity) RiskLevel {
	switch s {
	case user.SeverityMild:
		return RiskLow
	case user.SeverityModerate:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func (r RiskLevel) rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh, RiskUnknown:
		return 3
	}
	return 0
}

// Max returns the more severe of two risk levels
func (r RiskLevel) Max(o RiskLevel) RiskLevel {
	if o.rank() > r.rank() {
		return o
	}
	return r
}

// DetectedAllergen is one user allergen found in a product
type DetectedAllergen struct {
	Allergen string        `json:"allergen"`
	Keyword  string        `json:"keyword"`
	Source   string        `json:"source"`
	Severity user.Severity `json:"severity"`
}

// SafetyReport is the outcome of checking one product against a user's allergens
type SafetyReport struct {
	Barcode           string             `json:"barcode"`
	ProductName       string             `json:"product_name"`
	Safe              bool               `json:"safe"`
	RiskLevel         RiskLevel          `json:"risk_level"`
	DetectedAllergens []DetectedAllergen `json:"detected_allergens"`
	Warnings          []string           `json:"warnings"`
}
