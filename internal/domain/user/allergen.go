package user

import "strings"

// Severity of a declared allergy
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ParseSeverity defaults unknown values to severe so unclear declarations stay strict
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMild:
		return SeverityMild
	case SeverityModerate:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// AllergenDeclaration is an allergy declared by the user
type AllergenDeclaration struct {
	Name      string   `json:"name"`
	Severity  Severity `json:"severity"`
	Confirmed bool     `json:"confirmed"`
}

// Confirmed returns only the declarations that take part in safety filtering
func Confirmed(decls []AllergenDeclaration) []AllergenDeclaration {
	out := make([]AllergenDeclaration, 0, len(decls))
	for _, d := range decls {
		if d.Confirmed && strings.TrimSpace(d.Name) != "" {
			out = append(out, d)
		}
	}
	return out
}
