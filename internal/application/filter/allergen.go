package filter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
)

// AllergenFilter excludes any product that mentions a confirmed user allergen.
// Products that cannot be checked are excluded too.
type AllergenFilter struct {
	matchers map[string]keywordMatcher
	logger   *zap.Logger
}

// NewAllergenFilter precompiles the keyword table
func NewAllergenFilter(logger *zap.Logger) *AllergenFilter {
	matchers := make(map[string]keywordMatcher, len(allergenKeywords))
	for category, keywords := range allergenKeywords {
		matchers[category] = compileMatcher(category, keywords)
	}
	return &AllergenFilter{
		matchers: matchers,
		logger:   logger.Named("allergen-filter"),
	}
}

func (f *AllergenFilter) Name() string {
	return "allergen"
}

func (f *AllergenFilter) Apply(products []product.Product, fctx Context) []product.Product {
	confirmed := user.Confirmed(fctx.UserAllergens)
	return keep(products, func(p product.Product) bool {
		report := f.check(p, confirmed)
		if !report.Safe {
			f.logger.Debug("Excluding unsafe product",
				zap.String("barcode", p.Barcode()),
				zap.Strings("allergens", detectedNames(report.DetectedAllergens)),
				zap.String("risk_level", string(report.RiskLevel)),
			)
		}
		return report.Safe
	})
}

// Report returns the detailed safety verdict for one product
func (f *AllergenFilter) Report(p product.Product, allergens []user.AllergenDeclaration) recommendation.SafetyReport {
	report := f.check(p, user.Confirmed(allergens))
	for _, d := range allergens {
		if !d.Confirmed && strings.TrimSpace(d.Name) != "" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Unconfirmed allergy to %s was not checked", d.Name))
		}
	}
	return report
}

func (f *AllergenFilter) check(p product.Product, confirmed []user.AllergenDeclaration) recommendation.SafetyReport {
	report := recommendation.SafetyReport{
		Barcode:           p.Barcode(),
		ProductName:       p.Name(),
		RiskLevel:         recommendation.RiskNone,
		DetectedAllergens: []recommendation.DetectedAllergen{},
		Warnings:          []string{},
	}

	if p.Barcode() == "" {
		report.RiskLevel = recommendation.RiskUnknown
		report.Warnings = append(report.Warnings, "Product cannot be verified without a barcode")
		return report
	}
	if len(confirmed) == 0 {
		report.Safe = true
		return report
	}
	if strings.TrimSpace(p.Ingredients()) == "" && strings.TrimSpace(p.AllergenText()) == "" {
		report.RiskLevel = recommendation.RiskUnknown
		report.Warnings = append(report.Warnings, "No ingredient or allergen information available")
		return report
	}

	for _, decl := range confirmed {
		matchers := f.matchersFor(decl.Name)
		sources := []struct{ name, text string }{
			{"allergen_text", p.AllergenText()},
			{"ingredients", p.Ingredients()},
		}
		for _, src := range sources {
			keyword, found := findAny(matchers, src.text)
			if !found {
				continue
			}
			report.DetectedAllergens = append(report.DetectedAllergens, recommendation.DetectedAllergen{
				Allergen: decl.Name,
				Keyword:  keyword,
				Source:   src.name,
				Severity: decl.Severity,
			})
			report.RiskLevel = report.RiskLevel.Max(recommendation.RiskForSeverity(decl.Severity))
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"Contains %s (%q found in %s); declared %s allergy",
				decl.Name, keyword, strings.ReplaceAll(src.name, "_", " "), decl.Severity,
			))
		}
	}

	report.Safe = len(report.DetectedAllergens) == 0
	return report
}

// matchersFor returns the keyword matchers for a declared allergen. Names that
// resolve to no category match their normalized form and its singular as whole words.
func (f *AllergenFilter) matchersFor(name string) []keywordMatcher {
	categories, ok := resolveAllergen(name)
	if !ok {
		n := normalizeAllergen(name)
		terms := []string{n}
		if singular := strings.TrimSuffix(n, "s"); singular != n && singular != "" {
			terms = append(terms, singular)
		}
		return []keywordMatcher{compileMatcher(n, terms)}
	}
	matchers := make([]keywordMatcher, 0, len(categories))
	for _, c := range categories {
		matchers = append(matchers, f.matchers[c])
	}
	return matchers
}

func findAny(matchers []keywordMatcher, text string) (string, bool) {
	for _, m := range matchers {
		if keyword, found := m.find(text); found {
			return keyword, true
		}
	}
	return "", false
}

func detectedNames(detected []recommendation.DetectedAllergen) []string {
	names := make([]string, 0, len(detected))
	for _, d := range detected {
		names = append(names, d.Allergen+":"+d.Keyword)
	}
	return names
}
