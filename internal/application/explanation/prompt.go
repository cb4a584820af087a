package explanation

import (
	"fmt"
	"strings"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
)

var fieldLabels = map[product.Field]struct{ name, unit string }{
	product.FieldEnergyKcal:    {"energy", "kcal"},
	product.FieldProtein:       {"protein", "g"},
	product.FieldFat:           {"fat", "g"},
	product.FieldSaturatedFat:  {"saturated fat", "g"},
	product.FieldCarbohydrates: {"carbohydrates", "g"},
	product.FieldSugar:         {"sugar", "g"},
	product.FieldFiber:         {"fiber", "g"},
	product.FieldSodium:        {"sodium", "g"},
}

// BuildPrompt renders the completion prompt for one ranked candidate. Only the
// profile, the original product and that candidate are included.
func BuildPrompt(req Request) string {
	var b strings.Builder
	p := req.Profile

	b.WriteString("You are a nutrition assistant explaining a grocery swap.\n\n")
	b.WriteString("Shopper:\n")
	fmt.Fprintf(&b, "- goal: %s\n", req.goal().Label())
	if p.Age > 0 {
		fmt.Fprintf(&b, "- age: %d\n", p.Age)
	}
	if p.Gender != "" {
		fmt.Fprintf(&b, "- gender: %s\n", p.Gender)
	}
	if p.ActivityLevel != "" {
		fmt.Fprintf(&b, "- activity level: %s\n", strings.ReplaceAll(string(p.ActivityLevel), "_", " "))
	}
	if t := p.Targets; t != nil {
		fmt.Fprintf(&b, "- daily targets: %.0f kcal, %.0fg protein, %.0fg fat, %.0fg carbohydrates\n",
			t.EnergyKcal, t.Protein, t.Fat, t.Carbohydrates)
	}

	b.WriteString("\nCurrent product:\n")
	writeProduct(&b, req.Original)
	b.WriteString("\nRecommended alternative:\n")
	writeProduct(&b, req.Candidate.Product)

	b.WriteString("\nChanges per 100g:\n")
	for _, f := range product.AllFields {
		c, ok := req.Candidate.Improvement.Get(f)
		if !ok || c.AbsoluteChange == 0 {
			continue
		}
		label := fieldLabels[f]
		fmt.Fprintf(&b, "- %s: %+.1f%s (%+.0f%%, %s for this goal)\n",
			label.name, c.AbsoluteChange, label.unit, c.PercentChange, c.Direction)
	}

	b.WriteString("\nRespond with only a JSON object of the form ")
	b.WriteString(`{"reasoning": "...", "detailed_reasoning": "..."}`)
	b.WriteString(". \"reasoning\" must be at most 15 words. \"detailed_reasoning\" must be 50 to 80 words, ")
	b.WriteString("mention the shopper's goal, and refer only to the two products above.\n")
	return b.String()
}

func writeProduct(b *strings.Builder, p product.Product) {
	fmt.Fprintf(b, "- name: %s\n", p.Name())
	if p.Brand() != "" {
		fmt.Fprintf(b, "- brand: %s\n", p.Brand())
	}
	if p.Category() != "" {
		fmt.Fprintf(b, "- category: %s\n", p.Category())
	}
	for _, f := range product.AllFields {
		v, ok := p.Nutrition().Get(f).Value()
		if !ok {
			continue
		}
		label := fieldLabels[f]
		fmt.Fprintf(b, "- %s: %.1f%s\n", label.name, v, label.unit)
	}
}

// Request is the input for explaining one recommendation
type Request struct {
	Profile   user.Profile
	Goal      user.Goal
	Original  product.Product
	Candidate recommendation.ScoredCandidate
}

func (r Request) goal() user.Goal {
	if r.Goal != "" {
		return r.Goal
	}
	return r.Profile.Goal
}
