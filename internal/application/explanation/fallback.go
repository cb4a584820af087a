package explanation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
)

var closingSentences = []string{
	"It passed every allergen and availability check for your profile.",
	"Compare labels per 100g when shopping so swaps like this are easy to spot.",
	"Small, consistent swaps add up over weeks of regular grocery shopping.",
	"Pair it with whole foods such as vegetables, fruit and legumes for a balanced week.",
	"Check the serving size on the pack, since portions decide the real difference on your plate.",
}

const (
	maxIntroNameWords  = 6
	maxIntroBrandWords = 4
)

// Fallback builds a deterministic explanation from the computed nutrition deltas.
// It never returns empty text.
func Fallback(req Request) recommendation.Explanation {
	return recommendation.Explanation{
		Reasoning:         fallbackShort(req),
		DetailedReasoning: fallbackDetailed(req),
		Source:            recommendation.SourceFallback,
	}
}

func displayName(p product.Product) string {
	if name := p.DisplayName(); name != "" {
		return name
	}
	return "This alternative"
}

// fallbackShort names the alternative, its biggest win and the goal. Long names
// are shortened so the whole sentence stays within the short word limit.
func fallbackShort(req Request) string {
	render := shortTemplate(req)
	text := render(displayName(req.Candidate.Product))
	if wordCount(text) <= maxShortWords {
		return text
	}
	budget := maxShortWords - wordCount(render(""))
	if budget < 1 {
		budget = 1
	}
	return truncateWords(render(shortName(req.Candidate.Product, budget)), maxShortWords)
}

// shortName picks the brand or product name when either fits in n words,
// otherwise the first n words of the name
func shortName(p product.Product, n int) string {
	for _, candidate := range []string{p.Brand(), p.Name()} {
		if candidate != "" && wordCount(candidate) <= n {
			return candidate
		}
	}
	if name := firstWords(nameOr(p.Name(), p.Brand()), n); name != "" {
		return name
	}
	return "It"
}

func shortTemplate(req Request) func(name string) string {
	goal := req.goal().Label()

	field, change, ok := req.Candidate.Improvement.Best()
	if !ok {
		return func(name string) string {
			return fmt.Sprintf("%s is a safe, comparable pick for your %s goal.", name, goal)
		}
	}
	delta := math.Abs(change.AbsoluteChange)
	switch field {
	case product.FieldEnergyKcal:
		more := "less"
		if change.AbsoluteChange > 0 {
			more = "more energy"
		}
		return func(name string) string {
			return fmt.Sprintf("%s offers %.0f kcal %s for your %s goal.", name, delta, more, goal)
		}
	default:
		label := fieldLabels[field]
		more := "less"
		if change.AbsoluteChange > 0 {
			more = "more"
		}
		return func(name string) string {
			return fmt.Sprintf("%s has %.1f%s %s %s for your %s goal.", name, delta, label.unit, more, label.name, goal)
		}
	}
}

// fallbackDetailed keeps the introduction and the goal sentence, drops change
// sentences and the trade-off note while over the limit, then pads with
// closing sentences
func fallbackDetailed(req Request) string {
	alt := req.Candidate.Product

	intro := fmt.Sprintf("We suggest %s", firstWords(nameOr(alt.Name(), "this product"), maxIntroNameWords))
	if alt.Brand() != "" {
		intro += " by " + firstWords(alt.Brand(), maxIntroBrandWords)
	}
	intro += fmt.Sprintf(" as an alternative to %s.", firstWords(nameOr(req.Original.Name(), "your current choice"), maxIntroNameWords))

	positives, negatives := splitChanges(req.Candidate.Improvement)
	var changes []string
	for i, f := range positives {
		if i == 3 {
			break
		}
		changes = append(changes, changeSentence(f, req.Candidate.Improvement.Fields[f]))
	}

	profile := profileSentence(req.Profile, req.goal())

	var note string
	if len(negatives) > 0 {
		names := make([]string, 0, len(negatives))
		for _, f := range negatives {
			names = append(names, fieldLabels[f].name)
		}
		note = fmt.Sprintf("Note that it contains more %s than your usual choice.", strings.Join(names, " and "))
	}

	join := func() string {
		parts := append([]string{intro}, changes...)
		parts = append(parts, profile)
		if note != "" {
			parts = append(parts, note)
		}
		return strings.Join(parts, " ")
	}
	for wordCount(join()) > maxDetailWords && len(changes) > 1 {
		changes = changes[:len(changes)-1]
	}
	if wordCount(join()) > maxDetailWords {
		note = ""
	}
	if wordCount(join()) > maxDetailWords {
		changes = nil
	}

	return padSentences(join(), closingSentences, minDetailWords, maxDetailWords)
}

func nameOr(name, def string) string {
	if name == "" {
		return def
	}
	return name
}

// splitChanges orders positive changes by score and lists negative ones, both deterministically
func splitChanges(n recommendation.NutritionImprovement) (positives, negatives []product.Field) {
	for _, f := range product.AllFields {
		c, ok := n.Fields[f]
		if !ok {
			continue
		}
		switch c.Direction {
		case recommendation.DirectionPositive:
			positives = append(positives, f)
		case recommendation.DirectionNegative:
			negatives = append(negatives, f)
		}
	}
	sort.SliceStable(positives, func(i, j int) bool {
		return n.Fields[positives[i]].Score > n.Fields[positives[j]].Score
	})
	return positives, negatives
}

func changeSentence(f product.Field, c recommendation.FieldChange) string {
	label := fieldLabels[f]
	dir := "less"
	if c.AbsoluteChange > 0 {
		dir = "more"
	}
	return fmt.Sprintf("It has %.0f%% %s %s per 100g (%.1f%s versus %.1f%s).",
		math.Abs(c.PercentChange), dir, label.name, c.Alternative, label.unit, c.Original, label.unit)
}

func profileSentence(p user.Profile, goal user.Goal) string {
	var who []string
	if p.Age > 0 {
		who = append(who, fmt.Sprintf("a %d-year-old", p.Age))
	} else {
		who = append(who, "someone")
	}
	if p.ActivityLevel != "" {
		who = append(who, fmt.Sprintf("with a %s lifestyle", strings.ReplaceAll(string(p.ActivityLevel), "_", " ")))
	}
	return fmt.Sprintf("For %s focused on %s, this swap supports your daily targets.", strings.Join(who, " "), goal.Label())
}
