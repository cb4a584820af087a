package scoring

import (
	"regexp"
	"strings"
)

var (
	completeProteinKeywords = []string{
		"meat", "beef", "chicken", "turkey", "pork", "lamb", "fish", "salmon",
		"tuna", "cod", "egg", "eggs", "milk", "dairy", "cheese", "yogurt",
		"yoghurt", "whey", "casein", "soy", "soya", "tofu", "tempeh", "edamame",
		"quinoa", "buckwheat", "chia", "hemp",
	}

	naturalKeywords = []string{
		"natural", "organic", "whole", "wholegrain", "whole grain", "fresh",
		"raw", "unsweetened", "fruit", "vegetable", "vegetables", "oats",
		"seeds", "beans", "lentils", "chickpeas", "spinach", "tomato",
	}

	additiveKeywords = []string{
		"preservative", "preservatives", "artificial", "flavouring", "flavoring",
		"flavourings", "flavorings", "colouring", "coloring", "colour", "color",
		"sweetener", "sweeteners", "aspartame", "sucralose", "acesulfame",
		"msg", "glutamate", "nitrite", "nitrate", "benzoate", "sorbate",
		"hydrogenated", "emulsifier", "emulsifiers", "stabiliser", "stabilizer",
		"glucose syrup", "high fructose corn syrup",
	}

	completeProteinRe = wordRegexp(completeProteinKeywords)
	naturalRe         = wordRegexp(naturalKeywords)
	additiveRe        = wordRegexp(additiveKeywords)
	eNumberRe         = regexp.MustCompile(`(?i)\be\s?\d{3}[a-z]?\b`)
)

func wordRegexp(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(k), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// distinctMatches counts the different keywords re finds in text
func distinctMatches(re *regexp.Regexp, text string) int {
	seen := make(map[string]struct{})
	for _, m := range re.FindAllString(text, -1) {
		seen[strings.ToLower(strings.Join(strings.Fields(m), " "))] = struct{}{}
	}
	return len(seen)
}
