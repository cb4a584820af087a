package filter

import (
	"regexp"
	"strings"
)

// allergenKeywords maps an allergen category to the words that reveal it in
// ingredient or allergen text
var allergenKeywords = map[string][]string{
	"milk": {
		"milk", "dairy", "lactose", "whey", "casein", "caseinate", "caseinates",
		"butter", "buttermilk", "cream", "cheese", "yogurt", "yoghurt", "ghee",
		"curd", "curds", "milkfat", "lactalbumin", "lactoglobulin",
	},
	"eggs": {
		"egg", "eggs", "albumin", "albumen", "ovalbumin", "lysozyme",
		"mayonnaise", "meringue", "ovomucoid",
	},
	"nuts": {
		"nut", "nuts", "tree nut", "tree nuts", "almond", "almonds", "hazelnut",
		"hazelnuts", "walnut", "walnuts", "cashew", "cashews", "pecan", "pecans",
		"pistachio", "pistachios", "macadamia", "macadamias", "brazil nut",
		"brazil nuts", "praline", "marzipan", "nougat", "gianduja",
	},
	"peanuts": {
		"peanut", "peanuts", "groundnut", "groundnuts", "arachis",
	},
	"gluten": {
		"gluten", "wheat", "barley", "rye", "spelt", "kamut", "semolina",
		"durum", "malt", "triticale", "couscous", "seitan", "bulgur",
	},
	"soy": {
		"soy", "soya", "soybean", "soybeans", "tofu", "edamame", "miso", "tempeh",
	},
	"fish": {
		"fish", "anchovy", "anchovies", "cod", "salmon", "tuna", "haddock",
		"pollock", "sardine", "sardines", "trout", "mackerel", "herring",
	},
	"shellfish": {
		"shellfish", "crustacean", "crustaceans", "shrimp", "shrimps", "prawn",
		"prawns", "crab", "lobster", "crayfish", "langoustine", "krill",
	},
	"molluscs": {
		"mollusc", "molluscs", "mollusk", "mollusks", "mussel", "mussels",
		"oyster", "oysters", "clam", "clams", "squid", "octopus", "scallop",
		"scallops", "snail", "snails",
	},
	"sesame": {
		"sesame", "tahini", "benne",
	},
	"mustard": {
		"mustard",
	},
	"celery": {
		"celery", "celeriac",
	},
	"sulphites": {
		"sulphite", "sulphites", "sulfite", "sulfites", "sulphur dioxide",
		"sulfur dioxide", "metabisulphite", "metabisulfite",
	},
	"lupin": {
		"lupin", "lupine", "lupins",
	},
}

// allergenAliases maps declared allergen names that are not keywords onto
// keyword categories
var allergenAliases = map[string]string{
	"lactose intolerance": "milk",
	"cows milk":           "milk",
	"cow milk":            "milk",
	"tree":                "nuts",
	"sulfur":              "sulphites",
	"sulphur":             "sulphites",
	"wheat gluten":        "gluten",
	"coeliac":             "gluten",
	"celiac":              "gluten",
}

// keywordCategory maps every keyword back to its category
var keywordCategory = func() map[string]string {
	index := make(map[string]string)
	for category, keywords := range allergenKeywords {
		index[category] = category
		for _, k := range keywords {
			index[k] = category
		}
	}
	return index
}()

// keywordMatcher finds whole-word allergen keywords in text
type keywordMatcher struct {
	category string
	re       *regexp.Regexp
}

// find returns the first matching keyword, lowercased
func (m keywordMatcher) find(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	match := m.re.FindString(text)
	if match == "" {
		return "", false
	}
	return strings.ToLower(match), true
}

func compileMatcher(category string, keywords []string) keywordMatcher {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(k), " ", `\s+`)
	}
	return keywordMatcher{
		category: category,
		re:       regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// normalizeAllergen lowercases a declared name and turns hyphens, underscores,
// apostrophes and repeated whitespace into single spaces
func normalizeAllergen(name string) string {
	replacer := strings.NewReplacer("-", " ", "_", " ", "/", " ", "'", "", "’", "")
	return strings.Join(strings.Fields(replacer.Replace(strings.ToLower(name))), " ")
}

// lookupAllergen resolves one normalized term, also trying it without a trailing
// "seed(s)" or plural "s"
func lookupAllergen(term string) (string, bool) {
	variants := []string{term}
	for _, suffix := range []string{" seeds", " seed"} {
		if trimmed := strings.TrimSuffix(term, suffix); trimmed != term && trimmed != "" {
			variants = append(variants, trimmed)
		}
	}
	for _, v := range append([]string(nil), variants...) {
		if strings.HasSuffix(v, "es") {
			variants = append(variants, strings.TrimSuffix(v, "es"))
		}
		if strings.HasSuffix(v, "s") {
			variants = append(variants, strings.TrimSuffix(v, "s"))
		}
	}
	for _, v := range variants {
		if category, ok := allergenAliases[v]; ok {
			return category, true
		}
		if category, ok := keywordCategory[v]; ok {
			return category, true
		}
	}
	return "", false
}

// resolveAllergen maps a declared allergen name to the keyword categories it
// covers. A name that does not resolve as a whole is resolved word by word and
// every matching category is returned. The bool is false when nothing matched.
func resolveAllergen(name string) ([]string, bool) {
	n := normalizeAllergen(name)
	if n == "" {
		return nil, false
	}
	if category, ok := lookupAllergen(n); ok {
		return []string{category}, true
	}

	var categories []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(n) {
		category, ok := lookupAllergen(word)
		if !ok || seen[category] {
			continue
		}
		seen[category] = true
		categories = append(categories, category)
	}
	return categories, len(categories) > 0
}
