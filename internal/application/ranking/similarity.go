package ranking

import (
	"strings"
	"unicode"

	"github.com/nutriswap/recommender/internal/domain/product"
)

// NameSimilarity is the Jaccard index of the name and brand tokens of two products
func NameSimilarity(a, b product.Product) float64 {
	ta := tokens(a.Name() + " " + a.Brand())
	tb := tokens(b.Name() + " " + b.Brand())
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

func tokens(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
