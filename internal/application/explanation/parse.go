package explanation

import (
	"encoding/json"
	"strings"

	"github.com/nutriswap/recommender/pkg/errors"
)

const (
	maxShortWords  = 15
	minDetailWords = 50
	maxDetailWords = 80
)

type completionPayload struct {
	Reasoning         string `json:"reasoning"`
	DetailedReasoning string `json:"detailed_reasoning"`
	DetailedCamel     string `json:"detailedReasoning"`
}

// Parse extracts the reasoning fields from a completion response. The JSON object
// may be wrapped in prose or code fences.
func Parse(text string) (short, detailed string, err error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", "", errors.NewCompletionMalformedError("no JSON object in response")
	}

	var payload completionPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return "", "", errors.NewCompletionMalformedError("invalid JSON: " + err.Error())
	}
	if payload.DetailedReasoning == "" {
		payload.DetailedReasoning = payload.DetailedCamel
	}

	short = strings.TrimSpace(payload.Reasoning)
	detailed = strings.TrimSpace(payload.DetailedReasoning)
	if short == "" || detailed == "" {
		return "", "", errors.NewCompletionMalformedError("missing reasoning fields")
	}
	return truncateWords(short, maxShortWords), detailed, nil
}

// truncateWords keeps at most n words, ending the text with a period
func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	out := strings.TrimRight(strings.Join(words[:n], " "), ",;:-")
	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	return out
}

// fitWords trims or pads text a whole sentence at a time until it has between
// min and max words. A lone sentence longer than max is cut at max words.
func fitWords(text string, filler []string, min, max int) string {
	sentences := splitSentences(text)
	for len(sentences) > 1 && wordCount(strings.Join(sentences, " ")) > max {
		sentences = sentences[:len(sentences)-1]
	}
	return padSentences(strings.Join(sentences, " "), filler, min, max)
}

// padSentences appends filler sentences that still fit under max until the
// text reaches min words
func padSentences(text string, filler []string, min, max int) string {
	out := strings.TrimSpace(text)
	n := wordCount(out)
	for _, s := range filler {
		if n >= min {
			break
		}
		if n+wordCount(s) > max {
			continue
		}
		out = strings.TrimSpace(out + " " + s)
		n = wordCount(out)
	}
	return truncateWords(out, max)
}

// splitSentences breaks text after words ending in terminal punctuation
func splitSentences(text string) []string {
	var sentences, current []string
	for _, w := range strings.Fields(text) {
		current = append(current, w)
		if strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?") {
			sentences = append(sentences, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, strings.Join(current, " "))
	}
	return sentences
}

// firstWords keeps at most n words of s
func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.TrimRight(strings.Join(words, " "), ",;:-")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
