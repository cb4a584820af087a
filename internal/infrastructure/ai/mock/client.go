// Package mock provides a deterministic offline completion client
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// Client answers every prompt with a well-formed explanation built from the
// prompt's own product and goal lines. It never calls the network.
type Client struct {
	logger *zap.Logger
}

var _ outbound.TextCompletionService = (*Client)(nil)

// NewClient creates a mock completion client
func NewClient(logger *zap.Logger) *Client {
	return &Client{logger: logger.Named("mock-completion")}
}

// Name returns the provider name
func (c *Client) Name() string {
	return "mock"
}

// Complete returns a JSON explanation for the prompt
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	goal := field(prompt, "", "goal")
	if goal == "" {
		goal = "health"
	}
	original := field(prompt, "Current product:", "name")
	alternative := field(prompt, "Recommended alternative:", "name")
	if alternative == "" {
		alternative = "This alternative"
	}
	if original == "" {
		original = "your current choice"
	}

	var changes []string
	if i := strings.Index(prompt, "Changes per 100g:"); i >= 0 {
		for _, line := range strings.Split(prompt[i:], "\n")[1:] {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "- ") {
				break
			}
			changes = append(changes, strings.TrimPrefix(line, "- "))
		}
	}

	detailed := fmt.Sprintf("%s is a closer fit for your %s goal than %s.", alternative, goal, original)
	if len(changes) > 0 {
		detailed += " Per 100g the key differences are " + strings.Join(changes, "; ") + "."
	}
	detailed += " It stays in a similar category so it can replace the original in the same meals and snacks." +
		" Check the label for portion size and compare prices before you switch."

	payload, err := json.Marshal(map[string]string{
		"reasoning":          fmt.Sprintf("%s suits your %s goal better.", alternative, goal),
		"detailed_reasoning": detailed,
	})
	if err != nil {
		return "", err
	}
	c.logger.Debug("Mock completion served", zap.String("alternative", alternative))
	return string(payload), nil
}

// field finds the first "- key: value" line after section
func field(prompt, section, key string) string {
	start := 0
	if section != "" {
		i := strings.Index(prompt, section)
		if i < 0 {
			return ""
		}
		start = i
	}
	prefix := "- " + key + ": "
	for _, line := range strings.Split(prompt[start:], "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}
