// Package user defines the shopper profile used to personalize recommendations
package user

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidGoal    = errors.New("invalid nutrition goal")
	ErrMissingUserID  = errors.New("user id is required")
	ErrInvalidAge     = errors.New("age must be between 0 and 130")
	ErrInvalidTargets = errors.New("macro targets must be non-negative")
)

// Goal is the user's nutrition goal
type Goal string

const (
	GoalLoseWeight    Goal = "lose_weight"
	GoalGainMuscle    Goal = "gain_muscle"
	GoalMaintain      Goal = "maintain"
	GoalGeneralHealth Goal = "general_health"
)

// Goals lists every supported goal
var Goals = []Goal{GoalLoseWeight, GoalGainMuscle, GoalMaintain, GoalGeneralHealth}

// ParseGoal accepts the canonical names plus the loose spellings found in
// imported profiles ("weight_loss", "Lose Weight", "muscle_gain").
func ParseGoal(s string) (Goal, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case "lose_weight", "weight_loss", "loseweight":
		return GoalLoseWeight, nil
	case "gain_muscle", "muscle_gain", "gainmuscle":
		return GoalGainMuscle, nil
	case "maintain", "maintenance", "maintain_weight":
		return GoalMaintain, nil
	case "general_health", "health", "generalhealth", "":
		return GoalGeneralHealth, nil
	}
	return "", ErrInvalidGoal
}

// Label returns a human readable form of the goal
func (g Goal) Label() string {
	switch g {
	case GoalLoseWeight:
		return "weight loss"
	case GoalGainMuscle:
		return "muscle gain"
	case GoalMaintain:
		return "weight maintenance"
	default:
		return "general health"
	}
}

// ActivityLevel describes how physically active the user is
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// IsActive reports whether the level tolerates higher carbohydrate intake
func (a ActivityLevel) IsActive() bool {
	return a == ActivityActive || a == ActivityVeryActive
}

// MacroTargets are optional daily intake targets in grams (energy in kcal)
type MacroTargets struct {
	EnergyKcal    float64 `json:"energy_kcal"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
}

// Profile is the read-only user profile consumed by the pipeline
type Profile struct {
	ID            string        `json:"id"`
	Goal          Goal          `json:"nutrition_goal"`
	Age           int           `json:"age"`
	Gender        string        `json:"gender,omitempty"`
	ActivityLevel ActivityLevel `json:"activity_level,omitempty"`
	Targets       *MacroTargets `json:"macro_targets,omitempty"`
}

// Validate checks the profile invariants
func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrMissingUserID
	}
	if _, err := ParseGoal(string(p.Goal)); err != nil {
		return err
	}
	if p.Age < 0 || p.Age > 130 {
		return ErrInvalidAge
	}
	if t := p.Targets; t != nil {
		if t.EnergyKcal < 0 || t.Protein < 0 || t.Fat < 0 || t.Carbohydrates < 0 {
			return ErrInvalidTargets
		}
	}
	return nil
}

// WithGoal returns a copy of the profile with a different goal
func (p Profile) WithGoal(g Goal) Profile {
	p.Goal = g
	return p
}
