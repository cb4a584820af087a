package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGoal(t *testing.T) {
	tests := []struct {
		in   string
		want Goal
	}{
		{"lose_weight", GoalLoseWeight},
		{"Weight Loss", GoalLoseWeight},
		{"muscle-gain", GoalGainMuscle},
		{"maintain", GoalMaintain},
		{"", GoalGeneralHealth},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGoal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseGoal("bulk forever")
	assert.ErrorIs(t, err, ErrInvalidGoal)
}

func TestProfile_Validate(t *testing.T) {
	p := Profile{ID: "u1", Goal: GoalMaintain, Age: 30}
	assert.NoError(t, p.Validate())

	p.ID = ""
	assert.ErrorIs(t, p.Validate(), ErrMissingUserID)

	p = Profile{ID: "u1", Goal: GoalMaintain, Age: 200}
	assert.ErrorIs(t, p.Validate(), ErrInvalidAge)

	p = Profile{ID: "u1", Goal: GoalMaintain, Targets: &MacroTargets{Protein: -1}}
	assert.ErrorIs(t, p.Validate(), ErrInvalidTargets)
}

func TestConfirmed(t *testing.T) {
	decls := []AllergenDeclaration{
		{Name: "nuts", Severity: SeveritySevere, Confirmed: true},
		{Name: "milk", Severity: SeverityMild, Confirmed: false},
		{Name: " ", Severity: SeverityMild, Confirmed: true},
	}
	got := Confirmed(decls)
	require.Len(t, got, 1)
	assert.Equal(t, "nuts", got[0].Name)
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityMild, ParseSeverity("Mild"))
	assert.Equal(t, SeverityModerate, ParseSeverity("moderate"))
	assert.Equal(t, SeveritySevere, ParseSeverity("unknown"))
}

func TestPurchaseStats_Score(t *testing.T) {
	assert.Equal(t, 0.0, PurchaseStats{}.Score())
	assert.InDelta(t, 1.0, PurchaseStats{Count: 10, TotalQuantity: 20}.Score(), 1e-9)
	assert.InDelta(t, (0.4+0.3)/2, PurchaseStats{Count: 2, TotalQuantity: 3}.Score(), 1e-9)
}
