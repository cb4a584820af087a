package product

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    float64
		present bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 3, 3, true},
		{"numeric string", " 7,5 ", 7.5, true},
		{"unknown", "unknown", 0, false},
		{"n/a", "N/A", 0, false},
		{"empty", "", 0, false},
		{"nil", nil, 0, false},
		{"garbage", "lots", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Parse(tt.raw).Value()
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestNew_DropsImplausibleNutrition(t *testing.T) {
	p := New(Params{
		Barcode:  " 123 ",
		Name:     "Cola",
		Category: " Beverages ",
		Nutrition: NutritionFacts{
			EnergyKcal: Some(1200),
			Sugar:      Some(-1),
			Protein:    Some(0),
		},
	})

	assert.Equal(t, "123", p.Barcode())
	assert.Equal(t, Category("beverages"), p.Category())
	assert.False(t, p.Nutrition().EnergyKcal.Present())
	assert.False(t, p.Nutrition().Sugar.Present())
	assert.True(t, p.Nutrition().Protein.Present())
	assert.True(t, p.Nutrition().InRange())
}

func TestProduct_Validate(t *testing.T) {
	assert.ErrorIs(t, New(Params{Name: "x"}).Validate(), ErrMissingBarcode)
	assert.ErrorIs(t, New(Params{Barcode: "1"}).Validate(), ErrMissingName)
	assert.NoError(t, New(Params{Barcode: "1", Name: "x"}).Validate())
}

func TestProduct_JSON(t *testing.T) {
	in := []byte(`{"barcode":"42","name":"Oat Bar","brand":"Acme","category":"Snacks",
		"nutrition_per_100g":{"energyKcal":"380","protein":9,"sugar":"n/a"},"unit_price":2.5}`)

	var p Product
	require.NoError(t, json.Unmarshal(in, &p))

	assert.Equal(t, "Acme", p.DisplayName())
	assert.Equal(t, 380.0, p.Nutrition().EnergyKcal.Or(0))
	assert.False(t, p.Nutrition().Sugar.Present())
	assert.Equal(t, 2.5, p.UnitPrice().Or(0))

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"sugar":null`)
	assert.Contains(t, string(out), `"category":"snacks"`)
}
