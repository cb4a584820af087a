// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/user"
)

// ProductFactory creates randomized but reproducible products
type ProductFactory struct {
	faker *gofakeit.Faker
	seq   int
}

// NewProductFactory creates a new product factory with seeded faker
func NewProductFactory(seed int64) *ProductFactory {
	return &ProductFactory{faker: gofakeit.New(seed)}
}

// Product returns a complete, allergen-free product in the given category
func (f *ProductFactory) Product(category string) product.Product {
	f.seq++
	return NewProductBuilder().
		WithBarcode(fmt.Sprintf("%013d", 4000000000000+f.seq)).
		WithName(f.faker.Snack()).
		WithBrand(f.faker.Company()).
		WithCategory(category).
		WithIngredients("rice, water, salt").
		WithEnergy(f.faker.Float64Range(40, 500)).
		WithProtein(f.faker.Float64Range(0, 30)).
		WithFat(f.faker.Float64Range(0, 30)).
		WithCarbohydrates(f.faker.Float64Range(0, 80)).
		WithSugar(f.faker.Float64Range(0, 40)).
		WithFiber(f.faker.Float64Range(0, 10)).
		WithSodium(f.faker.Float64Range(0, 2)).
		Build()
}

// Products returns n products in the same category
func (f *ProductFactory) Products(n int, category string) []product.Product {
	out := make([]product.Product, n)
	for i := range out {
		out[i] = f.Product(category)
	}
	return out
}

// ProductBuilder provides a fluent interface for building test products
type ProductBuilder struct {
	params product.Params
}

// NewProductBuilder creates a builder for a minimal valid product
func NewProductBuilder() *ProductBuilder {
	return &ProductBuilder{params: product.Params{
		Barcode:     "0000000000001",
		Name:        "Test Product",
		Brand:       "Test Brand",
		Category:    "snacks",
		Ingredients: "water",
		Nutrition: product.NutritionFacts{
			EnergyKcal:    product.Some(100),
			Protein:       product.Some(5),
			Fat:           product.Some(2),
			Carbohydrates: product.Some(15),
		},
	}}
}

func (b *ProductBuilder) WithBarcode(v string) *ProductBuilder {
	b.params.Barcode = v
	return b
}

func (b *ProductBuilder) WithName(v string) *ProductBuilder {
	b.params.Name = v
	return b
}

func (b *ProductBuilder) WithBrand(v string) *ProductBuilder {
	b.params.Brand = v
	return b
}

func (b *ProductBuilder) WithCategory(v string) *ProductBuilder {
	b.params.Category = product.Category(v)
	return b
}

func (b *ProductBuilder) WithIngredients(v string) *ProductBuilder {
	b.params.Ingredients = v
	return b
}

func (b *ProductBuilder) WithAllergenText(v string) *ProductBuilder {
	b.params.AllergenText = v
	return b
}

func (b *ProductBuilder) WithUnitPrice(v float64) *ProductBuilder {
	b.params.UnitPrice = product.Some(v)
	return b
}

func (b *ProductBuilder) WithEnergy(v float64) *ProductBuilder {
	b.params.Nutrition.EnergyKcal = product.Some(v)
	return b
}

func (b *ProductBuilder) WithProtein(v float64) *ProductBuilder {
	b.params.Nutrition.Protein = product.Some(v)
	return b
}

func (b *ProductBuilder) WithFat(v float64) *ProductBuilder {
	b.params.Nutrition.Fat = product.Some(v)
	return b
}

func (b *ProductBuilder) WithSaturatedFat(v float64) *ProductBuilder {
	b.params.Nutrition.SaturatedFat = product.Some(v)
	return b
}

func (b *ProductBuilder) WithCarbohydrates(v float64) *ProductBuilder {
	b.params.Nutrition.Carbohydrates = product.Some(v)
	return b
}

func (b *ProductBuilder) WithSugar(v float64) *ProductBuilder {
	b.params.Nutrition.Sugar = product.Some(v)
	return b
}

func (b *ProductBuilder) WithFiber(v float64) *ProductBuilder {
	b.params.Nutrition.Fiber = product.Some(v)
	return b
}

func (b *ProductBuilder) WithSodium(v float64) *ProductBuilder {
	b.params.Nutrition.Sodium = product.Some(v)
	return b
}

// WithoutNutrient marks a field as absent
func (b *ProductBuilder) WithoutNutrient(f product.Field) *ProductBuilder {
	n := &b.params.Nutrition
	switch f {
	case product.FieldEnergyKcal:
		n.EnergyKcal = product.None()
	case product.FieldProtein:
		n.Protein = product.None()
	case product.FieldFat:
		n.Fat = product.None()
	case product.FieldSaturatedFat:
		n.SaturatedFat = product.None()
	case product.FieldCarbohydrates:
		n.Carbohydrates = product.None()
	case product.FieldSugar:
		n.Sugar = product.None()
	case product.FieldFiber:
		n.Fiber = product.None()
	case product.FieldSodium:
		n.Sodium = product.None()
	}
	return b
}

// Build creates the product
func (b *ProductBuilder) Build() product.Product {
	return product.New(b.params)
}

// ProfileBuilder provides a fluent interface for building user profiles
type ProfileBuilder struct {
	profile user.Profile
}

// NewProfileBuilder creates a builder for a 30 year old, moderately active user
func NewProfileBuilder() *ProfileBuilder {
	return &ProfileBuilder{profile: user.Profile{
		ID:            "user-1",
		Goal:          user.GoalGeneralHealth,
		Age:           30,
		Gender:        "female",
		ActivityLevel: user.ActivityModerate,
	}}
}

func (b *ProfileBuilder) WithID(id string) *ProfileBuilder {
	b.profile.ID = id
	return b
}

func (b *ProfileBuilder) WithGoal(g user.Goal) *ProfileBuilder {
	b.profile.Goal = g
	return b
}

func (b *ProfileBuilder) WithAge(age int) *ProfileBuilder {
	b.profile.Age = age
	return b
}

func (b *ProfileBuilder) WithActivity(a user.ActivityLevel) *ProfileBuilder {
	b.profile.ActivityLevel = a
	return b
}

// Build returns the profile
func (b *ProfileBuilder) Build() user.Profile {
	return b.profile
}

// Allergy returns a confirmed allergen declaration
func Allergy(name string, severity user.Severity) user.AllergenDeclaration {
	return user.AllergenDeclaration{Name: name, Severity: severity, Confirmed: true}
}
