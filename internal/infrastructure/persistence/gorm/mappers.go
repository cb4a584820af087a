// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"time"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// ProductToModel converts a domain product to a GORM model
func ProductToModel(p product.Product) *ProductModel {
	n := p.Nutrition()
	return &ProductModel{
		Barcode:       p.Barcode(),
		Name:          p.Name(),
		Brand:         p.Brand(),
		Category:      string(p.Category().Normalize()),
		Ingredients:   p.Ingredients(),
		AllergenText:  p.AllergenText(),
		EnergyKcal:    n.EnergyKcal.Ptr(),
		Protein:       n.Protein.Ptr(),
		Fat:           n.Fat.Ptr(),
		SaturatedFat:  n.SaturatedFat.Ptr(),
		Carbohydrates: n.Carbohydrates.Ptr(),
		Sugar:         n.Sugar.Ptr(),
		Fiber:         n.Fiber.Ptr(),
		Sodium:        n.Sodium.Ptr(),
		UnitPrice:     p.UnitPrice().Ptr(),
	}
}

// ModelToProduct converts a GORM model to a domain product
func ModelToProduct(m *ProductModel) product.Product {
	return product.New(product.Params{
		Barcode:      m.Barcode,
		Name:         m.Name,
		Brand:        m.Brand,
		Category:     product.Category(m.Category),
		Ingredients:  m.Ingredients,
		AllergenText: m.AllergenText,
		Nutrition: product.NutritionFacts{
			EnergyKcal:    product.FromPtr(m.EnergyKcal),
			Protein:       product.FromPtr(m.Protein),
			Fat:           product.FromPtr(m.Fat),
			SaturatedFat:  product.FromPtr(m.SaturatedFat),
			Carbohydrates: product.FromPtr(m.Carbohydrates),
			Sugar:         product.FromPtr(m.Sugar),
			Fiber:         product.FromPtr(m.Fiber),
			Sodium:        product.FromPtr(m.Sodium),
		},
		UnitPrice: product.FromPtr(m.UnitPrice),
	})
}

// ProfileToModel converts a domain profile to a GORM model
func ProfileToModel(p user.Profile) *UserModel {
	model := &UserModel{
		ID:            p.ID,
		Goal:          string(p.Goal),
		Age:           p.Age,
		Gender:        p.Gender,
		ActivityLevel: string(p.ActivityLevel),
	}
	if t := p.Targets; t != nil {
		model.TargetEnergyKcal = &t.EnergyKcal
		model.TargetProtein = &t.Protein
		model.TargetFat = &t.Fat
		model.TargetCarbohydrates = &t.Carbohydrates
	}
	return model
}

// ModelToProfile converts a GORM model to a domain profile. An unreadable
// goal falls back to general health.
func ModelToProfile(m *UserModel) user.Profile {
	goal, err := user.ParseGoal(m.Goal)
	if err != nil {
		goal = user.GoalGeneralHealth
	}
	profile := user.Profile{
		ID:            m.ID,
		Goal:          goal,
		Age:           m.Age,
		Gender:        m.Gender,
		ActivityLevel: user.ActivityLevel(m.ActivityLevel),
	}
	if m.TargetEnergyKcal != nil || m.TargetProtein != nil || m.TargetFat != nil || m.TargetCarbohydrates != nil {
		profile.Targets = &user.MacroTargets{
			EnergyKcal:    deref(m.TargetEnergyKcal),
			Protein:       deref(m.TargetProtein),
			Fat:           deref(m.TargetFat),
			Carbohydrates: deref(m.TargetCarbohydrates),
		}
	}
	return profile
}

// AllergenToModel converts an allergen declaration to a GORM model
func AllergenToModel(userID string, a user.AllergenDeclaration) *AllergenModel {
	return &AllergenModel{
		UserID:    userID,
		Name:      a.Name,
		Severity:  string(a.Severity),
		Confirmed: a.Confirmed,
	}
}

// ModelToAllergen converts a GORM model to an allergen declaration
func ModelToAllergen(m *AllergenModel) user.AllergenDeclaration {
	return user.AllergenDeclaration{
		Name:      m.Name,
		Severity:  user.ParseSeverity(m.Severity),
		Confirmed: m.Confirmed,
	}
}

// LogToModel converts a recommendation log entry to a GORM model
func LogToModel(l outbound.RecommendationLog) *RecommendationLogModel {
	return &RecommendationLogModel{
		RequestID:       l.RequestID,
		UserID:          l.UserID,
		OriginalBarcode: l.OriginalBarcode,
		Goal:            string(l.Goal),
		Status:          l.Status,
		Barcodes:        StringSlice(l.Barcodes),
		FallbackCount:   l.FallbackCount,
		DurationMs:      l.Duration.Milliseconds(),
		CreatedAt:       l.CreatedAt,
	}
}

// ModelToLog converts a GORM model to a recommendation log entry
func ModelToLog(m *RecommendationLogModel) outbound.RecommendationLog {
	return outbound.RecommendationLog{
		RequestID:       m.RequestID,
		UserID:          m.UserID,
		OriginalBarcode: m.OriginalBarcode,
		Goal:            user.Goal(m.Goal),
		Status:          m.Status,
		Barcodes:        []string(m.Barcodes),
		FallbackCount:   m.FallbackCount,
		Duration:        time.Duration(m.DurationMs) * time.Millisecond,
		CreatedAt:       m.CreatedAt,
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
