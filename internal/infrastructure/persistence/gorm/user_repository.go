package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// UserRepository implements the user repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

var _ outbound.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetProfile finds a profile by user ID. A missing user is not an error.
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (outbound.ProfileLookup, error) {
	var model UserModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return outbound.ProfileLookup{}, nil
		}
		return outbound.ProfileLookup{}, result.Error
	}

	return outbound.ProfileLookup{Profile: ModelToProfile(&model), Found: true}, nil
}

// GetAllergens lists the allergens a user declared, most severe first
func (r *UserRepository) GetAllergens(ctx context.Context, userID string) ([]user.AllergenDeclaration, error) {
	var models []AllergenModel

	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}

	allergens := make([]user.AllergenDeclaration, len(models))
	for i := range models {
		allergens[i] = ModelToAllergen(&models[i])
	}
	return allergens, nil
}

// Save stores a profile and replaces its allergen declarations
func (r *UserRepository) Save(ctx context.Context, profile user.Profile, allergens []user.AllergenDeclaration) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := ProfileToModel(profile)
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", profile.ID).Delete(&AllergenModel{}).Error; err != nil {
			return err
		}
		for _, a := range allergens {
			if err := tx.Create(AllergenToModel(profile.ID, a)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
