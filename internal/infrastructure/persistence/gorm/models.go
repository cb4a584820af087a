// Package gorm provides GORM model definitions and repositories
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductModel represents the GORM model for grocery products.
// Nutrient columns are nullable; NULL means the value is unknown.
type ProductModel struct {
	Barcode      string `gorm:"type:varchar(32);primaryKey"`
	Name         string `gorm:"type:varchar(255);not null"`
	Brand        string `gorm:"type:varchar(255)"`
	Category     string `gorm:"type:varchar(100);index"`
	Ingredients  string `gorm:"type:text"`
	AllergenText string `gorm:"type:text"`

	// Per 100g
	EnergyKcal    *float64
	Protein       *float64
	Fat           *float64
	SaturatedFat  *float64
	Carbohydrates *float64
	Sugar         *float64
	Fiber         *float64
	Sodium        *float64

	UnitPrice *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserModel represents the GORM model for shopper profiles
type UserModel struct {
	ID            string `gorm:"type:varchar(64);primaryKey"`
	Goal          string `gorm:"type:varchar(32);default:'general_health'"`
	Age           int
	Gender        string `gorm:"type:varchar(32)"`
	ActivityLevel string `gorm:"type:varchar(32)"`

	// Optional daily targets, all NULL when the user has none
	TargetEnergyKcal    *float64
	TargetProtein       *float64
	TargetFat           *float64
	TargetCarbohydrates *float64

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Allergens []AllergenModel `gorm:"foreignKey:UserID"`
}

// AllergenModel represents a declared allergy
type AllergenModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);not null;index"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Severity  string    `gorm:"type:varchar(20);default:'severe'"`
	Confirmed bool      `gorm:"default:true"`
	CreatedAt time.Time
}

// PurchaseModel represents one purchased line item
type PurchaseModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID      string    `gorm:"type:varchar(64);not null;index:idx_purchase_user_barcode"`
	Barcode     string    `gorm:"type:varchar(32);not null;index:idx_purchase_user_barcode;index"`
	Quantity    float64   `gorm:"default:1"`
	UnitPrice   float64
	PurchasedAt time.Time `gorm:"index"`
}

// RecommendationLogModel records one successful pipeline run
type RecommendationLogModel struct {
	ID              uuid.UUID   `gorm:"type:char(36);primaryKey"`
	RequestID       string      `gorm:"type:varchar(64);uniqueIndex"`
	UserID          string      `gorm:"type:varchar(64);index"`
	OriginalBarcode string      `gorm:"type:varchar(32);index"`
	Goal            string      `gorm:"type:varchar(32)"`
	Status          string      `gorm:"type:varchar(32)"`
	Barcodes        StringSlice `gorm:"type:json"`
	FallbackCount   int
	DurationMs      int64
	CreatedAt       time.Time `gorm:"index"`
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for AllergenModel
func (a *AllergenModel) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PurchaseModel
func (p *PurchaseModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now().UTC()
	}
	return nil
}

// BeforeCreate hook for RecommendationLogModel
func (r *RecommendationLogModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (ProductModel) TableName() string {
	return "products"
}

func (UserModel) TableName() string {
	return "users"
}

func (AllergenModel) TableName() string {
	return "user_allergens"
}

func (PurchaseModel) TableName() string {
	return "purchases"
}

func (RecommendationLogModel) TableName() string {
	return "recommendation_logs"
}

// AllModels lists every model for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&ProductModel{},
		&UserModel{},
		&AllergenModel{},
		&PurchaseModel{},
		&RecommendationLogModel{},
	}
}
