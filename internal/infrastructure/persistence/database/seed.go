package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
	gormModels "github.com/nutriswap/recommender/internal/infrastructure/persistence/gorm"
)

type seedProduct struct {
	barcode, name, brand, category, ingredients string
	energy, protein, fat, satFat, carbs, sugar  float64
	fiber, sodium, price                        float64
}

var demoProducts = []seedProduct{
	{"5449000000996", "Cola", "FizzCo", "soft-drinks", "carbonated water, sugar, colour (caramel e150d), phosphoric acid, natural flavourings, caffeine", 42, 0, 0, 0, 10.6, 10.6, 0, 0.01, 1.49},
	{"5449000131805", "Cola Zero Sugar", "FizzCo", "soft-drinks", "carbonated water, colour (caramel e150d), phosphoric acid, sweeteners (aspartame, acesulfame k), natural flavourings, caffeine", 0.2, 0, 0, 0, 0, 0, 0, 0.02, 1.49},
	{"5000112637922", "Sparkling Lemon Water", "Clearwell", "soft-drinks", "carbonated spring water, natural lemon flavouring", 1, 0, 0, 0, 0.1, 0, 0, 0.01, 0.89},
	{"5010102241019", "Orange Juice Smooth", "Grove", "beverages", "orange juice", 45, 0.7, 0, 0, 10, 9, 0.2, 0, 2.10},
	{"5060337500401", "Iced Green Tea Unsweetened", "Leaf & Co", "beverages", "brewed green tea, lemon juice, antioxidant (ascorbic acid)", 1, 0, 0, 0, 0.2, 0, 0, 0.01, 1.25},
	{"7622210449283", "Milk Chocolate Bar", "Cocoa House", "confectionery", "sugar, cocoa butter, whole milk powder, cocoa mass, emulsifier (soy lecithin)", 534, 7.3, 30, 18, 57, 56, 2.1, 0.24, 1.00},
	{"5000159461122", "Peanut Caramel Bar", "Cocoa House", "confectionery", "milk chocolate, peanuts, sugar, glucose syrup, palm oil, egg white", 488, 8.6, 23.6, 9, 60.5, 51, 1.9, 0.5, 0.85},
	{"5060088701232", "Dark Chocolate 85%", "Cocoa House", "confectionery", "cocoa mass, cocoa butter, demerara sugar, vanilla extract", 600, 11, 51, 30, 19, 14, 12, 0.02, 2.50},
	{"5000328657950", "Salted Crisps", "Crunchy", "snacks", "potatoes, sunflower oil, salt", 536, 6.1, 34, 3.1, 50, 0.6, 4.2, 1.3, 1.20},
	{"5010029217890", "Lightly Salted Rice Cakes", "Puffin", "snacks", "wholegrain brown rice, sea salt", 387, 8.1, 2.8, 0.6, 81, 0.6, 3.8, 0.7, 0.99},
	{"5060292302201", "Roasted Chickpea Snack", "Pulse Pantry", "snacks", "chickpeas, rapeseed oil, sea salt, paprika", 420, 19, 12, 1.2, 48, 3.1, 15, 0.9, 1.75},
	{"5060088700570", "Almond & Cashew Mix", "Pulse Pantry", "snacks", "almonds, cashew nuts, sea salt", 610, 21, 52, 5.5, 13, 4.5, 8.5, 0.4, 3.20},
	{"5060139430012", "High Protein Beef Jerky", "Trail Co", "snacks", "beef, soy sauce (water, soybeans, wheat, salt), sugar, spices", 290, 46, 4, 1.5, 16, 12, 0.5, 2.4, 2.99},
	{"5053827100044", "Popcorn Sea Salt", "Popwell", "snacks", "corn, rapeseed oil, sea salt", 470, 9, 22, 2, 56, 0.8, 12, 1.1, 1.10},
	{"5000127163154", "Frosted Flakes", "Morning Co", "breakfast-cereals", "maize, sugar, barley malt flavouring, salt, vitamins", 375, 4.5, 0.6, 0.1, 84, 37, 2, 0.73, 2.75},
	{"5010029000016", "Rolled Oats", "Highland", "breakfast-cereals", "100% wholegrain rolled oats", 374, 11, 8, 1.5, 60, 1.1, 9, 0.01, 1.60},
	{"5010029217715", "Bran Flakes", "Morning Co", "breakfast-cereals", "wholegrain wheat, wheat bran, sugar, barley malt extract, salt", 356, 11, 2.5, 0.5, 66, 14, 14, 0.75, 2.20},
	{"5000436589488", "Strawberry Yogurt", "Dairy Lane", "dairy", "yogurt (milk), sugar, strawberries, cornflour, flavouring", 96, 3.7, 2.7, 1.7, 14, 13.5, 0.2, 0.12, 0.65},
	{"5000436589501", "Greek Style Natural Yogurt 0%", "Dairy Lane", "dairy", "fat free yogurt (milk)", 57, 10.3, 0.2, 0.1, 3.6, 3.6, 0, 0.1, 1.35},
	{"5060391620069", "Oat Drink Unsweetened", "Oatly Fields", "dairy-alternatives", "water, oats, rapeseed oil, calcium carbonate, salt", 46, 1, 1.5, 0.2, 6.6, 0, 0.8, 0.1, 1.80},
}

type seedUser struct {
	profile   user.Profile
	allergens []user.AllergenDeclaration
	purchases []recommendation.PurchasedItem
}

func demoUsers() []seedUser {
	common := []recommendation.PurchasedItem{
		{Barcode: "5449000000996", Quantity: 6, UnitPrice: 1.49},
		{Barcode: "5000328657950", Quantity: 2, UnitPrice: 1.20},
		{Barcode: "7622210449283", Quantity: 3, UnitPrice: 1.00},
		{Barcode: "5000127163154", Quantity: 1, UnitPrice: 2.75},
	}
	return []seedUser{
		{
			profile: user.Profile{ID: "demo-user", Goal: user.GoalLoseWeight, Age: 34, Gender: "female", ActivityLevel: user.ActivityLight},
			allergens: []user.AllergenDeclaration{
				{Name: "peanuts", Severity: user.SeveritySevere, Confirmed: true},
			},
			purchases: common,
		},
		{
			profile:   user.Profile{ID: "gym-user", Goal: user.GoalGainMuscle, Age: 27, Gender: "male", ActivityLevel: user.ActivityVeryActive},
			purchases: append(append([]recommendation.PurchasedItem{}, common...), recommendation.PurchasedItem{Barcode: "5000436589501", Quantity: 8, UnitPrice: 1.35}, recommendation.PurchasedItem{Barcode: "5060139430012", Quantity: 4, UnitPrice: 2.99}),
		},
		{
			profile: user.Profile{ID: "family-user", Goal: user.GoalGeneralHealth, Age: 41, ActivityLevel: user.ActivityModerate},
			allergens: []user.AllergenDeclaration{
				{Name: "milk", Severity: user.SeverityModerate, Confirmed: true},
				{Name: "sesame", Severity: user.SeverityMild, Confirmed: false},
			},
			purchases: append(append([]recommendation.PurchasedItem{}, common...), recommendation.PurchasedItem{Barcode: "5000112637922", Quantity: 12, UnitPrice: 0.89}, recommendation.PurchasedItem{Barcode: "5010029217890", Quantity: 5, UnitPrice: 0.99}),
		},
		{
			profile:   user.Profile{ID: "steady-user", Goal: user.GoalMaintain, Age: 58, ActivityLevel: user.ActivitySedentary},
			purchases: append(append([]recommendation.PurchasedItem{}, common[:3]...), recommendation.PurchasedItem{Barcode: "5449000131805", Quantity: 10, UnitPrice: 1.49}),
		},
	}
}

// DemoProducts returns the catalogue used by Seed
func DemoProducts() []product.Product {
	out := make([]product.Product, len(demoProducts))
	for i, s := range demoProducts {
		out[i] = product.New(product.Params{
			Barcode:     s.barcode,
			Name:        s.name,
			Brand:       s.brand,
			Category:    product.Category(s.category),
			Ingredients: s.ingredients,
			Nutrition: product.NutritionFacts{
				EnergyKcal:    product.Some(s.energy),
				Protein:       product.Some(s.protein),
				Fat:           product.Some(s.fat),
				SaturatedFat:  product.Some(s.satFat),
				Carbohydrates: product.Some(s.carbs),
				Sugar:         product.Some(s.sugar),
				Fiber:         product.Some(s.fiber),
				Sodium:        product.Some(s.sodium),
			},
			UnitPrice: product.Some(s.price),
		})
	}
	return out
}

// Seed populates an empty database with demo products, users and purchases
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&gormModels.ProductModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	products := gormModels.NewProductRepository(db)
	users := gormModels.NewUserRepository(db)
	peers := gormModels.NewPeerRepository(db)

	if err := products.Upsert(ctx, DemoProducts()...); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	for _, u := range demoUsers() {
		if err := users.Save(ctx, u.profile, u.allergens); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.profile.ID, err)
		}
		if err := peers.RecordPurchases(ctx, u.profile.ID, u.purchases); err != nil {
			return fmt.Errorf("failed to seed purchases for %s: %w", u.profile.ID, err)
		}
	}

	log.Named("database").Info("Seeded demo data",
		zap.Int("products", len(demoProducts)),
		zap.Int("users", len(demoUsers())),
	)
	return nil
}
