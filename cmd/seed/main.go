package main

import (
	"flag"
	"fmt"
	"time"

	"go-cake-store/internal/model"
	"go-cake-store/pkg/config"
	"go-cake-store/pkg/database"
	"go-cake-store/pkg/jwt"
	"go-cake-store/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	tenantID := flag.Uint("tenant", 1, "tenant id to seed")
	userID := flag.Uint("user", 1, "user id for the demo token")
	flag.Parse()

	cfg, err := config.Load("cake-store")
	if err != nil {
		panic(err)
	}
	if err := logger.InitLogger(&logger.LogConfig{Level: cfg.Log.Level, Environment: cfg.Server.Env, ServiceName: "cake-store-seed"}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.GetLogger()

	db, err := database.ConnectDB(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect database", zap.Error(err))
	}
	defer database.Close(db)

	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatal("Failed to migrate", zap.Error(err))
	}

	var existing int64
	if err := db.Model(&model.Product{}).Where("tenant_id = ?", *tenantID).Count(&existing).Error; err != nil {
		log.Fatal("Failed to inspect tenant", zap.Error(err))
	}
	if existing > 0 {
		log.Info("Tenant already seeded, skipping catalog", zap.Uint("tenant_id", *tenantID), zap.Int64("products", existing))
	} else if err := db.Transaction(func(tx *gorm.DB) error { return seedCatalog(tx, *tenantID) }); err != nil {
		log.Fatal("Failed to seed catalog", zap.Error(err))
	} else {
		log.Info("Demo catalog seeded", zap.Uint("tenant_id", *tenantID))
	}

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpirationHours)*time.Hour)
	token, err := tokens.GenerateToken(*tenantID, *userID, "demo@example.com", "Demo Customer")
	if err != nil {
		log.Fatal("Failed to sign demo token", zap.Error(err))
	}
	fmt.Println(token)
}

func seedCatalog(tx *gorm.DB, tenantID uint) error {
	base := model.BaseModel{TenantID: tenantID}

	categories := []*model.Category{
		{BaseModel: base, Name: "Bolos", Slug: "bolos"},
		{BaseModel: base, Name: "Tortas", Slug: "tortas"},
		{BaseModel: base, Name: "Doces", Slug: "doces"},
	}
	confectioners := []*model.Confectioner{
		{BaseModel: base, Name: "Dona Ana", AverageRating: 4.8, TotalProductsSold: 320},
		{BaseModel: base, Name: "Ateliê Bia", AverageRating: 4.5, TotalProductsSold: 140},
	}
	flavors := []*model.Flavor{
		{BaseModel: base, Name: "Chocolate"},
		{BaseModel: base, Name: "Morango"},
		{BaseModel: base, Name: "Limão"},
		{BaseModel: base, Name: "Doce de leite"},
	}
	sizes := []*model.Size{
		{BaseModel: base, Name: "P", Servings: 8, PriceModifier: 0},
		{BaseModel: base, Name: "M", Servings: 15, PriceModifier: 2500},
		{BaseModel: base, Name: "G", Servings: 25, PriceModifier: 5000},
	}
	for _, rows := range []interface{}{categories, confectioners, flavors, sizes} {
		if err := tx.Create(rows).Error; err != nil {
			return err
		}
	}

	promo := int64(7900)
	nutrition := `{"calories": 380, "gluten_free": false}`
	products := []*model.Product{
		{
			BaseModel: base, Name: "Bolo de Chocolate Belga", Description: "Massa úmida com ganache",
			Ingredients: `["farinha","cacau belga","ovos","creme de leite"]`, NutritionalInfo: &nutrition,
			BasePrice: 8900, PromotionalPrice: &promo, MainImage: "/img/chocolate.jpg", Gallery: `["/img/chocolate-2.jpg"]`,
			AverageRating: 4.9, TotalReviews: 2, PrepTimeMinutes: 240, IsAvailable: true, IsActive: true,
			ConfectionerID: confectioners[0].ID, CategoryID: categories[0].ID,
		},
		{
			BaseModel: base, Name: "Torta de Limão", Description: "Merengue maçaricado",
			Ingredients: `["limão","leite condensado","biscoito"]`,
			BasePrice: 6500, MainImage: "/img/limao.jpg",
			AverageRating: 4.6, TotalReviews: 1, PrepTimeMinutes: 120, IsAvailable: true, IsActive: true,
			ConfectionerID: confectioners[0].ID, CategoryID: categories[1].ID,
		},
		{
			BaseModel: base, Name: "Bolo de Morango", Description: "Chantilly e morangos frescos",
			BasePrice: 7500, MainImage: "/img/morango.jpg",
			AverageRating: 4.4, TotalReviews: 0, PrepTimeMinutes: 180, IsAvailable: true, IsActive: true,
			ConfectionerID: confectioners[1].ID, CategoryID: categories[0].ID,
		},
		{
			BaseModel: base, Name: "Brigadeiro Gourmet", Description: "Caixa com 12 unidades",
			BasePrice: 4800, MainImage: "/img/brigadeiro.jpg",
			AverageRating: 4.7, TotalReviews: 0, PrepTimeMinutes: 60, IsAvailable: false, IsActive: true,
			ConfectionerID: confectioners[1].ID, CategoryID: categories[2].ID,
		},
	}
	if err := tx.Create(products).Error; err != nil {
		return err
	}

	var productFlavors []model.ProductFlavor
	var productSizes []model.ProductSize
	for i, p := range products {
		for j, f := range flavors {
			// every product withdraws one flavor so option filters have something to exclude
			productFlavors = append(productFlavors, model.ProductFlavor{
				TenantID: tenantID, ProductID: p.ID, FlavorID: f.ID, Available: (i+j)%4 != 3,
			})
		}
		for j, s := range sizes {
			productSizes = append(productSizes, model.ProductSize{
				TenantID: tenantID, ProductID: p.ID, SizeID: s.ID, Available: !(i == 1 && j == 2),
			})
		}
	}
	if err := tx.Create(&productFlavors).Error; err != nil {
		return err
	}
	if err := tx.Create(&productSizes).Error; err != nil {
		return err
	}

	reviews := []model.Review{
		{BaseModel: base, ProductID: products[0].ID, CustomerName: "Carla", Rating: 5, Comment: "Perfeito!"},
		{BaseModel: base, ProductID: products[0].ID, CustomerName: "Davi", Rating: 5, Comment: "Muito úmido."},
		{BaseModel: base, ProductID: products[1].ID, CustomerName: "Eva", Rating: 4, Comment: "Azedinho na medida."},
	}
	return tx.Create(&reviews).Error
}
