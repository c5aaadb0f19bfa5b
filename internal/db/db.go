package db

import (
	"log"
	"os"
	"safescan/internal/models"
	"safescan/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=safescan port=5432 sslmode=disable TimeZone=UTC"
	}

	var err error
	// TranslateError: 唯一索引冲突要能用 gorm.ErrDuplicatedKey 判别
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	// Auto Migrate
	err = DB.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Product{},
		&models.ProductVote{},
		&models.VoteFingerprint{},
		&models.VoteEvent{},
		&models.Subscription{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedIngredients()
	seedAdmin()
}

// seedIngredients 预置一批常见争议成分，方便冷启动
func seedIngredients() {
	var count int64
	DB.Model(&models.Ingredient{}).Count(&count)
	if count > 0 {
		log.Println("Ingredients already seeded, skipping")
		return
	}

	ingredients := []models.Ingredient{
		{Name: "Red Dye 40", Aliases: "E129,Allura Red AC", Verdict: models.VerdictCaution, Reason: "Synthetic azo dye linked to hyperactivity in some children."},
		{Name: "Titanium Dioxide", Aliases: "E171,TiO2", Verdict: models.VerdictCaution, Reason: "Banned as a food additive in the EU since 2022."},
		{Name: "Aspartame", Aliases: "E951", Verdict: models.VerdictCaution, Reason: "Classified as *possibly carcinogenic* (IARC Group 2B) in 2023."},
		{Name: "Citric Acid", Aliases: "E330", Verdict: models.VerdictSafe, Reason: "Common acidity regulator, generally recognized as safe."},
		{Name: "Ascorbic Acid", Aliases: "E300,Vitamin C", Verdict: models.VerdictSafe, Reason: "Antioxidant, essential nutrient."},
	}

	for _, ing := range ingredients {
		if err := DB.Create(&ing).Error; err != nil {
			log.Printf("Failed to seed ingredient %s: %v", ing.Name, err)
		}
	}
	log.Println("Initial ingredients created successfully")
}

// seedAdmin 从环境变量创建初始管理员账号（没有配置则跳过）
func seedAdmin() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	var count int64
	DB.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	admin := models.User{
		Username: "admin",
		Email:    email,
		Password: hash,
		Role:     "admin",
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("Failed to create admin user: %v", err)
		return
	}
	log.Printf("Initial admin user %s created", email)
}
