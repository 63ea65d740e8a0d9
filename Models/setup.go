package Models

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	dbPath := EnvString("DB_PATH", "database.db")
	// _busy_timeout keeps concurrent request handlers from failing fast on
	// SQLITE_BUSY while a guard transaction holds the write lock.
	connection, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	DB = connection

	// 1. Base records with no dependencies
	DB.AutoMigrate(
		&User{},
		&TierConfig{},
		&VendorFCMToken{},
	)

	// 2. Vendors, then everything keyed off a vendor
	DB.AutoMigrate(&Vendor{})
	DB.AutoMigrate(
		&CreditPurchase{},
		&Order{},
		&OrderItem{},
	)

	// 3. Ledger and notification records (unique-index idempotency keys)
	DB.AutoMigrate(
		&VendorEarning{},
		&VendorNotification{},
	)

	seedDefaultTierConfig()
}

// seedDefaultTierConfig installs the system-wide schedule on first boot.
// The gap between the last discount tier and the repayment deadline is the
// neutral zone: no incentive, no penalty.
func seedDefaultTierConfig() {
	var count int64
	DB.Model(&TierConfig{}).Count(&count)
	if count > 0 {
		return
	}

	discount, err := EncodeTiers([]Tier{
		{PeriodStart: 0, PeriodEnd: 7, Rate: 5, TierName: "Early Settlement"},
		{PeriodStart: 7, PeriodEnd: 15, Rate: 2, TierName: "Prompt Settlement"},
	})
	if err != nil {
		log.Printf("Error encoding default discount tiers: %v", err)
		return
	}
	interest, err := EncodeTiers([]Tier{
		{PeriodStart: 30, PeriodEnd: 60, Rate: 2, TierName: "Late"},
		{PeriodStart: 60, PeriodEnd: 90, Rate: 5, TierName: "Seriously Late"},
	})
	if err != nil {
		log.Printf("Error encoding default interest tiers: %v", err)
		return
	}

	config := TierConfig{
		DiscountTiers:        discount,
		InterestTiers:        interest,
		DefaultRepaymentDays: 30,
	}
	if err := DB.Create(&config).Error; err != nil {
		log.Printf("Error seeding default tier config: %v", err)
		return
	}
	log.Println("Seeded default tier configuration")
}

// GetTierConfig returns the global schedule row. Defaults are seeded once at
// startup; an empty table surfaces as gorm.ErrRecordNotFound.
func GetTierConfig(db *gorm.DB) (TierConfig, error) {
	var config TierConfig
	if err := db.Order("id").First(&config).Error; err != nil {
		return TierConfig{}, err
	}
	return config, nil
}

func EnvString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func EnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return parsed
}

func EnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %v, using default %f", key, err, fallback)
		return fallback
	}
	return parsed
}

// ExclusivityRadiusKM is the distance within which only one vendor may operate.
func ExclusivityRadiusKM() float64 {
	return EnvFloat("EXCLUSIVITY_RADIUS_KM", 5.0)
}

// MinOrderValue is the smallest credit purchase the platform accepts.
func MinOrderValue() float64 {
	return EnvFloat("MIN_ORDER_VALUE", 100.0)
}

// DueSoonDays is how many days before the due date reminders start.
func DueSoonDays() int {
	return EnvInt("DUE_SOON_DAYS", 3)
}
