package storage

import (
	"log"
	"os"

	"influencia-server/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func connectToDB() *gorm.DB {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Could not load .env file (this is normal in production)")
		}
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Panic("DB_CONNECTION_STRING environment variable is required")
	}

	// TranslateError maps unique violations onto gorm.ErrDuplicatedKey so
	// the services can report them as conflicts.
	db, dbError := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if dbError != nil {
		log.Panic("error connection to db: " + dbError.Error())
	}

	DB = db
	return db
}

func performMigrations(db *gorm.DB) {
	db.AutoMigrate(
		&models.User{},
		&models.Sponsor{},
		&models.Influencer{},
		&models.Campaign{},
		&models.AdRequest{},
		&models.Negotiation{},
		&models.UserFlag{},
		&models.CampaignFlag{},
	)
}

func InitializeDB() *gorm.DB {
	db := connectToDB()
	performMigrations(db)
	return db
}

// Migrate is the test hook: it runs the same migrations against an already
// opened database (sqlite in the test suites).
func Migrate(db *gorm.DB) {
	performMigrations(db)
}
