package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"influencia-server/models"
	"influencia-server/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an isolated in-memory database, named after the test so
// parallel suites never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	storage.Migrate(db)
	return db
}

func newTestCache(t *testing.T) (*storage.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return storage.NewCache(client, ""), mr
}

func seedSponsor(t *testing.T, db *gorm.DB, username string, approved bool) (*models.User, *models.Sponsor) {
	t.Helper()
	user := models.User{
		Username: username,
		Password: "x",
		Email:    username + "@test.dev",
		Role:     models.RoleSponsor,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seeding sponsor user: %v", err)
	}
	sponsor := models.Sponsor{
		UserID:      user.ID,
		CompanyName: username + " co",
		IsApproved:  approved,
	}
	if err := db.Create(&sponsor).Error; err != nil {
		t.Fatalf("seeding sponsor: %v", err)
	}
	return &user, &sponsor
}

func seedInfluencer(t *testing.T, db *gorm.DB, username string) (*models.User, *models.Influencer) {
	t.Helper()
	user := models.User{
		Username: username,
		Password: "x",
		Email:    username + "@test.dev",
		Role:     models.RoleInfluencer,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seeding influencer user: %v", err)
	}
	influencer := models.Influencer{
		UserID: user.ID,
		Name:   username,
		Niche:  "tech",
	}
	if err := db.Create(&influencer).Error; err != nil {
		t.Fatalf("seeding influencer: %v", err)
	}
	return &user, &influencer
}

func seedCampaign(t *testing.T, db *gorm.DB, sponsorID uint, name string) *models.Campaign {
	t.Helper()
	campaign := models.Campaign{
		SponsorID:   sponsorID,
		Name:        name,
		Description: "test campaign",
		StartDate:   time.Now(),
		EndDate:     time.Now().AddDate(0, 1, 0),
		Budget:      1000,
		Visibility:  models.VisibilityPublic,
		Goals:       "goals",
		Niche:       "tech",
	}
	if err := db.Create(&campaign).Error; err != nil {
		t.Fatalf("seeding campaign: %v", err)
	}
	return &campaign
}
