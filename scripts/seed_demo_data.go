package main

import (
	"fmt"
	"log"
	"time"

	"influencia-server/models"
	"influencia-server/storage"

	"golang.org/x/crypto/bcrypt"
)

// Seeds one account per role plus a demo campaign, ad request and
// negotiation round. Safe to re-run: existing usernames are skipped.
func main() {
	db := storage.InitializeDB()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), 10)
	if err != nil {
		log.Fatalf("Error hashing seed password: %v", err)
	}

	admin := models.User{Username: "admin", Password: string(hash), Email: "admin@influencia.dev", Role: models.RoleAdmin}
	if err := firstOrCreateUser(&admin); err != nil {
		log.Fatalf("Error seeding admin: %v", err)
	}

	sponsorUser := models.User{Username: "acme", Password: string(hash), Email: "acme@influencia.dev", Role: models.RoleSponsor}
	if err := firstOrCreateUser(&sponsorUser); err != nil {
		log.Fatalf("Error seeding sponsor user: %v", err)
	}
	sponsor := models.Sponsor{
		UserID:             sponsorUser.ID,
		CompanyName:        "Acme Corp",
		Industry:           "Tech",
		Budget:             50000,
		CompanyDescription: "Demo sponsor account",
		IsApproved:         true,
	}
	if err := db.Where("user_id = ?", sponsorUser.ID).FirstOrCreate(&sponsor).Error; err != nil {
		log.Fatalf("Error seeding sponsor: %v", err)
	}

	influencerUser := models.User{Username: "creator", Password: string(hash), Email: "creator@influencia.dev", Role: models.RoleInfluencer}
	if err := firstOrCreateUser(&influencerUser); err != nil {
		log.Fatalf("Error seeding influencer user: %v", err)
	}
	influencer := models.Influencer{
		UserID:      influencerUser.ID,
		Name:        "Demo Creator",
		Category:    "Lifestyle",
		Niche:       "Tech",
		Reach:       120000,
		Description: "Demo influencer account",
		Platforms:   []byte(`{"instagram":"@democreator","youtube":"DemoCreator"}`),
	}
	if err := db.Where("user_id = ?", influencerUser.ID).FirstOrCreate(&influencer).Error; err != nil {
		log.Fatalf("Error seeding influencer: %v", err)
	}

	campaign := models.Campaign{
		SponsorID:   sponsor.ID,
		Name:        "Spring Launch",
		Description: "Product launch awareness push",
		StartDate:   time.Now(),
		EndDate:     time.Now().AddDate(0, 1, 0),
		Budget:      10000,
		Visibility:  models.VisibilityPublic,
		Goals:       "Reach 1M impressions",
		Niche:       "Tech",
	}
	if err := db.Where("sponsor_id = ? AND name = ?", sponsor.ID, campaign.Name).FirstOrCreate(&campaign).Error; err != nil {
		log.Fatalf("Error seeding campaign: %v", err)
	}

	adRequest := models.AdRequest{
		CampaignID:    campaign.ID,
		InfluencerID:  influencer.ID,
		Requirements:  "Two reels and one story",
		PaymentAmount: 1500,
		Status:        models.StatusPending,
		Messages:      "Looking forward to working together",
	}
	if err := db.Where("campaign_id = ? AND influencer_id = ?", campaign.ID, influencer.ID).FirstOrCreate(&adRequest).Error; err != nil {
		log.Fatalf("Error seeding ad request: %v", err)
	}

	negotiation := models.Negotiation{
		AdRequestID:           adRequest.ID,
		InfluencerID:          influencer.ID,
		ProposedPaymentAmount: 2000,
		NegotiationStatus:     models.StatusPending,
	}
	if err := db.Where("ad_request_id = ?", adRequest.ID).FirstOrCreate(&negotiation).Error; err != nil {
		log.Fatalf("Error seeding negotiation: %v", err)
	}

	fmt.Println("Demo data seeded successfully!")
}

func firstOrCreateUser(user *models.User) error {
	return storage.DB.Where("username = ?", user.Username).FirstOrCreate(user).Error
}
