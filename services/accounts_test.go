package services

import (
	"context"
	"errors"
	"testing"

	"influencia-server/models"
)

func TestRegisterSponsorDuplicateConflict(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	accounts := NewAccountService(db, cache)

	in := RegisterSponsorInput{
		Username:    "acme",
		Password:    "secret123",
		Email:       "acme@test.dev",
		CompanyName: "Acme",
	}
	if _, err := accounts.RegisterSponsor(context.Background(), in); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	_, err := accounts.RegisterSponsor(context.Background(), in)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The failed attempt must leave nothing behind.
	var users, sponsors int64
	db.Model(&models.User{}).Where("username = ?", "acme").Count(&users)
	db.Model(&models.Sponsor{}).Count(&sponsors)
	if users != 1 || sponsors != 1 {
		t.Fatalf("expected exactly one user and one sponsor, got %d and %d", users, sponsors)
	}
}

func TestDuplicateEmailAcrossRoles(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	accounts := NewAccountService(db, cache)

	if _, err := accounts.RegisterSponsor(context.Background(), RegisterSponsorInput{
		Username: "acme", Password: "secret123", Email: "shared@test.dev",
	}); err != nil {
		t.Fatalf("sponsor registration: %v", err)
	}

	_, err := accounts.RegisterInfluencer(context.Background(), RegisterInfluencerInput{
		Username: "creator", Password: "secret123", Email: "shared@test.dev",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on shared email, got %v", err)
	}

	var influencers int64
	db.Model(&models.Influencer{}).Count(&influencers)
	if influencers != 0 {
		t.Fatalf("expected no influencer row after failed registration, got %d", influencers)
	}
}

func TestUnapprovedSponsorCannotLogin(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	accounts := NewAccountService(db, cache)

	sponsor, err := accounts.RegisterSponsor(context.Background(), RegisterSponsorInput{
		Username: "acme", Password: "secret123", Email: "acme@test.dev",
	})
	if err != nil {
		t.Fatalf("registration: %v", err)
	}

	_, err = accounts.Login(context.Background(), "acme", "secret123")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unapproved sponsor to be refused, got %v", err)
	}

	if err := accounts.ApproveSponsor(context.Background(), sponsor.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	user, err := accounts.Login(context.Background(), "acme", "secret123")
	if err != nil {
		t.Fatalf("login after approval: %v", err)
	}
	if user.LoginDate == nil {
		t.Fatalf("expected login date to be stamped")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	accounts := NewAccountService(db, cache)

	if _, err := accounts.RegisterAdmin(context.Background(), RegisterAdminInput{
		Username: "root", Password: "secret123", Email: "root@test.dev",
	}); err != nil {
		t.Fatalf("registration: %v", err)
	}

	_, err := accounts.Login(context.Background(), "root", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRejectSponsorKeepsUser(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	accounts := NewAccountService(db, cache)

	sponsor, err := accounts.RegisterSponsor(context.Background(), RegisterSponsorInput{
		Username: "acme", Password: "secret123", Email: "acme@test.dev",
	})
	if err != nil {
		t.Fatalf("registration: %v", err)
	}

	if err := accounts.RejectSponsor(context.Background(), sponsor.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	var sponsors, users int64
	db.Model(&models.Sponsor{}).Count(&sponsors)
	db.Model(&models.User{}).Where("username = ?", "acme").Count(&users)
	if sponsors != 0 {
		t.Fatalf("expected sponsor row removed, got %d", sponsors)
	}
	if users != 1 {
		t.Fatalf("expected user row to survive rejection, got %d", users)
	}
}

func TestFlagInfluencerOnce(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	accounts := NewAccountService(db, cache)

	sponsorUser, _ := seedSponsor(t, db, "acme", true)
	_, influencer := seedInfluencer(t, db, "creator")

	if err := accounts.FlagInfluencer(context.Background(), sponsorUser.ID, influencer.ID, "spam"); err != nil {
		t.Fatalf("first flag: %v", err)
	}
	err := accounts.FlagInfluencer(context.Background(), sponsorUser.ID, influencer.ID, "spam again")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on repeat flag, got %v", err)
	}
}

func TestFlagCampaignOwnership(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	accounts := NewAccountService(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	otherUser, _ := seedSponsor(t, db, "rival", true)
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	err := accounts.FlagCampaign(context.Background(), otherUser.ID, campaign.ID, "not mine", true)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign campaign, got %v", err)
	}

	// Admins flag without the ownership check.
	if err := accounts.FlagCampaign(context.Background(), otherUser.ID, campaign.ID, "admin review", false); err != nil {
		t.Fatalf("admin flag: %v", err)
	}
}
