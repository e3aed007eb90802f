package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"influencia-server/models"
	"influencia-server/storage"
)

func TestCreateCampaignDateWarning(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	campaigns := NewCampaignService(db, cache)

	sponsorUser, _ := seedSponsor(t, db, "acme", true)

	result, err := campaigns.Create(context.Background(), sponsorUser.ID, CampaignInput{
		Name:        "backwards",
		Description: "ends before it starts",
		StartDate:   "2026-06-01",
		EndDate:     "2026-05-01",
		Budget:      100,
	})
	if err != nil {
		t.Fatalf("an inverted range is stored, not refused: %v", err)
	}
	if result.Warning == "" {
		t.Fatalf("expected a date-range warning")
	}
	if result.Campaign.EndDate.After(result.Campaign.StartDate) {
		t.Fatalf("dates were stored differently from the input")
	}
}

func TestCreateCampaignBadVisibility(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	campaigns := NewCampaignService(db, cache)

	sponsorUser, _ := seedSponsor(t, db, "acme", true)

	_, err := campaigns.Create(context.Background(), sponsorUser.ID, CampaignInput{
		Name:        "bad",
		Description: "x",
		StartDate:   "2026-05-01",
		EndDate:     "2026-06-01",
		Visibility:  "hidden",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateCampaignOwnership(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	campaigns := NewCampaignService(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	otherUser, _ := seedSponsor(t, db, "rival", true)
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	_, err := campaigns.Update(context.Background(), otherUser.ID, campaign.ID, CampaignInput{
		Name:        "hijacked",
		Description: "x",
		StartDate:   "2026-05-01",
		EndDate:     "2026-06-01",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestExportCSVColumns(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	campaigns := NewCampaignService(db, cache)

	sponsorUser, sponsor := seedSponsor(t, db, "acme", true)
	seedCampaign(t, db, sponsor.ID, "launch")

	out, err := campaigns.ExportCSV(context.Background(), sponsorUser.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Name,Description,Niche,Budget") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "launch") {
		t.Fatalf("expected campaign row, got %q", lines[1])
	}
}

func TestDeleteCampaignDropsAdRequestCaches(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	campaigns := NewCampaignService(db, cache)
	lifecycle := NewLifecycle(db, cache)
	ctx := context.Background()

	sponsorUser, sponsor := seedSponsor(t, db, "acme", true)
	_, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(ctx, CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID, PaymentAmount: 500,
	})
	if err != nil {
		t.Fatalf("create ad request: %v", err)
	}

	cache.Put(ctx, storage.PublicAdRequestsKey(), []byte("listing"), 0)
	cache.Put(ctx, storage.AdRequestKey(created.ID), []byte("detail"), 0)

	if err := campaigns.Delete(ctx, sponsorUser.ID, campaign.ID); err != nil {
		t.Fatalf("delete campaign: %v", err)
	}

	if _, ok := cache.Get(ctx, storage.PublicAdRequestsKey()); ok {
		t.Fatalf("public ad-request listing still cached after its rows were deleted")
	}
	if _, ok := cache.Get(ctx, storage.AdRequestKey(created.ID)); ok {
		t.Fatalf("per-request cache for deleted ad request %d still present", created.ID)
	}
}

func TestUpdateCampaignVisibilityDropsAdminDashboard(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	campaigns := NewCampaignService(db, cache)
	ctx := context.Background()

	sponsorUser, sponsor := seedSponsor(t, db, "acme", true)
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	cache.Put(ctx, storage.AdminDashboardKey(), []byte("counters"), 0)

	// public -> private changes the visibility counters behind the admin
	// dashboard.
	_, err := campaigns.Update(ctx, sponsorUser.ID, campaign.ID, CampaignInput{
		Name:        campaign.Name,
		Description: campaign.Description,
		StartDate:   campaign.StartDate.Format("2006-01-02"),
		EndDate:     campaign.EndDate.Format("2006-01-02"),
		Budget:      campaign.Budget,
		Visibility:  models.VisibilityPrivate,
		Goals:       campaign.Goals,
		Niche:       campaign.Niche,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, ok := cache.Get(ctx, storage.AdminDashboardKey()); ok {
		t.Fatalf("admin dashboard still cached after a visibility flip changed its counters")
	}
}

func TestPublicCampaignsFiltersPrivate(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	campaigns := NewCampaignService(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	seedCampaign(t, db, sponsor.ID, "visible")
	private := seedCampaign(t, db, sponsor.ID, "hidden")
	db.Model(private).Update("visibility", models.VisibilityPrivate)

	payload, err := campaigns.PublicCampaigns(context.Background())
	if err != nil {
		t.Fatalf("public campaigns: %v", err)
	}
	if !strings.Contains(string(payload), "visible") {
		t.Fatalf("expected public campaign in payload")
	}
	if strings.Contains(string(payload), "hidden") {
		t.Fatalf("private campaign leaked into the public listing")
	}
}
