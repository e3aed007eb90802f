package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"influencia-server/models"
)

func TestCreateAdRequestStartsPending(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	_, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID:    campaign.ID,
		InfluencerID:  influencer.ID,
		Requirements:  "two posts",
		PaymentAmount: 500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != models.StatusPending {
		t.Fatalf("expected pending status, got %q", created.Status)
	}
}

func TestCreateAdRequestMissingCampaign(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, influencer := seedInfluencer(t, db, "creator")

	_, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID:   9999,
		InfluencerID: influencer.ID,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRespondLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	sponsorUser, sponsor := seedSponsor(t, db, "acme", true)
	_, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID, PaymentAmount: 500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := lifecycle.Respond(context.Background(), created.ID, sponsorUser.ID, models.StatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := lifecycle.Respond(context.Background(), created.ID, sponsorUser.ID, models.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	got, err := lifecycle.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusRejected {
		t.Fatalf("expected later response to win, got %q", got.Status)
	}
}

func TestRespondRequiresOwningSponsor(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	otherUser, _ := seedSponsor(t, db, "rival", true)
	_, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = lifecycle.Respond(context.Background(), created.ID, otherUser.ID, models.StatusAccepted)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign sponsor, got %v", err)
	}
}

func TestMarkNegotiatingOnlyFromPending(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	sponsorUser, sponsor := seedSponsor(t, db, "acme", true)
	_, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := lifecycle.MarkNegotiating(context.Background(), created.ID); err != nil {
		t.Fatalf("pending -> negotiation: %v", err)
	}

	if _, err := lifecycle.Respond(context.Background(), created.ID, sponsorUser.ID, models.StatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	err = lifecycle.MarkNegotiating(context.Background(), created.ID)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation on accepted request, got %v", err)
	}
}

func TestNegotiationStatusLeavesParentAlone(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	influencerUser, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID, PaymentAmount: 500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	negotiation, err := lifecycle.ProposeNegotiation(context.Background(), created.ID, influencerUser.ID, 800)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := lifecycle.MarkNegotiating(context.Background(), created.ID); err != nil {
		t.Fatalf("mark negotiating: %v", err)
	}

	if _, err := lifecycle.SetNegotiationStatus(context.Background(), negotiation.ID, influencerUser.ID, models.StatusAccepted); err != nil {
		t.Fatalf("close round: %v", err)
	}

	got, err := lifecycle.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusNegotiation {
		t.Fatalf("closing a round must not touch the parent status, got %q", got.Status)
	}
}

func TestProposeNegotiationMissingAdRequest(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, err := lifecycle.ProposeNegotiation(context.Background(), 42, 1, 100)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProposeNegotiationRequiresTargetInfluencer(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	_, influencer := seedInfluencer(t, db, "creator")
	otherUser, _ := seedInfluencer(t, db, "bystander")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID, PaymentAmount: 500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = lifecycle.ProposeNegotiation(context.Background(), created.ID, otherUser.ID, 800)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a non-targeted influencer, got %v", err)
	}

	var rounds int64
	db.Model(&models.Negotiation{}).Where("ad_request_id = ?", created.ID).Count(&rounds)
	if rounds != 0 {
		t.Fatalf("expected no round recorded for the refused offer, got %d", rounds)
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	_, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = lifecycle.Update(context.Background(), created.ID, UpdateAdRequestInput{
		CampaignID:   campaign.ID,
		InfluencerID: influencer.ID,
		Status:       "escalated",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown status, got %v", err)
	}
}

func TestUpdateMissingReferenceIsReferential(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	_, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = lifecycle.Update(context.Background(), created.ID, UpdateAdRequestInput{
		CampaignID:   9999,
		InfluencerID: influencer.ID,
		Status:       models.StatusPending,
	})
	if !errors.Is(err, ErrReferential) {
		t.Fatalf("expected ErrReferential, got %v", err)
	}
}

func TestCampaignDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)
	campaigns := NewCampaignService(db, cache)

	sponsorUser, sponsor := seedSponsor(t, db, "acme", true)
	influencerUser, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	created, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID,
	})
	if err != nil {
		t.Fatalf("create ad request: %v", err)
	}
	if _, err := lifecycle.ProposeNegotiation(context.Background(), created.ID, influencerUser.ID, 700); err != nil {
		t.Fatalf("propose: %v", err)
	}

	if err := campaigns.Delete(context.Background(), sponsorUser.ID, campaign.ID); err != nil {
		t.Fatalf("delete campaign: %v", err)
	}

	var adRequests, negotiations int64
	db.Model(&models.AdRequest{}).Where("campaign_id = ?", campaign.ID).Count(&adRequests)
	db.Model(&models.Negotiation{}).Where("ad_request_id = ?", created.ID).Count(&negotiations)
	if adRequests != 0 || negotiations != 0 {
		t.Fatalf("expected no surviving children, got %d ad requests and %d negotiations", adRequests, negotiations)
	}
}

func TestJoinedViewNegotiationFields(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	influencerUser, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	withRound, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID, PaymentAmount: 500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := lifecycle.ProposeNegotiation(context.Background(), withRound.ID, influencerUser.ID, 800); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID, PaymentAmount: 300,
	}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	payload, err := lifecycle.JoinedView(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("joined view: %v", err)
	}

	var view struct {
		AdRequests []map[string]interface{} `json:"adrequests"`
	}
	if err := json.Unmarshal(payload, &view); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	if len(view.AdRequests) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(view.AdRequests))
	}

	for _, row := range view.AdRequests {
		negotiation, ok := row["negotiation"].(map[string]interface{})
		if !ok {
			t.Fatalf("missing negotiation block in %v", row)
		}
		id := uint(row["ad_request_id"].(float64))
		if id == withRound.ID {
			if negotiation["negotiated_amount"] != float64(800) {
				t.Fatalf("expected negotiated amount 800, got %v", negotiation["negotiated_amount"])
			}
		} else {
			if negotiation["negotiation_id"] != nil {
				t.Fatalf("expected null negotiation fields, got %v", negotiation)
			}
		}
	}
}

func TestJoinedViewServedFromCache(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	lifecycle := NewLifecycle(db, cache)

	_, sponsor := seedSponsor(t, db, "acme", true)
	_, influencer := seedInfluencer(t, db, "creator")
	campaign := seedCampaign(t, db, sponsor.ID, "launch")

	if _, err := lifecycle.Create(context.Background(), CreateAdRequestInput{
		CampaignID: campaign.ID, InfluencerID: influencer.ID,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := lifecycle.JoinedView(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	// A raw row write bypasses invalidation, so the stale payload must
	// keep being served until the key expires or a real write clears it.
	db.Model(&models.AdRequest{}).Where("campaign_id = ?", campaign.ID).Update("messages", "changed behind the cache")

	second, err := lifecycle.JoinedView(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected cached payload to be reused")
	}
}
