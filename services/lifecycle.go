package services

import (
	"context"
	"encoding/json"
	"fmt"

	"influencia-server/models"
	"influencia-server/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lifecycle drives an ad request through its states and keeps the cached
// views behind it honest. It owns no globals: the store and the cache are
// handed in once and every operation runs against them.
//
// Status machine: pending -> negotiation (explicit), pending/negotiation ->
// accepted|rejected. Update replaces the row wholesale and may write any of
// the four known statuses verbatim; that full-replacement escape hatch is
// kept on purpose, only unknown strings are refused.
type Lifecycle struct {
	db    *gorm.DB
	cache *storage.Cache
}

func NewLifecycle(db *gorm.DB, cache *storage.Cache) *Lifecycle {
	return &Lifecycle{db: db, cache: cache}
}

type CreateAdRequestInput struct {
	CampaignID    uint    `json:"campaign_id" validate:"required"`
	InfluencerID  uint    `json:"influencer_id" validate:"required"`
	Requirements  string  `json:"requirements"`
	PaymentAmount float64 `json:"payment_amount" validate:"gte=0"`
	Messages      string  `json:"messages"`
}

type UpdateAdRequestInput struct {
	CampaignID    uint    `json:"campaign_id" validate:"required"`
	InfluencerID  uint    `json:"influencer_id" validate:"required"`
	Requirements  string  `json:"requirements"`
	PaymentAmount float64 `json:"payment_amount" validate:"gte=0"`
	Status        string  `json:"status" validate:"required"`
	Messages      string  `json:"messages"`
}

// lockRows takes a FOR UPDATE lock where the dialect has one. The sqlite
// test stores serialize writers on the database lock instead, which gives
// the same last-write-wins outcome.
func lockRows(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Create opens a new ad request with status pending. Both referenced rows
// must exist; the checks and the insert share one transaction.
func (l *Lifecycle) Create(ctx context.Context, in CreateAdRequestInput) (*models.AdRequest, error) {
	var created models.AdRequest
	var sponsorID uint

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign models.Campaign
		if err := tx.First(&campaign, in.CampaignID).Error; err != nil {
			return fmt.Errorf("campaign %d: %w", in.CampaignID, ErrNotFound)
		}
		var influencer models.Influencer
		if err := tx.First(&influencer, in.InfluencerID).Error; err != nil {
			return fmt.Errorf("influencer %d: %w", in.InfluencerID, ErrNotFound)
		}
		sponsorID = campaign.SponsorID

		created = models.AdRequest{
			CampaignID:    in.CampaignID,
			InfluencerID:  in.InfluencerID,
			Requirements:  in.Requirements,
			PaymentAmount: in.PaymentAmount,
			Status:        models.StatusPending,
			Messages:      in.Messages,
		}
		return translateDB(tx.Create(&created).Error)
	})
	if err != nil {
		return nil, err
	}

	l.cache.Invalidate(ctx,
		storage.CampaignAdRequestsKey(in.CampaignID),
		storage.SponsorDashboardKey(sponsorID),
		storage.AdminDashboardKey(),
		storage.PublicAdRequestsKey(),
	)
	return &created, nil
}

// ProposeNegotiation records a counter-offer round against the ad request.
// Only the influencer the request targets may raise one. The parent status
// is left alone; callers that want the request marked as negotiating follow
// up with MarkNegotiating.
func (l *Lifecycle) ProposeNegotiation(ctx context.Context, adRequestID, actorUserID uint, proposedAmount float64) (*models.Negotiation, error) {
	var negotiation models.Negotiation
	var campaignID uint

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adRequest models.AdRequest
		if err := tx.First(&adRequest, adRequestID).Error; err != nil {
			return fmt.Errorf("ad request %d: %w", adRequestID, ErrNotFound)
		}
		campaignID = adRequest.CampaignID

		var influencer models.Influencer
		if err := tx.First(&influencer, adRequest.InfluencerID).Error; err != nil {
			return fmt.Errorf("influencer %d: %w", adRequest.InfluencerID, ErrNotFound)
		}
		if influencer.UserID != actorUserID {
			return fmt.Errorf("ad request %d does not target user %d: %w", adRequestID, actorUserID, ErrUnauthorized)
		}

		negotiation = models.Negotiation{
			AdRequestID:           adRequestID,
			InfluencerID:          adRequest.InfluencerID,
			ProposedPaymentAmount: proposedAmount,
			NegotiationStatus:     models.StatusPending,
		}
		return translateDB(tx.Create(&negotiation).Error)
	})
	if err != nil {
		return nil, err
	}

	l.cache.Invalidate(ctx,
		storage.CampaignAdRequestsKey(campaignID),
		storage.AdRequestKey(adRequestID),
	)
	return &negotiation, nil
}

// MarkNegotiating moves a pending ad request into the negotiation state.
// Terminal requests stay terminal.
func (l *Lifecycle) MarkNegotiating(ctx context.Context, adRequestID uint) error {
	var adRequest models.AdRequest

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRows(tx).First(&adRequest, adRequestID).Error; err != nil {
			return fmt.Errorf("ad request %d: %w", adRequestID, ErrNotFound)
		}
		if adRequest.Status != models.StatusPending {
			return fmt.Errorf("cannot negotiate a %s ad request: %w", adRequest.Status, ErrValidation)
		}
		return tx.Model(&adRequest).Update("status", models.StatusNegotiation).Error
	})
	if err != nil {
		return err
	}

	l.invalidateForAdRequest(ctx, &adRequest)
	return nil
}

// Respond lets the sponsor that owns the campaign accept or reject the ad
// request. Concurrent responses serialize on the row; the later one wins.
func (l *Lifecycle) Respond(ctx context.Context, adRequestID, actorUserID uint, decision string) (*models.AdRequest, error) {
	if decision != models.StatusAccepted && decision != models.StatusRejected {
		return nil, fmt.Errorf("decision %q: %w", decision, ErrValidation)
	}

	var adRequest models.AdRequest
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRows(tx).First(&adRequest, adRequestID).Error; err != nil {
			return fmt.Errorf("ad request %d: %w", adRequestID, ErrNotFound)
		}

		var sponsor models.Sponsor
		if err := tx.Where("user_id = ?", actorUserID).First(&sponsor).Error; err != nil {
			return fmt.Errorf("no sponsor for user %d: %w", actorUserID, ErrUnauthorized)
		}
		var campaign models.Campaign
		if err := tx.First(&campaign, adRequest.CampaignID).Error; err != nil {
			return fmt.Errorf("campaign %d: %w", adRequest.CampaignID, ErrNotFound)
		}
		if campaign.SponsorID != sponsor.ID {
			return fmt.Errorf("campaign %d is not owned by sponsor %d: %w", campaign.ID, sponsor.ID, ErrUnauthorized)
		}

		adRequest.Status = decision
		return tx.Model(&adRequest).Update("status", decision).Error
	})
	if err != nil {
		return nil, err
	}

	l.invalidateForAdRequest(ctx, &adRequest)
	return &adRequest, nil
}

// RespondAsInfluencer lets the targeted influencer accept or reject the
// offer addressed to them.
func (l *Lifecycle) RespondAsInfluencer(ctx context.Context, adRequestID, actorUserID uint, decision string) (*models.AdRequest, error) {
	if decision != models.StatusAccepted && decision != models.StatusRejected {
		return nil, fmt.Errorf("decision %q: %w", decision, ErrValidation)
	}

	var adRequest models.AdRequest
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRows(tx).First(&adRequest, adRequestID).Error; err != nil {
			return fmt.Errorf("ad request %d: %w", adRequestID, ErrNotFound)
		}
		var influencer models.Influencer
		if err := tx.First(&influencer, adRequest.InfluencerID).Error; err != nil {
			return fmt.Errorf("influencer %d: %w", adRequest.InfluencerID, ErrNotFound)
		}
		if influencer.UserID != actorUserID {
			return fmt.Errorf("ad request %d does not target user %d: %w", adRequestID, actorUserID, ErrUnauthorized)
		}

		adRequest.Status = decision
		return tx.Model(&adRequest).Update("status", decision).Error
	})
	if err != nil {
		return nil, err
	}

	l.invalidateForAdRequest(ctx, &adRequest)
	return &adRequest, nil
}

// SetNegotiationStatus closes (or reopens to pending) one negotiation
// round. The round and the parent ad request stay independent: nothing here
// writes AdRequest.Status. Only the campaign's sponsor or the targeted
// influencer may act.
func (l *Lifecycle) SetNegotiationStatus(ctx context.Context, negotiationID, actorUserID uint, decision string) (*models.Negotiation, error) {
	if !models.ValidNegotiationStatus(decision) {
		return nil, fmt.Errorf("negotiation status %q: %w", decision, ErrValidation)
	}

	var negotiation models.Negotiation
	var campaignID uint
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRows(tx).First(&negotiation, negotiationID).Error; err != nil {
			return fmt.Errorf("negotiation %d: %w", negotiationID, ErrNotFound)
		}
		var adRequest models.AdRequest
		if err := tx.First(&adRequest, negotiation.AdRequestID).Error; err != nil {
			return fmt.Errorf("ad request %d: %w", negotiation.AdRequestID, ErrNotFound)
		}
		campaignID = adRequest.CampaignID

		allowed := false
		var influencer models.Influencer
		if err := tx.First(&influencer, negotiation.InfluencerID).Error; err == nil && influencer.UserID == actorUserID {
			allowed = true
		}
		if !allowed {
			var campaign models.Campaign
			if err := tx.First(&campaign, adRequest.CampaignID).Error; err == nil {
				var sponsor models.Sponsor
				if err := tx.First(&sponsor, campaign.SponsorID).Error; err == nil && sponsor.UserID == actorUserID {
					allowed = true
				}
			}
		}
		if !allowed {
			return fmt.Errorf("negotiation %d: %w", negotiationID, ErrUnauthorized)
		}

		negotiation.NegotiationStatus = decision
		return tx.Model(&negotiation).Update("negotiation_status", decision).Error
	})
	if err != nil {
		return nil, err
	}

	l.cache.Invalidate(ctx,
		storage.CampaignAdRequestsKey(campaignID),
		storage.AdRequestKey(negotiation.AdRequestID),
	)
	return &negotiation, nil
}

// Update replaces every mutable field of the ad request in one transaction.
// The status is written verbatim as long as it is one of the four known
// values; re-pointing the request at a missing campaign or influencer is a
// referential error.
func (l *Lifecycle) Update(ctx context.Context, adRequestID uint, in UpdateAdRequestInput) (*models.AdRequest, error) {
	if !models.ValidAdRequestStatus(in.Status) {
		return nil, fmt.Errorf("status %q: %w", in.Status, ErrValidation)
	}

	var adRequest models.AdRequest
	var oldCampaignID uint
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRows(tx).First(&adRequest, adRequestID).Error; err != nil {
			return fmt.Errorf("ad request %d: %w", adRequestID, ErrNotFound)
		}
		oldCampaignID = adRequest.CampaignID

		var campaign models.Campaign
		if err := tx.First(&campaign, in.CampaignID).Error; err != nil {
			return fmt.Errorf("campaign %d: %w", in.CampaignID, ErrReferential)
		}
		var influencer models.Influencer
		if err := tx.First(&influencer, in.InfluencerID).Error; err != nil {
			return fmt.Errorf("influencer %d: %w", in.InfluencerID, ErrReferential)
		}

		adRequest.CampaignID = in.CampaignID
		adRequest.InfluencerID = in.InfluencerID
		adRequest.Requirements = in.Requirements
		adRequest.PaymentAmount = in.PaymentAmount
		adRequest.Status = in.Status
		adRequest.Messages = in.Messages
		return translateDB(tx.Save(&adRequest).Error)
	})
	if err != nil {
		return nil, err
	}

	l.invalidateForAdRequest(ctx, &adRequest)
	if oldCampaignID != adRequest.CampaignID {
		l.cache.Invalidate(ctx, storage.CampaignAdRequestsKey(oldCampaignID))
	}
	return &adRequest, nil
}

// Delete removes the ad request and its negotiation rounds atomically.
func (l *Lifecycle) Delete(ctx context.Context, adRequestID uint) error {
	var adRequest models.AdRequest

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&adRequest, adRequestID).Error; err != nil {
			return fmt.Errorf("ad request %d: %w", adRequestID, ErrNotFound)
		}
		if err := tx.Where("ad_request_id = ?", adRequestID).Delete(&models.Negotiation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&adRequest).Error
	})
	if err != nil {
		return err
	}

	l.invalidateForAdRequest(ctx, &adRequest)
	return nil
}

// Get returns one ad request.
func (l *Lifecycle) Get(ctx context.Context, adRequestID uint) (*models.AdRequest, error) {
	var adRequest models.AdRequest
	if err := l.db.WithContext(ctx).First(&adRequest, adRequestID).Error; err != nil {
		return nil, fmt.Errorf("ad request %d: %w", adRequestID, ErrNotFound)
	}
	return &adRequest, nil
}

// ForInfluencerUser lists the ad requests that target the influencer owned
// by the given user.
func (l *Lifecycle) ForInfluencerUser(ctx context.Context, actorUserID uint) ([]map[string]interface{}, error) {
	var influencer models.Influencer
	if err := l.db.WithContext(ctx).Where("user_id = ?", actorUserID).First(&influencer).Error; err != nil {
		return nil, fmt.Errorf("influencer for user %d: %w", actorUserID, ErrNotFound)
	}

	var adRequests []models.AdRequest
	if err := l.db.WithContext(ctx).Preload("Campaign").
		Where("influencer_id = ?", influencer.ID).Find(&adRequests).Error; err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(adRequests))
	for i := range adRequests {
		row := adRequests[i].Serialize()
		row["campaign"] = adRequests[i].Campaign.Serialize()
		rows = append(rows, row)
	}
	return rows, nil
}

// NegotiationsForSponsorUser lists every negotiation round on the sponsor's
// campaigns.
func (l *Lifecycle) NegotiationsForSponsorUser(ctx context.Context, actorUserID uint) ([]map[string]interface{}, error) {
	var sponsor models.Sponsor
	if err := l.db.WithContext(ctx).Where("user_id = ?", actorUserID).First(&sponsor).Error; err != nil {
		return nil, fmt.Errorf("sponsor for user %d: %w", actorUserID, ErrNotFound)
	}

	var negotiations []models.Negotiation
	err := l.db.WithContext(ctx).
		Joins("JOIN ad_requests ON ad_requests.id = negotiations.ad_request_id").
		Joins("JOIN campaigns ON campaigns.id = ad_requests.campaign_id").
		Where("campaigns.sponsor_id = ?", sponsor.ID).
		Find(&negotiations).Error
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(negotiations))
	for i := range negotiations {
		rows = append(rows, negotiations[i].Serialize())
	}
	return rows, nil
}

// JoinedView renders the campaign's ad requests joined with influencer,
// campaign, sponsor and the latest negotiation round (null fields when no
// round exists). The rendered payload is cached per campaign.
func (l *Lifecycle) JoinedView(ctx context.Context, campaignID uint) ([]byte, error) {
	key := storage.CampaignAdRequestsKey(campaignID)
	if payload, ok := l.cache.Get(ctx, key); ok {
		return payload, nil
	}

	var adRequests []models.AdRequest
	err := l.db.WithContext(ctx).
		Preload("Influencer").
		Preload("Campaign").
		Preload("Campaign.Sponsor").
		Where("campaign_id = ?", campaignID).
		Find(&adRequests).Error
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(adRequests))
	for i := range adRequests {
		ar := &adRequests[i]
		row := ar.Serialize()
		row["influencer"] = ar.Influencer.Serialize()
		row["campaign"] = ar.Campaign.Serialize()
		row["sponsor"] = ar.Campaign.Sponsor.Serialize()

		var latest models.Negotiation
		negErr := l.db.WithContext(ctx).
			Where("ad_request_id = ?", ar.ID).
			Order("id DESC").
			First(&latest).Error
		if negErr == nil {
			row["negotiation"] = map[string]interface{}{
				"negotiation_id":     latest.ID,
				"negotiation_status": latest.NegotiationStatus,
				"negotiated_amount":  latest.ProposedPaymentAmount,
			}
		} else {
			row["negotiation"] = map[string]interface{}{
				"negotiation_id":     nil,
				"negotiation_status": nil,
				"negotiated_amount":  nil,
			}
		}
		rows = append(rows, row)
	}

	payload, err := json.Marshal(map[string]interface{}{"adrequests": rows})
	if err != nil {
		return nil, err
	}
	l.cache.Put(ctx, key, payload, storage.DefaultTTL)
	return payload, nil
}

func (l *Lifecycle) invalidateForAdRequest(ctx context.Context, adRequest *models.AdRequest) {
	keys := []string{
		storage.CampaignAdRequestsKey(adRequest.CampaignID),
		storage.AdRequestKey(adRequest.ID),
		storage.AdminDashboardKey(),
		storage.PublicAdRequestsKey(),
	}
	var campaign models.Campaign
	if err := l.db.WithContext(ctx).First(&campaign, adRequest.CampaignID).Error; err == nil {
		keys = append(keys, storage.SponsorDashboardKey(campaign.SponsorID))
	}
	l.cache.Invalidate(ctx, keys...)
}
