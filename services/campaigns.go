package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"influencia-server/models"
	"influencia-server/storage"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// CampaignService owns campaign CRUD for sponsors plus the cached views
// derived from campaigns (sponsor dashboard, public listings, CSV export).
type CampaignService struct {
	db    *gorm.DB
	cache *storage.Cache
}

func NewCampaignService(db *gorm.DB, cache *storage.Cache) *CampaignService {
	return &CampaignService{db: db, cache: cache}
}

type CampaignInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	StartDate   string  `json:"startDate" validate:"required"`
	EndDate     string  `json:"endDate" validate:"required"`
	Budget      float64 `json:"budget" validate:"gte=0"`
	Visibility  string  `json:"visibility"`
	Goals       string  `json:"goals"`
	Niche       string  `json:"niche"`
}

// CampaignResult carries the row plus the soft date-range warning. The
// range is reported, never enforced: a campaign whose end precedes its
// start is stored as given.
type CampaignResult struct {
	Campaign *models.Campaign
	Warning  string
}

func (s *CampaignService) sponsorForUser(ctx context.Context, userID uint) (*models.Sponsor, error) {
	var sponsor models.Sponsor
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sponsor).Error; err != nil {
		return nil, fmt.Errorf("sponsor for user %d: %w", userID, ErrNotFound)
	}
	return &sponsor, nil
}

func parseCampaignDates(in CampaignInput) (start, end time.Time, warning string, err error) {
	start, err = time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return start, end, "", fmt.Errorf("start date %q: %w", in.StartDate, ErrValidation)
	}
	end, err = time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return start, end, "", fmt.Errorf("end date %q: %w", in.EndDate, ErrValidation)
	}
	if end.Before(start) {
		warning = "end date is before start date"
	}
	if in.Visibility != "" && !models.ValidVisibility(in.Visibility) {
		return start, end, "", fmt.Errorf("visibility %q: %w", in.Visibility, ErrValidation)
	}
	return start, end, warning, nil
}

func (s *CampaignService) Create(ctx context.Context, actorUserID uint, in CampaignInput) (*CampaignResult, error) {
	sponsor, err := s.sponsorForUser(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	start, end, warning, err := parseCampaignDates(in)
	if err != nil {
		return nil, err
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	campaign := models.Campaign{
		SponsorID:   sponsor.ID,
		Name:        in.Name,
		Description: in.Description,
		StartDate:   start,
		EndDate:     end,
		Budget:      in.Budget,
		Visibility:  visibility,
		Goals:       in.Goals,
		Niche:       in.Niche,
	}
	if err := translateDB(s.db.WithContext(ctx).Create(&campaign).Error); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx,
		storage.SponsorDashboardKey(sponsor.ID),
		storage.PublicCampaignsKey(),
		storage.PublicAllCampaignsKey(),
		storage.AdminDashboardKey(),
	)
	return &CampaignResult{Campaign: &campaign, Warning: warning}, nil
}

func (s *CampaignService) Get(ctx context.Context, campaignID uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.WithContext(ctx).First(&campaign, campaignID).Error; err != nil {
		return nil, fmt.Errorf("campaign %d: %w", campaignID, ErrNotFound)
	}
	return &campaign, nil
}

func (s *CampaignService) Update(ctx context.Context, actorUserID, campaignID uint, in CampaignInput) (*CampaignResult, error) {
	sponsor, err := s.sponsorForUser(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	start, end, warning, err := parseCampaignDates(in)
	if err != nil {
		return nil, err
	}

	var campaign models.Campaign
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRows(tx).First(&campaign, campaignID).Error; err != nil {
			return fmt.Errorf("campaign %d: %w", campaignID, ErrNotFound)
		}
		if campaign.SponsorID != sponsor.ID {
			return fmt.Errorf("campaign %d is not owned by sponsor %d: %w", campaignID, sponsor.ID, ErrUnauthorized)
		}

		campaign.Name = in.Name
		campaign.Description = in.Description
		campaign.StartDate = start
		campaign.EndDate = end
		campaign.Budget = in.Budget
		if in.Visibility != "" {
			campaign.Visibility = in.Visibility
		}
		campaign.Goals = in.Goals
		campaign.Niche = in.Niche
		return translateDB(tx.Save(&campaign).Error)
	})
	if err != nil {
		return nil, err
	}

	// A visibility flip moves the campaign between the public/private
	// counters on the admin dashboard.
	s.cache.Invalidate(ctx,
		storage.SponsorDashboardKey(sponsor.ID),
		storage.CampaignDetailKey(campaignID),
		storage.PublicCampaignsKey(),
		storage.PublicAllCampaignsKey(),
		storage.AdminDashboardKey(),
	)
	return &CampaignResult{Campaign: &campaign, Warning: warning}, nil
}

// Delete removes the campaign and everything hanging off it: ad requests,
// their negotiations, and campaign flags, all in one transaction.
func (s *CampaignService) Delete(ctx context.Context, actorUserID, campaignID uint) error {
	sponsor, err := s.sponsorForUser(ctx, actorUserID)
	if err != nil {
		return err
	}

	var adRequestIDs []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign models.Campaign
		if err := tx.First(&campaign, campaignID).Error; err != nil {
			return fmt.Errorf("campaign %d: %w", campaignID, ErrNotFound)
		}
		if campaign.SponsorID != sponsor.ID {
			return fmt.Errorf("campaign %d is not owned by sponsor %d: %w", campaignID, sponsor.ID, ErrUnauthorized)
		}

		// The cascaded ad requests have cached views of their own; remember
		// them so the invalidation below can cover each one.
		if err := tx.Model(&models.AdRequest{}).Where("campaign_id = ?", campaignID).
			Pluck("id", &adRequestIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("ad_request_id IN (?)",
			tx.Model(&models.AdRequest{}).Select("id").Where("campaign_id = ?", campaignID),
		).Delete(&models.Negotiation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", campaignID).Delete(&models.AdRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", campaignID).Delete(&models.CampaignFlag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&campaign).Error
	})
	if err != nil {
		return err
	}

	keys := []string{
		storage.SponsorDashboardKey(sponsor.ID),
		storage.CampaignDetailKey(campaignID),
		storage.CampaignAdRequestsKey(campaignID),
		storage.PublicCampaignsKey(),
		storage.PublicAllCampaignsKey(),
		storage.AdminDashboardKey(),
	}
	if len(adRequestIDs) > 0 {
		keys = append(keys, storage.PublicAdRequestsKey())
		for _, id := range adRequestIDs {
			keys = append(keys, storage.AdRequestKey(id))
		}
	}
	s.cache.Invalidate(ctx, keys...)
	return nil
}

// Dashboard renders the sponsor's campaign list, cached per sponsor.
func (s *CampaignService) Dashboard(ctx context.Context, actorUserID uint) ([]byte, error) {
	sponsor, err := s.sponsorForUser(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	key := storage.SponsorDashboardKey(sponsor.ID)
	if payload, ok := s.cache.Get(ctx, key); ok {
		return payload, nil
	}

	var campaigns []models.Campaign
	if err := s.db.WithContext(ctx).Where("sponsor_id = ?", sponsor.ID).Find(&campaigns).Error; err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0, len(campaigns))
	for i := range campaigns {
		rows = append(rows, campaigns[i].Serialize())
	}

	payload, err := json.Marshal(map[string]interface{}{"campaigns": rows})
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, key, payload, storage.DefaultTTL)
	return payload, nil
}

// ExportCSV renders the sponsor's campaigns as CSV, same columns as the
// dashboard export download.
func (s *CampaignService) ExportCSV(ctx context.Context, actorUserID uint) ([]byte, error) {
	sponsor, err := s.sponsorForUser(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	var campaigns []models.Campaign
	if err := s.db.WithContext(ctx).Where("sponsor_id = ?", sponsor.ID).Find(&campaigns).Error; err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Name", "Description", "Niche", "Budget", "Start Date", "End Date", "Goals", "Visibility"})
	for i := range campaigns {
		c := &campaigns[i]
		w.Write([]string{
			c.Name,
			c.Description,
			c.Niche,
			strconv.FormatFloat(c.Budget, 'f', 2, 64),
			c.StartDate.Format(dateLayout),
			c.EndDate.Format(dateLayout),
			c.Goals,
			c.Visibility,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PublicCampaigns lists the publicly visible campaigns, cached globally.
func (s *CampaignService) PublicCampaigns(ctx context.Context) ([]byte, error) {
	key := storage.PublicCampaignsKey()
	if payload, ok := s.cache.Get(ctx, key); ok {
		return payload, nil
	}

	var campaigns []models.Campaign
	if err := s.db.WithContext(ctx).Where("visibility = ?", models.VisibilityPublic).Find(&campaigns).Error; err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0, len(campaigns))
	for i := range campaigns {
		rows = append(rows, campaigns[i].Serialize())
	}

	payload, err := json.Marshal(map[string]interface{}{"campaigns": rows})
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, key, payload, storage.DefaultTTL)
	return payload, nil
}
