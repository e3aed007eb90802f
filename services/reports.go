package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"log"
	"strconv"

	"influencia-server/models"
	"influencia-server/storage"

	"gorm.io/gorm"
)

// ReportsService runs the read-only aggregate queries: the admin dashboard
// counters, the graph breakdowns, and the rollups the background jobs mail
// out. Nothing in here ever writes lifecycle state.
type ReportsService struct {
	db    *gorm.DB
	cache *storage.Cache
}

func NewReportsService(db *gorm.DB, cache *storage.Cache) *ReportsService {
	return &ReportsService{db: db, cache: cache}
}

func (s *ReportsService) count(ctx context.Context, model interface{}, query string, args ...interface{}) int64 {
	var n int64
	q := s.db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		log.Printf("dashboard count %T (%s) failed: %v", model, query, err)
	}
	return n
}

// AdminDashboard renders the counter block of the admin dashboard, cached
// under one global key.
func (s *ReportsService) AdminDashboard(ctx context.Context) ([]byte, error) {
	key := storage.AdminDashboardKey()
	if payload, ok := s.cache.Get(ctx, key); ok {
		return payload, nil
	}

	data := map[string]interface{}{
		"total_users":                   s.count(ctx, &models.User{}, ""),
		"total_sponsors":                s.count(ctx, &models.Sponsor{}, ""),
		"total_influencers":             s.count(ctx, &models.Influencer{}, ""),
		"total_campaigns_public":        s.count(ctx, &models.Campaign{}, "visibility = ?", models.VisibilityPublic),
		"total_campaigns_private":       s.count(ctx, &models.Campaign{}, "visibility = ?", models.VisibilityPrivate),
		"total_ad_requests_pending":     s.count(ctx, &models.AdRequest{}, "status = ?", models.StatusPending),
		"total_ad_requests_accepted":    s.count(ctx, &models.AdRequest{}, "status = ?", models.StatusAccepted),
		"total_ad_requests_rejected":    s.count(ctx, &models.AdRequest{}, "status = ?", models.StatusRejected),
		"total_ad_requests_negotiation": s.count(ctx, &models.AdRequest{}, "status = ?", models.StatusNegotiation),
		"flagged_users":                 s.count(ctx, &models.UserFlag{}, ""),
		"flagged_campaigns":             s.count(ctx, &models.CampaignFlag{}, ""),
		"pending_sponsors":              s.count(ctx, &models.Sponsor{}, "is_approved = ?", false),
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, key, payload, storage.DefaultTTL)
	return payload, nil
}

// GraphData renders the breakdowns behind the admin charts. Not cached: the
// admin graph endpoint was always computed fresh.
func (s *ReportsService) GraphData(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"campaign_visibility": map[string]int64{
			"public":  s.count(ctx, &models.Campaign{}, "visibility = ?", models.VisibilityPublic),
			"private": s.count(ctx, &models.Campaign{}, "visibility = ?", models.VisibilityPrivate),
		},
		"ad_request_statuses": map[string]int64{
			"pending":     s.count(ctx, &models.AdRequest{}, "status = ?", models.StatusPending),
			"accepted":    s.count(ctx, &models.AdRequest{}, "status = ?", models.StatusAccepted),
			"rejected":    s.count(ctx, &models.AdRequest{}, "status = ?", models.StatusRejected),
			"negotiation": s.count(ctx, &models.AdRequest{}, "status = ?", models.StatusNegotiation),
		},
		"user_roles": map[string]int64{
			"admins":      s.count(ctx, &models.User{}, "role = ?", models.RoleAdmin),
			"sponsors":    s.count(ctx, &models.User{}, "role = ?", models.RoleSponsor),
			"influencers": s.count(ctx, &models.User{}, "role = ?", models.RoleInfluencer),
		},
	}, nil
}

// SponsorRollup is one line of the monthly report mailed to a sponsor.
type SponsorRollup struct {
	Sponsor  models.Sponsor
	Email    string
	Total    int64
	Accepted int64
	Rejected int64
	Pending  int64
}

// MonthlyRollups aggregates ad-request outcomes per sponsor across all of
// their campaigns.
func (s *ReportsService) MonthlyRollups(ctx context.Context) ([]SponsorRollup, error) {
	var sponsors []models.Sponsor
	if err := s.db.WithContext(ctx).Preload("User").Find(&sponsors).Error; err != nil {
		return nil, err
	}

	rollups := make([]SponsorRollup, 0, len(sponsors))
	for i := range sponsors {
		sp := sponsors[i]
		base := s.db.WithContext(ctx).Model(&models.AdRequest{}).
			Joins("JOIN campaigns ON campaigns.id = ad_requests.campaign_id").
			Where("campaigns.sponsor_id = ?", sp.ID)

		r := SponsorRollup{Sponsor: sp, Email: sp.User.Email}
		base.Session(&gorm.Session{}).Count(&r.Total)
		base.Session(&gorm.Session{}).Where("ad_requests.status = ?", models.StatusAccepted).Count(&r.Accepted)
		base.Session(&gorm.Session{}).Where("ad_requests.status = ?", models.StatusRejected).Count(&r.Rejected)
		base.Session(&gorm.Session{}).Where("ad_requests.status = ?", models.StatusPending).Count(&r.Pending)
		rollups = append(rollups, r)
	}
	return rollups, nil
}

// RollupCSV renders the monthly rollups as the CSV attachment of the
// monthly report mail.
func RollupCSV(rollups []SponsorRollup) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"sponsor", "total_requests", "accepted_requests", "rejected_requests", "pending_requests"})
	for _, r := range rollups {
		w.Write([]string{
			r.Sponsor.CompanyName,
			strconv.FormatInt(r.Total, 10),
			strconv.FormatInt(r.Accepted, 10),
			strconv.FormatInt(r.Rejected, 10),
			strconv.FormatInt(r.Pending, 10),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PendingReminderTargets finds influencer users with pending ad requests
// who have not logged in since the start of the day. Read-only; the daily
// reminder job mails these.
func (s *ReportsService) PendingReminderTargets(ctx context.Context, dayStart string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Distinct("users.*").
		Joins("JOIN influencers ON influencers.user_id = users.id").
		Joins("JOIN ad_requests ON ad_requests.influencer_id = influencers.id").
		Where("users.role = ?", models.RoleInfluencer).
		Where("ad_requests.status = ?", models.StatusPending).
		Where("users.login_date IS NULL OR users.login_date < ?", dayStart).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
