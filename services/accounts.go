package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"influencia-server/models"
	"influencia-server/storage"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService handles registration, login and the admin moderation
// operations (sponsor approval, flags).
type AccountService struct {
	db    *gorm.DB
	cache *storage.Cache
}

func NewAccountService(db *gorm.DB, cache *storage.Cache) *AccountService {
	return &AccountService{db: db, cache: cache}
}

type RegisterSponsorInput struct {
	Username           string  `json:"username" validate:"required"`
	Password           string  `json:"password" validate:"required,min=6"`
	Email              string  `json:"email" validate:"required,email"`
	CompanyName        string  `json:"company_name"`
	Industry           string  `json:"industry"`
	Budget             float64 `json:"budget" validate:"gte=0"`
	CompanyDescription string  `json:"company_description"`
}

type RegisterInfluencerInput struct {
	Username    string            `json:"username" validate:"required"`
	Password    string            `json:"password" validate:"required,min=6"`
	Email       string            `json:"email" validate:"required,email"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Niche       string            `json:"niche"`
	Reach       int               `json:"reach" validate:"gte=0"`
	Description string            `json:"description"`
	Platforms   map[string]string `json:"platforms"`
}

type RegisterAdminInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email"`
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *AccountService) createUser(tx *gorm.DB, username, password, email, role string) (*models.User, error) {
	// Friendly pre-check; the unique indexes still catch the race.
	var existing models.User
	if err := tx.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("user %q: %w", username, ErrConflict)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username: username,
		Password: hashed,
		Email:    email,
		Role:     role,
	}
	if err := translateDB(tx.Create(&user).Error); err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterSponsor creates the user and the sponsor row in one transaction;
// a failure on either side leaves nothing behind. New sponsors start
// unapproved.
func (s *AccountService) RegisterSponsor(ctx context.Context, in RegisterSponsorInput) (*models.Sponsor, error) {
	var sponsor models.Sponsor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.createUser(tx, in.Username, in.Password, in.Email, models.RoleSponsor)
		if err != nil {
			return err
		}
		sponsor = models.Sponsor{
			UserID:             user.ID,
			CompanyName:        in.CompanyName,
			Industry:           in.Industry,
			Budget:             in.Budget,
			CompanyDescription: in.CompanyDescription,
			IsApproved:         false,
		}
		return translateDB(tx.Create(&sponsor).Error)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx,
		storage.AdminDashboardKey(),
		storage.PendingSponsorsKey(),
		storage.PublicUsersKey(),
	)
	return &sponsor, nil
}

func (s *AccountService) RegisterInfluencer(ctx context.Context, in RegisterInfluencerInput) (*models.Influencer, error) {
	var influencer models.Influencer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.createUser(tx, in.Username, in.Password, in.Email, models.RoleInfluencer)
		if err != nil {
			return err
		}
		var platforms []byte
		if len(in.Platforms) > 0 {
			platforms, _ = json.Marshal(in.Platforms)
		}
		influencer = models.Influencer{
			UserID:      user.ID,
			Name:        in.Name,
			Category:    in.Category,
			Niche:       in.Niche,
			Reach:       in.Reach,
			Description: in.Description,
			Platforms:   platforms,
		}
		return translateDB(tx.Create(&influencer).Error)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx,
		storage.AdminDashboardKey(),
		storage.PublicInfluencersKey(),
		storage.PublicUsersKey(),
	)
	return &influencer, nil
}

func (s *AccountService) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.createUser(tx, in.Username, in.Password, in.Email, models.RoleAdmin)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storage.AdminDashboardKey(), storage.PublicUsersKey())
	return user, nil
}

// Login checks the credentials and stamps the login date. Sponsors whose
// account has not been approved yet are refused even with good credentials.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	if user.Role == models.RoleSponsor {
		var sponsor models.Sponsor
		if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&sponsor).Error; err == nil && !sponsor.IsApproved {
			return nil, fmt.Errorf("sponsor account is not approved yet: %w", ErrUnauthorized)
		}
	}

	now := time.Now().UTC()
	user.LoginDate = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("login_date", now).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// PendingSponsors lists unapproved sponsors, cached for the admin list view.
func (s *AccountService) PendingSponsors(ctx context.Context) ([]byte, error) {
	key := storage.PendingSponsorsKey()
	if payload, ok := s.cache.Get(ctx, key); ok {
		return payload, nil
	}

	var sponsors []models.Sponsor
	if err := s.db.WithContext(ctx).Where("is_approved = ?", false).Find(&sponsors).Error; err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0, len(sponsors))
	for i := range sponsors {
		rows = append(rows, sponsors[i].Serialize())
	}

	payload, err := json.Marshal(map[string]interface{}{"sponsors": rows})
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, key, payload, storage.DefaultTTL)
	return payload, nil
}

func (s *AccountService) ApproveSponsor(ctx context.Context, sponsorID uint) error {
	var sponsor models.Sponsor
	if err := s.db.WithContext(ctx).First(&sponsor, sponsorID).Error; err != nil {
		return fmt.Errorf("sponsor %d: %w", sponsorID, ErrNotFound)
	}
	if err := s.db.WithContext(ctx).Model(&sponsor).Update("is_approved", true).Error; err != nil {
		return err
	}

	s.cache.Invalidate(ctx, storage.AdminDashboardKey(), storage.PendingSponsorsKey())
	return nil
}

// RejectSponsor deletes the sponsor row only. The user row survives (no
// cascade from users), matching the documented orphaned-user behavior.
func (s *AccountService) RejectSponsor(ctx context.Context, sponsorID uint) error {
	var sponsor models.Sponsor
	if err := s.db.WithContext(ctx).First(&sponsor, sponsorID).Error; err != nil {
		return fmt.Errorf("sponsor %d: %w", sponsorID, ErrNotFound)
	}
	if err := s.db.WithContext(ctx).Delete(&sponsor).Error; err != nil {
		return err
	}

	s.cache.Invalidate(ctx, storage.AdminDashboardKey(), storage.PendingSponsorsKey())
	return nil
}

// FlagInfluencer raises a moderation flag from the acting user against the
// influencer's user. One flag per (flagger, target); repeats conflict.
func (s *AccountService) FlagInfluencer(ctx context.Context, actorUserID, influencerID uint, reason string) error {
	var influencer models.Influencer
	if err := s.db.WithContext(ctx).First(&influencer, influencerID).Error; err != nil {
		return fmt.Errorf("influencer %d: %w", influencerID, ErrNotFound)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.UserFlag
		if err := tx.Where("flagged_by = ? AND user_id = ?", actorUserID, influencer.UserID).First(&existing).Error; err == nil {
			return fmt.Errorf("already flagged: %w", ErrConflict)
		}
		flag := models.UserFlag{
			FlaggedBy: actorUserID,
			UserID:    influencer.UserID,
			Reason:    reason,
		}
		return translateDB(tx.Create(&flag).Error)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, storage.AdminDashboardKey())
	return nil
}

// FlagCampaign works like FlagInfluencer; sponsors may only flag their own
// campaigns, admins may flag any.
func (s *AccountService) FlagCampaign(ctx context.Context, actorUserID, campaignID uint, reason string, requireOwnership bool) error {
	var campaign models.Campaign
	if err := s.db.WithContext(ctx).First(&campaign, campaignID).Error; err != nil {
		return fmt.Errorf("campaign %d: %w", campaignID, ErrNotFound)
	}
	if requireOwnership {
		var sponsor models.Sponsor
		if err := s.db.WithContext(ctx).Where("user_id = ?", actorUserID).First(&sponsor).Error; err != nil {
			return fmt.Errorf("sponsor for user %d: %w", actorUserID, ErrNotFound)
		}
		if campaign.SponsorID != sponsor.ID {
			return fmt.Errorf("campaign %d is not owned by sponsor %d: %w", campaignID, sponsor.ID, ErrUnauthorized)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CampaignFlag
		if err := tx.Where("flagged_by = ? AND campaign_id = ?", actorUserID, campaignID).First(&existing).Error; err == nil {
			return fmt.Errorf("already flagged: %w", ErrConflict)
		}
		flag := models.CampaignFlag{
			FlaggedBy:  actorUserID,
			CampaignID: campaignID,
			Reason:     reason,
		}
		return translateDB(tx.Create(&flag).Error)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, storage.AdminDashboardKey())
	return nil
}

func (s *AccountService) UserFlags(ctx context.Context) ([]map[string]interface{}, error) {
	var flags []models.UserFlag
	if err := s.db.WithContext(ctx).Find(&flags).Error; err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0, len(flags))
	for i := range flags {
		rows = append(rows, flags[i].Serialize())
	}
	return rows, nil
}

func (s *AccountService) CampaignFlags(ctx context.Context) ([]map[string]interface{}, error) {
	var flags []models.CampaignFlag
	if err := s.db.WithContext(ctx).Find(&flags).Error; err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0, len(flags))
	for i := range flags {
		rows = append(rows, flags[i].Serialize())
	}
	return rows, nil
}
