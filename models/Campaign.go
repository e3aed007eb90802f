package models

import "time"

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type Campaign struct {
	ID            uint           `json:"campaign_id" gorm:"primaryKey"`
	SponsorID     uint           `json:"sponsor_id" gorm:"not null;index"`
	Name          string         `json:"name" gorm:"type:varchar(255);not null"`
	Description   string         `json:"description" gorm:"type:text;not null"`
	StartDate     time.Time      `json:"start_date" gorm:"type:date"`
	EndDate       time.Time      `json:"end_date" gorm:"type:date"`
	Budget        float64        `json:"budget" gorm:"type:numeric(10,2);not null"`
	Visibility    string         `json:"visibility" gorm:"type:varchar(20);default:'public';index"` // public, private
	Goals         string         `json:"goals" gorm:"type:text;not null"`
	Niche         string         `json:"niche" gorm:"type:varchar(255);not null"`
	Sponsor       Sponsor        `json:"-" gorm:"foreignKey:SponsorID"`
	AdRequests    []AdRequest    `json:"-" gorm:"foreignKey:CampaignID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CampaignFlags []CampaignFlag `json:"-" gorm:"foreignKey:CampaignID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

func (c *Campaign) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"campaign_id": c.ID,
		"sponsor_id":  c.SponsorID,
		"name":        c.Name,
		"description": c.Description,
		"start_date":  c.StartDate.Format("2006-01-02"),
		"end_date":    c.EndDate.Format("2006-01-02"),
		"budget":      c.Budget,
		"visibility":  c.Visibility,
		"goals":       c.Goals,
		"niche":       c.Niche,
	}
}
