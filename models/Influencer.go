package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Influencer is owned by exactly one User with the influencer role and is
// the target of ad requests. Platforms holds the social handles as a JSON
// object keyed by platform name.
type Influencer struct {
	ID          uint           `json:"influencer_id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	Name        string         `json:"name" gorm:"type:varchar(255)"`
	Category    string         `json:"category" gorm:"type:varchar(255)"`
	Niche       string         `json:"niche" gorm:"type:varchar(255)"`
	Reach       int            `json:"reach"`
	Description string         `json:"description" gorm:"type:varchar(255)"`
	Platforms   datatypes.JSON `json:"platforms"`
	User        User           `json:"-" gorm:"foreignKey:UserID"`
	AdRequests  []AdRequest    `json:"-" gorm:"foreignKey:InfluencerID"`
}

func (Influencer) TableName() string {
	return "influencers"
}

func (i *Influencer) Serialize() map[string]interface{} {
	platforms := map[string]string{}
	if i.Platforms != nil {
		json.Unmarshal(i.Platforms, &platforms)
	}
	return map[string]interface{}{
		"influencer_id": i.ID,
		"user_id":       i.UserID,
		"name":          i.Name,
		"category":      i.Category,
		"niche":         i.Niche,
		"reach":         i.Reach,
		"description":   i.Description,
		"platforms":     platforms,
	}
}
