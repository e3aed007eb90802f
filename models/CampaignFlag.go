package models

import "time"

// CampaignFlag mirrors UserFlag for campaigns and goes away with the
// campaign it points at.
type CampaignFlag struct {
	ID         uint      `json:"flag_id" gorm:"primaryKey"`
	FlaggedBy  uint      `json:"flagged_by" gorm:"not null;uniqueIndex:idx_campaign_flag_once"`
	CampaignID uint      `json:"campaign_id" gorm:"not null;index;uniqueIndex:idx_campaign_flag_once"`
	Reason     string    `json:"reason" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	Flagger    User      `json:"-" gorm:"foreignKey:FlaggedBy"`
}

func (CampaignFlag) TableName() string {
	return "campaign_flags"
}

func (f *CampaignFlag) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"flag_id":     f.ID,
		"flagged_by":  f.FlaggedBy,
		"campaign_id": f.CampaignID,
		"reason":      f.Reason,
		"created_at":  f.CreatedAt.UTC(),
	}
}
