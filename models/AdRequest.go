package models

const (
	StatusPending     = "pending"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
	StatusNegotiation = "negotiation"
)

// AdRequest is a sponsor's offer from one campaign to one influencer. Its
// status and the statuses of its negotiation rounds are two independent
// machines; closing a negotiation never writes back into Status.
type AdRequest struct {
	ID            uint          `json:"ad_request_id" gorm:"primaryKey"`
	CampaignID    uint          `json:"campaign_id" gorm:"not null;index"`
	InfluencerID  uint          `json:"influencer_id" gorm:"not null;index"`
	Requirements  string        `json:"requirements" gorm:"type:text"`
	PaymentAmount float64       `json:"payment_amount" gorm:"type:numeric(10,2)"`
	Status        string        `json:"status" gorm:"type:varchar(20);default:'pending';index"` // pending, accepted, rejected, negotiation
	Messages      string        `json:"messages" gorm:"type:text"`
	Campaign      Campaign      `json:"-" gorm:"foreignKey:CampaignID"`
	Influencer    Influencer    `json:"-" gorm:"foreignKey:InfluencerID"`
	Negotiations  []Negotiation `json:"-" gorm:"foreignKey:AdRequestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (AdRequest) TableName() string {
	return "ad_requests"
}

func ValidAdRequestStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusNegotiation:
		return true
	}
	return false
}

func (a *AdRequest) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"ad_request_id":  a.ID,
		"campaign_id":    a.CampaignID,
		"influencer_id":  a.InfluencerID,
		"requirements":   a.Requirements,
		"payment_amount": a.PaymentAmount,
		"status":         a.Status,
		"messages":       a.Messages,
	}
}
