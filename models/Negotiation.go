package models

// Negotiation is one counter-offer round on an ad request. Its status only
// ever takes pending, accepted or rejected.
type Negotiation struct {
	ID                    uint       `json:"negotiation_id" gorm:"primaryKey"`
	AdRequestID           uint       `json:"ad_request_id" gorm:"not null;index"`
	InfluencerID          uint       `json:"influencer_id" gorm:"not null;index"`
	ProposedPaymentAmount float64    `json:"proposed_payment_amount" gorm:"type:numeric(10,2)"`
	NegotiationStatus     string     `json:"negotiation_status" gorm:"type:varchar(20);default:'pending'"` // pending, accepted, rejected
	AdRequest             AdRequest  `json:"-" gorm:"foreignKey:AdRequestID"`
	Influencer            Influencer `json:"-" gorm:"foreignKey:InfluencerID"`
}

func (Negotiation) TableName() string {
	return "negotiations"
}

func ValidNegotiationStatus(s string) bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRejected
}

func (n *Negotiation) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"negotiation_id":          n.ID,
		"ad_request_id":           n.AdRequestID,
		"influencer_id":           n.InfluencerID,
		"proposed_payment_amount": n.ProposedPaymentAmount,
		"negotiation_status":      n.NegotiationStatus,
	}
}
