package models

// Sponsor is owned by exactly one User with the sponsor role. Deleting the
// user does not remove this row; an orphaned sponsor simply can no longer
// log in. IsApproved gates every sponsor action.
type Sponsor struct {
	ID                 uint       `json:"sponsor_id" gorm:"primaryKey"`
	UserID             uint       `json:"user_id" gorm:"not null;index"`
	CompanyName        string     `json:"company_name" gorm:"type:varchar(255)"`
	Industry           string     `json:"industry" gorm:"type:varchar(255)"`
	Budget             float64    `json:"budget" gorm:"type:numeric(10,2)"`
	CompanyDescription string     `json:"company_description" gorm:"type:text"`
	IsApproved         bool       `json:"is_approved" gorm:"default:false"`
	User               User       `json:"-" gorm:"foreignKey:UserID"`
	Campaigns          []Campaign `json:"campaigns,omitempty" gorm:"foreignKey:SponsorID"`
}

func (Sponsor) TableName() string {
	return "sponsors"
}

func (s *Sponsor) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"sponsor_id":          s.ID,
		"user_id":             s.UserID,
		"company_name":        s.CompanyName,
		"industry":            s.Industry,
		"budget":              s.Budget,
		"company_description": s.CompanyDescription,
		"is_approved":         s.IsApproved,
	}
}
