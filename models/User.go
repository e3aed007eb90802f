package models

import "time"

const (
	RoleAdmin      = "admin"
	RoleSponsor    = "sponsor"
	RoleInfluencer = "influencer"
)

// User is the login identity. Role is set once at registration and never
// updated afterwards; it decides whether the user owns a Sponsor or an
// Influencer row.
type User struct {
	ID        uint       `json:"user_id" gorm:"primaryKey"`
	Username  string     `json:"username" gorm:"type:varchar(255);not null;uniqueIndex"`
	Password  string     `json:"-" gorm:"type:varchar(255);not null"`
	Email     string     `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Role      string     `json:"role" gorm:"type:varchar(20);not null;index"` // admin, sponsor, influencer
	CreatedAt time.Time  `json:"created_at"`
	LoginDate *time.Time `json:"login_date"`
}

func (User) TableName() string {
	return "users"
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSponsor || role == RoleInfluencer
}

// Serialize returns the fixed wire representation. The password hash is
// never part of it.
func (u *User) Serialize() map[string]interface{} {
	var login interface{}
	if u.LoginDate != nil {
		login = u.LoginDate.UTC()
	}
	return map[string]interface{}{
		"user_id":    u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"role":       u.Role,
		"created_at": u.CreatedAt.UTC(),
		"login_date": login,
	}
}
