package models

import "time"

// UserFlag is a moderation record one user raises against another. A user
// may flag a given target at most once; the composite index backs the
// pre-check in the accounts service.
type UserFlag struct {
	ID        uint      `json:"flag_id" gorm:"primaryKey"`
	FlaggedBy uint      `json:"flagged_by" gorm:"not null;uniqueIndex:idx_user_flag_once"`
	UserID    uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_flag_once"`
	Reason    string    `json:"reason" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	Flagger   User      `json:"-" gorm:"foreignKey:FlaggedBy"`
	Flagged   User      `json:"-" gorm:"foreignKey:UserID"`
}

func (UserFlag) TableName() string {
	return "user_flags"
}

func (f *UserFlag) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"flag_id":    f.ID,
		"flagged_by": f.FlaggedBy,
		"user_id":    f.UserID,
		"reason":     f.Reason,
		"created_at": f.CreatedAt.UTC(),
	}
}
