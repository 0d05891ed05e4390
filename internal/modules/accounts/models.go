package accounts

import "time"

// Profile mirrors an auth account. WelcomeEmailSentAt gates the welcome email.
type Profile struct {
	ID                 string    `gorm:"type:varchar(64);primaryKey"`
	Email              string    `gorm:"type:varchar(255);not null"`
	Name               string    `gorm:"type:varchar(255);not null"`
	WelcomeEmailSentAt *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (Profile) TableName() string { return "profiles" }
