package model

import "time"

// Account represents a registered user.
// Username is stored lowercase so username lookups are case-insensitive;
// phone is an exact-match key.
type Account struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Phone        string    `gorm:"uniqueIndex;size:10;not null" json:"phone"`
	PasswordHash string    `gorm:"size:72;not null" json:"-"`
	Email        *string   `gorm:"uniqueIndex;size:128" json:"email,omitempty"`
	ProfileImage string    `gorm:"size:255" json:"profile_image,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
