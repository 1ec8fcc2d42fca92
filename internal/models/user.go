package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a coached user keyed by their normalized WhatsApp phone number
type User struct {
	gorm.Model
	Phone                string `gorm:"uniqueIndex:idx_users_phone_not_deleted,where:deleted_at IS NULL;not null"`
	Name                 string `gorm:"not null;default:''"`
	Timezone             string `gorm:"not null;default:'UTC'"`
	PreferredCheckinTime string `gorm:"not null;default:'06:30'"` // HH:MM, user-local
	LastCheckinAt        *time.Time

	// Associations
	Messages  []Message  `gorm:"constraint:OnDelete:CASCADE;"`
	DailyLogs []DailyLog `gorm:"constraint:OnDelete:CASCADE;"`
}

// Location resolves the user's stored timezone, falling back to UTC when the
// zone name is unknown to the host tzdata.
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CalendarDate returns the user-local calendar day (YYYY-MM-DD) for the
// given instant. Daily logs are bucketed by this value.
func (u *User) CalendarDate(at time.Time) string {
	return at.In(u.Location()).Format("2006-01-02")
}
