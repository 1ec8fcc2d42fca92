package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DailyLog holds one user's records for one calendar day: the structured
// morning check-in, an optional evening payload, and the generated plan.
// At most one row exists per (user_id, date); writes go through the store's
// merge upsert and never clobber fields the caller did not supply.
type DailyLog struct {
	gorm.Model
	UserID   uint           `gorm:"not null;uniqueIndex:idx_daily_logs_user_date,where:deleted_at IS NULL"`
	User     User           `gorm:"constraint:OnDelete:CASCADE;"`
	Date     string         `gorm:"type:date;not null;uniqueIndex:idx_daily_logs_user_date,where:deleted_at IS NULL"` // YYYY-MM-DD, user-local
	Morning  datatypes.JSON `gorm:"column:am_json;type:jsonb"`
	Evening  datatypes.JSON `gorm:"column:pm_json;type:jsonb"`
	PlanText string         `gorm:"column:plan_text;type:text;not null;default:''"`
}

// AfterFind normalizes Date back to YYYY-MM-DD. The driver scans a DATE
// column as time.Time, which database/sql renders into a string field as an
// RFC 3339 timestamp.
func (d *DailyLog) AfterFind(tx *gorm.DB) error {
	if t, err := time.Parse(time.RFC3339, d.Date); err == nil {
		d.Date = t.Format("2006-01-02")
	}
	return nil
}
