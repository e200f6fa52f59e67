package entity

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the storage format of calendar days (UTC).
const DateLayout = "2006-01-02"

type DailyCheckin struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_checkin_user_date,priority:1;not null" json:"user_id"`
	CheckinDate string    `gorm:"size:10;uniqueIndex:idx_checkin_user_date,priority:2;not null" json:"checkin_date"`
	CreatedAt   time.Time `json:"created_at"`
}
