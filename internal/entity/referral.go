package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReferralApplication binds a referred account to its referrer. At most one per referred user.
type ReferralApplication struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReferredUserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"referred_user_id"`
	ReferrerUserID uuid.UUID `gorm:"type:uuid;index;not null" json:"referrer_user_id"`
	RefCode        string    `gorm:"size:16;not null" json:"ref_code"`
	CreatedAt      time.Time `json:"created_at"`
}
