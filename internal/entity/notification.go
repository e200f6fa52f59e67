package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationClaimApproved NotificationType = "claim_approved"
	NotificationClaimRejected NotificationType = "claim_rejected"
	NotificationReferralBonus NotificationType = "referral_bonus"
)

type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	Type        NotificationType `gorm:"size:32;not null" json:"type"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	Points      int64            `gorm:"not null;default:0" json:"points"`
	ReferenceID string           `gorm:"size:64" json:"reference_id"`
	IsRead      bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
