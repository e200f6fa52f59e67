package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AwardKind string

const (
	AwardDailyCheckin   AwardKind = "daily_checkin"
	AwardReferralBonus  AwardKind = "referral_bonus"
	AwardSpotlightClaim AwardKind = "spotlight_claim"
)

// AwardEvent is an immutable ledger entry. A user's balance is the sum of Amount over
// their events. SourceKey names the fact that earned the points and is unique, so a
// fact can never be paid twice.
type AwardEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index:idx_award_user_created,priority:1;not null" json:"user_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Kind        AwardKind `gorm:"size:32;index;not null" json:"kind"`
	SourceKey   string    `gorm:"size:128;uniqueIndex;not null" json:"source_key"`
	ReferenceID string    `gorm:"size:64" json:"reference_id"`
	CreatedAt   time.Time `gorm:"index:idx_award_user_created,priority:2" json:"created_at"`
}

func AwardSourceKey(kind AwardKind, parts ...string) string {
	return string(kind) + ":" + strings.Join(parts, ":")
}

// UserBalance caches the ledger sum per user. It is maintained in the same transaction
// as every append and can always be rebuilt from award_events.
type UserBalance struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Balance     int64     `gorm:"not null;default:0;index" json:"balance"`
	EventCount  int64     `gorm:"not null;default:0" json:"event_count"`
	LastAwardAt time.Time `json:"last_award_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
