package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SpotlightCandidate struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	ToolName     string    `gorm:"size:100;not null" json:"tool_name"`
	Description  string    `gorm:"type:text" json:"description"`
	CTAURL       string    `gorm:"column:cta_url;type:text" json:"cta_url"`
	PointsReward int64     `gorm:"not null" json:"points_reward"`
	IsActive     bool      `gorm:"index;not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (s *SpotlightCandidate) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

type SpotlightClaimRequest struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID   `gorm:"type:uuid;index:idx_claim_user_spotlight,priority:1;not null" json:"user_id"`
	SpotlightID   uuid.UUID   `gorm:"type:uuid;index:idx_claim_user_spotlight,priority:2;not null" json:"spotlight_id"`
	ExternalEmail string      `gorm:"size:255;not null" json:"external_email"`
	EvidenceKey   string      `gorm:"size:512;not null" json:"-"`
	EvidenceURI   string      `gorm:"type:text;not null" json:"evidence_uri"`
	Status        ClaimStatus `gorm:"size:16;index;not null" json:"status"`
	ReviewedBy    *uuid.UUID  `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewNote    *string     `gorm:"type:text" json:"review_note,omitempty"`
	ReviewedAt    *time.Time  `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time   `gorm:"index:idx_claim_user_spotlight,priority:3" json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// BeforeCreate assigns a time-ordered ID so ties on created_at still sort by submission.
func (c *SpotlightClaimRequest) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id
	}
	return nil
}

// OrphanEvidence records an uploaded object whose compensating delete failed.
type OrphanEvidence struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:512;uniqueIndex;not null" json:"key"`
	Reason    string    `gorm:"type:text" json:"reason"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	LastError string    `gorm:"type:text" json:"last_error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
