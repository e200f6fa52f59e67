package dto

import (
	"time"

	"anoa.com/rewardshub/internal/entity"
	"anoa.com/rewardshub/pkg/dto"
	"github.com/google/uuid"
)

type SpotlightResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	ToolName     string    `json:"tool_name"`
	Description  string    `json:"description"`
	CTAURL       string    `json:"cta_url"`
	PointsReward int64     `json:"points_reward"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewSpotlightResponse(s *entity.SpotlightCandidate) *SpotlightResponse {
	if s == nil {
		return nil
	}
	return &SpotlightResponse{
		ID:           s.ID,
		Title:        s.Title,
		ToolName:     s.ToolName,
		Description:  s.Description,
		CTAURL:       s.CTAURL,
		PointsReward: s.PointsReward,
		IsActive:     s.IsActive,
		CreatedAt:    s.CreatedAt,
	}
}

type CreateSpotlightRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	ToolName     string `json:"tool_name" binding:"required,max=100"`
	Description  string `json:"description" binding:"max=5000"`
	CTAURL       string `json:"cta_url" binding:"required,url"`
	PointsReward int64  `json:"points_reward" binding:"omitempty,min=1"`
	IsActive     *bool  `json:"is_active"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ClaimResponse struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	SpotlightID   uuid.UUID          `json:"spotlight_id"`
	ExternalEmail string             `json:"external_email"`
	EvidenceURI   string             `json:"evidence_uri"`
	Status        entity.ClaimStatus `json:"status"`
	ReviewNote    *string            `json:"review_note,omitempty"`
	ReviewedAt    *time.Time         `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func NewClaimResponse(c *entity.SpotlightClaimRequest) *ClaimResponse {
	if c == nil {
		return nil
	}
	return &ClaimResponse{
		ID:            c.ID,
		UserID:        c.UserID,
		SpotlightID:   c.SpotlightID,
		ExternalEmail: c.ExternalEmail,
		EvidenceURI:   c.EvidenceURI,
		Status:        c.Status,
		ReviewNote:    c.ReviewNote,
		ReviewedAt:    c.ReviewedAt,
		CreatedAt:     c.CreatedAt,
	}
}

// LatestClaimResponse wraps the newest claim, which is null when the user never submitted one.
type LatestClaimResponse struct {
	Claim *ClaimResponse `json:"claim"`
}

type ReviewClaimRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Note     string `json:"note" binding:"max=500"`
}

type ListClaimsQuery struct {
	dto.PageQuery
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

type ClaimListResponse struct {
	Data []ClaimResponse    `json:"data"`
	Meta dto.PaginationMeta `json:"meta"`
}
