package dto

import (
	"time"

	commonDto "anoa.com/rewardshub/pkg/dto"
)

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type AwardEventResponse struct {
	ID          uint      `json:"id"`
	Amount      int64     `json:"amount"`
	Kind        string    `json:"kind"`
	ReferenceID string    `json:"reference_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AwardHistoryResponse struct {
	Data []AwardEventResponse     `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

type RebuildResponse struct {
	DriftedUsers int `json:"drifted_users"`
}
