package dto

import "github.com/google/uuid"

// LeaderboardEntry is one ranked user. Position is 1-based.
type LeaderboardEntry struct {
	Position    int       `json:"position"`
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Balance     int64     `json:"balance"`
	Tier        string    `json:"tier"`
}
