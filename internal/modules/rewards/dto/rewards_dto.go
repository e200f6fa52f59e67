package dto

import (
	accountDto "anoa.com/rewardshub/internal/modules/account/dto"
	checkinDto "anoa.com/rewardshub/internal/modules/checkin/dto"
	leaderboard "anoa.com/rewardshub/internal/modules/leaderboard/service"
	referralDto "anoa.com/rewardshub/internal/modules/referral/dto"
	spotlightDto "anoa.com/rewardshub/internal/modules/spotlight/dto"
)

// RewardsSnapshot is everything the rewards dashboard renders in one read.
type RewardsSnapshot struct {
	Profile              *accountDto.ProfileResponse     `json:"profile"`
	Balance              int64                           `json:"balance"`
	Tier                 leaderboard.TierStatus          `json:"tier"`
	Last7DaysCheckins    []string                        `json:"last_7_days_checkins"`
	Streak               int                             `json:"streak"`
	ClaimedToday         bool                            `json:"claimed_today"`
	Week                 []checkinDto.WeekDay            `json:"week"`
	ActiveSpotlight      *spotlightDto.SpotlightResponse `json:"active_spotlight"`
	LatestSpotlightClaim *spotlightDto.ClaimResponse     `json:"latest_spotlight_claim"`
	Referral             *referralDto.ReferralStats      `json:"referral"`
}
