package dto

import "github.com/google/uuid"

type ProfileResponse struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	ReferralCode string    `json:"referral_code"`
	ReferralLink string    `json:"referral_link"`
}
