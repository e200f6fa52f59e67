package dto

type ApplyReferralRequest struct {
	RefCode string `json:"ref_code" binding:"required,max=16"`
}

type ApplyReferralResponse struct {
	Applied bool `json:"applied"`
}

type ReferralStats struct {
	ReferralCode string `json:"referral_code"`
	ReferralLink string `json:"referral_link"`
	Referrals    int64  `json:"referrals"`
	PointsEarned int64  `json:"points_earned"`
}
