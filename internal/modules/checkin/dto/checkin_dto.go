package dto

type ClaimDailyResponse struct {
	Awarded int64 `json:"awarded"`
	Balance int64 `json:"balance"`
	Streak  int   `json:"streak"`
}

type WeekDay struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	CheckedIn bool   `json:"checked_in"`
	IsToday   bool   `json:"is_today"`
}

type CheckinStatus struct {
	Last7Days    []string  `json:"last_7_days_checkins"`
	Streak       int       `json:"streak"`
	ClaimedToday bool      `json:"claimed_today"`
	Week         []WeekDay `json:"week"`
}
