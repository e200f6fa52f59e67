package leaderboard

import "math"

// TierStatus places a balance on the tier ladder.
type TierStatus struct {
	Tier         string  `json:"tier"`
	NextTier     string  `json:"next_tier"`
	Points       int64   `json:"points"`
	TargetPoints int64   `json:"target_points"`
	Progress     float64 `json:"progress"` // percent towards TargetPoints
}

// Tier thresholds. Tiers follow the balance, so they never drop: points are never spent.
const (
	PointsPlatinum = 50000
	PointsGold     = 10000
	PointsSilver   = 1000
	PointsBronze   = 100
)

type tier struct {
	name string
	min  int64
}

// ordered from the top
var tiers = []tier{
	{"Platinum", PointsPlatinum},
	{"Gold", PointsGold},
	{"Silver", PointsSilver},
	{"Bronze", PointsBronze},
	{"Newcomer", 0},
}

func GetTierStatus(points int64) TierStatus {
	status := TierStatus{Points: points}

	for i, t := range tiers {
		if points < t.min {
			continue
		}
		status.Tier = t.name
		if i == 0 {
			status.NextTier = "Max Level"
			status.TargetPoints = t.min
			status.Progress = 100
			return status
		}
		next := tiers[i-1]
		status.NextTier = next.name
		status.TargetPoints = next.min
		status.Progress = math.Round(float64(points)/float64(next.min)*10000) / 100
		return status
	}

	// negative balances cannot occur, but rank them as newcomers
	status.Tier = "Newcomer"
	status.NextTier = "Bronze"
	status.TargetPoints = PointsBronze
	return status
}
