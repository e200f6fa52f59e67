package checkin

import (
	"time"

	"anoa.com/rewardshub/internal/entity"
	checkinDto "anoa.com/rewardshub/internal/modules/checkin/dto"
)

// UTCDay truncates t to its UTC calendar day.
func UTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateSet(dates []string) map[string]struct{} {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

// ComputeStreak counts consecutive check-in days ending today, or yesterday when today
// has no check-in yet. A single missing day ends the run.
func ComputeStreak(dates []string, today time.Time) int {
	set := dateSet(dates)
	anchor := UTCDay(today)
	if _, ok := set[anchor.Format(entity.DateLayout)]; !ok {
		anchor = anchor.AddDate(0, 0, -1)
	}

	streak := 0
	for day := anchor; ; day = day.AddDate(0, 0, -1) {
		if _, ok := set[day.Format(entity.DateLayout)]; !ok {
			return streak
		}
		streak++
	}
}

// WeekStrip returns the Monday-to-Sunday week containing today.
func WeekStrip(dates []string, today time.Time) []checkinDto.WeekDay {
	set := dateSet(dates)
	day := UTCDay(today)
	monday := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))

	week := make([]checkinDto.WeekDay, 0, 7)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		key := d.Format(entity.DateLayout)
		_, done := set[key]
		week = append(week, checkinDto.WeekDay{
			Date:      key,
			Weekday:   d.Weekday().String()[:3],
			CheckedIn: done,
			IsToday:   d.Equal(day),
		})
	}
	return week
}

// RecentDays returns the dates within the seven days ending today, oldest first.
func RecentDays(dates []string, today time.Time) []string {
	since := UTCDay(today).AddDate(0, 0, -6).Format(entity.DateLayout)
	out := make([]string, 0, 7)
	for i := len(dates) - 1; i >= 0; i-- {
		if dates[i] >= since {
			out = append(out, dates[i])
		}
	}
	return out
}
