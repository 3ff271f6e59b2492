package activity

import (
	"slices"
	"time"
)

// Stats summarizes an activity log.
type Stats struct {
	Current     int
	Longest     int
	LastActive  string
	AliveToday  bool
	ActiveToday bool
}

// CalculateStreak counts consecutive calendar days in log, a list of
// YYYY-MM-DD dates. The current streak is zero once the latest day is
// older than yesterday; several entries for one day count once.
// Unparseable entries are ignored.
func CalculateStreak(log []string, now time.Time, loc *time.Location) Stats {
	days := uniqueDays(log)
	if len(days) == 0 {
		return Stats{}
	}

	local := now.In(loc)
	today := civil(local.Year(), local.Month(), local.Day())
	yesterday := today.AddDate(0, 0, -1)
	latest := days[0]

	st := Stats{
		LastActive:  latest.Format(time.DateOnly),
		ActiveToday: latest.Equal(today),
		AliveToday:  latest.Equal(today) || latest.Equal(yesterday),
	}

	if !latest.Before(yesterday) {
		expected := latest
		for _, d := range days {
			if !d.Equal(expected) {
				break
			}
			st.Current++
			expected = expected.AddDate(0, 0, -1)
		}
	}

	run := 0
	for i, d := range days {
		if i > 0 && days[i-1].AddDate(0, 0, -1).Equal(d) {
			run++
		} else {
			run = 1
		}
		st.Longest = max(st.Longest, run)
	}

	return st
}

// uniqueDays parses log into distinct UTC-midnight dates, newest first.
func uniqueDays(log []string) []time.Time {
	seen := make(map[time.Time]struct{}, len(log))
	days := make([]time.Time, 0, len(log))
	for _, s := range log {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	return days
}

func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
