package domain

import "sort"

// ComputeStreak counts consecutive checked-in days ending today, or ending
// yesterday when today is not checked in yet.
func ComputeStreak(days DaySet, today string) int {
	if len(days) == 0 {
		return 0
	}
	cursor := today
	if !days.Has(cursor) {
		prev, err := AddDays(cursor, -1)
		if err != nil {
			return 0
		}
		cursor = prev
	}

	streak := 0
	for days.Has(cursor) {
		streak++
		prev, err := AddDays(cursor, -1)
		if err != nil {
			break
		}
		cursor = prev
	}
	return streak
}

// LongestStreak returns the longest run of consecutive days in the set.
// Malformed keys are ignored.
func LongestStreak(days DaySet) int {
	keys := make([]string, 0, len(days))
	for d := range days {
		if _, err := ParseDay(d); err == nil {
			keys = append(keys, d)
		}
	}
	sort.Strings(keys)

	longest, run := 0, 0
	prev := ""
	for _, d := range keys {
		if prev != "" {
			if next, _ := AddDays(prev, 1); next == d {
				run++
			} else {
				run = 1
			}
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}
	return longest
}
