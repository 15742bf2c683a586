package domain

// CurrentStreak counts consecutive active days ending today. When today has
// no activity yet the streak is still alive if yesterday was active.
func CurrentStreak(cal Calendar) int {
	n := len(cal)
	if n == 0 {
		return 0
	}

	start := n - 1
	if !cal[start].active() {
		start--
		if start < 0 || !cal[start].active() {
			return 0
		}
	}

	streak := 0
	for i := start; i >= 0 && cal[i].active(); i-- {
		streak++
	}
	return streak
}

// LongestStreak is the longest run of active days inside the calendar.
func LongestStreak(cal Calendar) int {
	longest, run := 0, 0
	for _, b := range cal {
		if !b.active() {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}
