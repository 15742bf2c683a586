package domain

// ConsistencyScore is the share of the last ConsistencyDays days (today
// included) with at least one activity, scaled to 0-100 and rounded half-up.
func ConsistencyScore(cal Calendar) int {
	active := 0
	for _, b := range cal.Tail(ConsistencyDays) {
		if b.active() {
			active++
		}
	}
	// round(100*active/30) with half-up in integer arithmetic
	return (200*active + ConsistencyDays) / (2 * ConsistencyDays)
}
