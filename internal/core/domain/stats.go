package domain

import "time"

type ActivitySummary struct {
	Today         string   `json:"today"`
	Heatmap       Calendar `json:"heatmap"`
	Streak        int      `json:"streak"`
	LongestStreak int      `json:"longest_streak"`
	TotalCount    int      `json:"total_count"`
}

type ConsistencyStats struct {
	Consistency    int          `json:"consistency"`
	CompletedCount int          `json:"completed_count"`
	PendingCount   int          `json:"pending_count"`
	Trend          []TrendPoint `json:"trend"`
}

// TrendPoint is one day of the short activity trend.
type TrendPoint struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Trend projects the last TrendDays days of the calendar.
func Trend(cal Calendar) []TrendPoint {
	tail := cal.Tail(TrendDays)
	points := make([]TrendPoint, 0, len(tail))
	for _, b := range tail {
		name := ""
		if d, err := time.Parse(dateLayout, b.Date); err == nil {
			name = d.Weekday().String()[:3]
		}
		points = append(points, TrendPoint{Name: name, Date: b.Date, Count: safeCount(b.Count)})
	}
	return points
}
