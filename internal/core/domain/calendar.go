package domain

import "time"

const (
	CalendarDays    = 365
	ConsistencyDays = 30
	TrendDays       = 7

	dateLayout = "2006-01-02"
)

// DayBucket aggregates the activity of one local calendar day.
type DayBucket struct {
	Date     string   `json:"date"`
	Count    int      `json:"count"`
	Messages []string `json:"messages"`
	Level    int      `json:"level"`
}

// Calendar is an ordered run of consecutive days, oldest first.
type Calendar []DayBucket

// DateKey maps an instant to the YYYY-MM-DD key of the local calendar day
// it falls on in loc. A nil loc means UTC.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return civilDate(y, m, d).Format(dateLayout)
}

// civilDate anchors a calendar date at UTC midnight so day arithmetic is
// free of DST shifts.
func civilDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildCalendar folds events into the trailing CalendarDays window ending on
// today's local date. Events outside the window are ignored.
func BuildCalendar(events []*ActivityEvent, today time.Time, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}

	y, m, d := today.In(loc).Date()
	end := civilDate(y, m, d)

	cal := make(Calendar, CalendarDays)
	index := make(map[string]int, CalendarDays)
	for i := 0; i < CalendarDays; i++ {
		key := end.AddDate(0, 0, i-(CalendarDays-1)).Format(dateLayout)
		cal[i] = DayBucket{Date: key, Messages: []string{}}
		index[key] = i
	}

	for _, e := range events {
		if e == nil {
			continue
		}
		i, ok := index[e.LocalDateKey(loc)]
		if !ok {
			continue
		}
		cal[i].Count++
		if e.Message != "" {
			cal[i].Messages = append(cal[i].Messages, e.Message)
		}
	}

	for i := range cal {
		cal[i].Level = intensityLevel(cal[i].Count)
	}

	return cal
}

// intensityLevel buckets a day count into the 0-4 heatmap shades.
func intensityLevel(count int) int {
	switch {
	case count <= 0:
		return 0
	case count < 2:
		return 1
	case count < 4:
		return 2
	case count < 6:
		return 3
	default:
		return 4
	}
}

// Total is the number of events folded into the calendar.
func (c Calendar) Total() int {
	total := 0
	for _, b := range c {
		total += safeCount(b.Count)
	}
	return total
}

// Tail returns the last n days, or the whole calendar if it is shorter.
func (c Calendar) Tail(n int) Calendar {
	if n >= len(c) {
		return c
	}
	if n <= 0 {
		return Calendar{}
	}
	return c[len(c)-n:]
}

func safeCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (b DayBucket) active() bool {
	return safeCount(b.Count) > 0
}
