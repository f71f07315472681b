package schedule

import (
	"time"

	"github.com/frahmantamala/gearguard/internal/request"
)

const dayLayout = "2006-01-02"

type Day struct {
	Date     string            `json:"date"`
	InMonth  bool              `json:"in_month"`
	Requests []request.Request `json:"requests"`
}

type Month struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	WeekStart string  `json:"week_start"`
	Weeks     [][]Day `json:"weeks"`
}

// DayKey is the calendar cell a timestamp belongs to: its UTC date. Time of
// day is ignored.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// GridBounds returns the first rendered day and the day after the last one.
// The grid starts on weekStart on or before the 1st and ends on the last
// weekday on or after the month's final day.
func GridBounds(year int, month time.Month, weekStart time.Weekday) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	lead := (int(first.Weekday()) - int(weekStart) + 7) % 7
	start := first.AddDate(0, 0, -lead)

	weekEnd := (weekStart + 6) % 7
	trail := (int(weekEnd) - int(last.Weekday()) + 7) % 7
	end := last.AddDate(0, 0, trail+1)

	return start, end
}

// CalendarMonth buckets reqs into the padded month grid by date equality of
// ScheduledDate. Requests outside the grid are left out.
func CalendarMonth(year int, month time.Month, reqs []request.Request, weekStart time.Weekday) Month {
	start, end := GridBounds(year, month, weekStart)

	byDay := make(map[string][]request.Request)
	for _, r := range reqs {
		key := DayKey(r.ScheduledDate)
		byDay[key] = append(byDay[key], r)
	}

	out := Month{Year: year, Month: int(month), WeekStart: weekStart.String()}
	var week []Day
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := DayKey(d)
		items := byDay[key]
		if items == nil {
			items = []request.Request{}
		}
		week = append(week, Day{Date: key, InMonth: d.Month() == month, Requests: items})
		if len(week) == 7 {
			out.Weeks = append(out.Weeks, week)
			week = nil
		}
	}
	return out
}

// Find returns the cell for a date, if it is on the grid.
func (m Month) Find(date string) (Day, bool) {
	for _, w := range m.Weeks {
		for _, d := range w {
			if d.Date == date {
				return d, true
			}
		}
	}
	return Day{}, false
}
