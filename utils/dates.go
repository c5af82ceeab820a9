package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DayMonthYear is the format used by daily estimation entries.
const DayMonthYear = "02/01/2006"

// UTCDate is the format the UI sends for assignment boundaries and
// effective dates.
const UTCDate = "2006-01-02T15:04:05Z"

var flexibleFormats = []string{
	DayMonthYear,
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	"2006-01-02",
}

// ParseDayMonthYear parses a DD/MM/YYYY date string.
func ParseDayMonthYear(s string) (time.Time, error) {
	return time.Parse(DayMonthYear, strings.TrimSpace(s))
}

// ParseFlexibleDate accepts the date formats that appear in stored
// assignment data (DD/MM/YYYY, UTC timestamps, plain ISO dates) and
// returns the date truncated to midnight UTC.
func ParseFlexibleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, format := range flexibleFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// FormatUTCDate renders a date as the UTC boundary string stored in
// resource estimation data.
func FormatUTCDate(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(UTCDate)
}

// WeekKey identifies an ISO week.
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week_number"`
}

// ISOWeekOf returns the ISO week holding t. Note that the original
// service keyed unplanned-hour rows by calendar year with ISO week
// number, so the year here is the calendar year of t, not the ISO year.
func ISOWeekOf(t time.Time) WeekKey {
	_, week := t.ISOWeek()
	return WeekKey{Year: t.Year(), Week: week}
}

// WeekBounds returns Monday and Sunday of the given ISO week.
func WeekBounds(year, week int) (time.Time, time.Time) {
	// Jan 4 is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	_, w := jan4.ISOWeek()
	monday := jan4.AddDate(0, 0, -(int(jan4.Weekday())+6)%7)
	monday = monday.AddDate(0, 0, (week-w)*7)
	return monday, monday.AddDate(0, 0, 6)
}

// WeekWorkdayBounds returns Monday and Friday of the given ISO week.
func WeekWorkdayBounds(year, week int) (time.Time, time.Time) {
	monday, _ := WeekBounds(year, week)
	return monday, monday.AddDate(0, 0, 4)
}

// FormatWeekRange renders "DD/MM/YYYY - DD/MM/YYYY" for a week.
func FormatWeekRange(year, week int) string {
	start, end := WeekBounds(year, week)
	return start.Format(DayMonthYear) + " - " + end.Format(DayMonthYear)
}

// WeeksInRange lists the weeks touched by [start, end] in order. A
// start falling on a weekend rolls forward to the next Monday.
func WeeksInRange(start, end time.Time) []WeekKey {
	if start.Weekday() == time.Saturday || start.Weekday() == time.Sunday {
		start = start.AddDate(0, 0, (8-int(start.Weekday()))%7)
	}
	var weeks []WeekKey
	seen := map[WeekKey]bool{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := ISOWeekOf(d)
		if !seen[key] {
			seen[key] = true
			weeks = append(weeks, key)
		}
	}
	return weeks
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// WeekdayHoursBetween is the plain weekday capacity of [start, end] at
// eight hours a day.
func WeekdayHoursBetween(start, end time.Time) float64 {
	var total float64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) {
			total += 8
		}
	}
	return total
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseHours converts an "HH:MM" or plain numeric string to decimal
// hours. Unparseable input yields zero, matching the lenient intake of
// the weekly submission form.
func ParseHours(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if m := clockPattern.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		return round2(float64(hours) + float64(minutes)/60.0)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return round2(v)
	}
	return 0
}

// FormatHours renders decimal hours as "HH:MM".
func FormatHours(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	totalMinutes := int(hours * 60)
	return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
