package models

import (
	"time"

	"github.com/shopspring/decimal"

	"c2c-api/utils"
)

// Billability values carried on estimation windows.
const (
	Billable    = "Billable"
	NonBillable = "Non-Billable"
)

// DailyHours is one day of planned hours, keyed by a DD/MM/YYYY date.
type DailyHours struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// WeeklyHours is the per-week rollup stored alongside the daily plan.
type WeeklyHours struct {
	Week  string  `json:"week"`
	Hours float64 `json:"hours"`
}

type EstimationData struct {
	Daily  []DailyHours  `json:"daily"`
	Weekly []WeeklyHours `json:"weekly,omitempty"`
}

type PayRateInfo struct {
	BillRate decimal.Decimal `json:"billrate"`
}

// EstimationWindow is the hour plan a resource slot is held to. An
// Estimation's resource plan is a list of these (one per role line,
// shared across num_of_resources headcount slots); each Timesheet owns
// a private copy that reconciliation rewrites as effective dates move.
//
// The JSON field names match the stored blob format, which predates
// this service.
type EstimationWindow struct {
	Role           string         `json:"role,omitempty"`
	StartDate      string         `json:"start_date,omitempty"`
	EndDate        string         `json:"end_date,omitempty"`
	NumOfResources int            `json:"num_of_resources,omitempty"`
	Billability    string         `json:"billability,omitempty"`
	EstimationData EstimationData `json:"Estimation_Data"`
	PayRateInfo    *PayRateInfo   `json:"pay_rate_info,omitempty"`
}

// ResourcePlan is the ordered list of role lines on an Estimation.
type ResourcePlan []EstimationWindow

// DailyMap sums the daily plan into a date string -> hours map.
func (w EstimationWindow) DailyMap() map[string]float64 {
	m := make(map[string]float64, len(w.EstimationData.Daily))
	for _, entry := range w.EstimationData.Daily {
		m[entry.Date] += entry.Hours
	}
	return m
}

// WeeksTouched lists the ISO weeks covered by the daily plan. Entries
// with unparseable dates are skipped.
func (w EstimationWindow) WeeksTouched() []utils.WeekKey {
	var weeks []utils.WeekKey
	seen := map[utils.WeekKey]bool{}
	for _, entry := range w.EstimationData.Daily {
		day, err := utils.ParseDayMonthYear(entry.Date)
		if err != nil {
			continue
		}
		key := utils.ISOWeekOf(day)
		if !seen[key] {
			seen[key] = true
			weeks = append(weeks, key)
		}
	}
	return weeks
}

// HoursForWeek sums planned hours for daily entries inside [start, end].
func (w EstimationWindow) HoursForWeek(start, end time.Time) float64 {
	var total float64
	for _, entry := range w.EstimationData.Daily {
		day, err := utils.ParseDayMonthYear(entry.Date)
		if err != nil {
			continue
		}
		if !day.Before(start) && !day.After(end) {
			total += entry.Hours
		}
	}
	return total
}

// SplitWindow partitions a window at the effective date. The before
// part keeps daily entries on or before the date and ends there; the
// after part keeps entries on or after the date and starts there. The
// union of both daily lists is the original list partitioned at the
// boundary (the boundary day itself lands in both bounds but each daily
// entry lands in exactly one part: before takes <=, after takes >).
func SplitWindow(w EstimationWindow, effective time.Time) (before, after EstimationWindow) {
	before = w
	after = w
	boundary := utils.FormatUTCDate(effective)

	var keepBefore, keepAfter []DailyHours
	for _, entry := range w.EstimationData.Daily {
		day, err := utils.ParseDayMonthYear(entry.Date)
		if err != nil {
			continue
		}
		if day.After(effective) {
			keepAfter = append(keepAfter, entry)
		} else {
			keepBefore = append(keepBefore, entry)
		}
	}
	before.EstimationData.Daily = keepBefore
	before.EndDate = boundary
	after.EstimationData.Daily = keepAfter
	after.StartDate = boundary
	return before, after
}

// TruncatedAt returns the window ending at the effective date: daily
// entries after the date are dropped and end_date moves to it.
func (w EstimationWindow) TruncatedAt(effective time.Time) EstimationWindow {
	before, _ := SplitWindow(w, effective)
	return before
}

// StartingFrom returns the window beginning at the effective date:
// daily entries before the date are dropped and start_date moves to it.
// Unlike the after part of SplitWindow, the effective day itself is
// kept, so a truncate-at/start-from pair on two timesheets overlaps
// only on the boundary day.
func (w EstimationWindow) StartingFrom(effective time.Time) EstimationWindow {
	kept := make([]DailyHours, 0, len(w.EstimationData.Daily))
	for _, entry := range w.EstimationData.Daily {
		day, err := utils.ParseDayMonthYear(entry.Date)
		if err != nil {
			continue
		}
		if !day.Before(effective) {
			kept = append(kept, entry)
		}
	}
	out := w
	out.EstimationData.Daily = kept
	out.StartDate = utils.FormatUTCDate(effective)
	return out
}
