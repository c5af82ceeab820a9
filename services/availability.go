package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"c2c-api/models"
	"c2c-api/utils"
)

// AvailabilityService answers "who has free capacity in this date
// range" using the hour ledger's view of planned timesheets.
type AvailabilityService struct {
	db     *gorm.DB
	ledger *HourLedger
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{db: db, ledger: NewHourLedger(db)}
}

// AvailabilityQuery searches employees by optional name fragment for a
// date range and required free hours.
type AvailabilityQuery struct {
	Name          string
	Start         time.Time
	End           time.Time
	RequiredHours float64
}

// EmployeeAvailability is one employee's capacity in the queried range.
type EmployeeAvailability struct {
	ResourceID         string  `json:"resource_id"`
	ResourceName       string  `json:"resource_name"`
	AvailableHours     float64 `json:"available_hours"`
	PrePlannedHours    float64 `json:"pre_planned_hours"`
	Skills             string  `json:"skills"`
	AvailabilityStatus string  `json:"availability_status"`
}

// Search computes each matching employee's free hours as weekday
// capacity minus already planned weekday hours in the range, and labels
// them available when the remainder covers the required hours.
func (s *AvailabilityService) Search(q AvailabilityQuery) ([]EmployeeAvailability, error) {
	var employees []models.Employee
	if err := s.db.Find(&employees).Error; err != nil {
		return nil, err
	}

	capacity := utils.WeekdayHoursBetween(q.Start, q.End)
	var out []EmployeeAvailability
	for _, employee := range employees {
		if q.Name != "" && !strings.Contains(strings.ToLower(employee.EmployeeFullName), strings.ToLower(q.Name)) {
			continue
		}

		planned, err := s.plannedWeekdayHours(employee.EmployeeSourceID, q.Start, q.End)
		if err != nil {
			return nil, err
		}
		free := capacity - planned
		if free < 0 {
			free = 0
		}
		label := "Available"
		if planned > 0 && free < q.RequiredHours {
			label = "Not Available"
		}
		out = append(out, EmployeeAvailability{
			ResourceID:         employee.EmployeeSourceID,
			ResourceName:       employee.EmployeeFullName,
			AvailableHours:     free,
			PrePlannedHours:    capacity - free,
			Skills:             employee.EmployeeSkills,
			AvailabilityStatus: label,
		})
	}
	return out, nil
}

// plannedWeekdayHours sums the employee's committed weekday hours
// inside [start, end]. Weekend plan entries do not consume capacity.
func (s *AvailabilityService) plannedWeekdayHours(resourceID string, start, end time.Time) (float64, error) {
	committed, err := s.ledger.CommittedHours(resourceID, start, end)
	if err != nil {
		return 0, err
	}
	var total float64
	for date, hours := range committed {
		day, err := utils.ParseDayMonthYear(date)
		if err != nil {
			continue
		}
		if utils.IsWeekend(day) || day.Before(start) || day.After(end) {
			continue
		}
		total += hours
	}
	return total, nil
}
