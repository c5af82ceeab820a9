package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"c2c-api/models"
	"c2c-api/utils"
)

// hrPoolApprover is stamped on unplanned rows so the HR manager pool
// picks them up without a contract approver list.
var hrPoolApprover = models.ApproverList{{ApproverID: "PMO1", ApproverName: "HR Manager"}}

// EntryService handles employee-facing weekly submissions and the
// recalled/missing week scans feeding the timesheet form.
type EntryService struct {
	db *gorm.DB
}

func NewEntryService(db *gorm.DB) *EntryService {
	return &EntryService{db: db}
}

// WeekContractSubmission is one contract line of a weekly submission.
type WeekContractSubmission struct {
	ClientName      string `json:"client_name"`
	ContractSowName string `json:"contract_sow_name"`
	BillableHours   string `json:"billable_hours"`
}

// SubmitWeekRequest is an employee's submission for one week. Hours
// arrive as HH:MM strings.
type SubmitWeekRequest struct {
	EmployeeID               string                   `json:"employee_id" binding:"required"`
	Year                     int                      `json:"year" binding:"required"`
	WeekNumber               int                      `json:"week_number" binding:"required"`
	NonBillableHours         string                   `json:"non_billable_hours"`
	UnplannedHours           string                   `json:"unplanned_hours"`
	TotalHours               string                   `json:"total_hours"`
	NonBillableHoursComments string                   `json:"non_billable_hours_comments"`
	UnplannedHoursComments   string                   `json:"unplanned_hours_comments"`
	Timesheets               []WeekContractSubmission `json:"timesheets"`
}

// SubmissionError reports one contract line that failed to apply.
type SubmissionError struct {
	Entry WeekContractSubmission `json:"entry"`
	Error string                 `json:"error"`
}

// Submit records a week: the unplanned/time-off row is upserted (or
// zeroed out when the week carries no such hours), then each contract
// line update-or-creates its weekly entry in submitted state. Contract
// lines fail independently.
func (s *EntryService) Submit(req SubmitWeekRequest) ([]SubmissionError, error) {
	var employee models.Employee
	if err := s.db.First(&employee, "employee_source_id = ?", req.EmployeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "employee", Key: req.EmployeeID}
		}
		return nil, err
	}
	userEmail := employee.EmployeeEmail

	nonBillable := utils.ParseHours(req.NonBillableHours)
	unplanned := utils.ParseHours(req.UnplannedHours)
	if math.Abs(nonBillable) > hoursEpsilon || math.Abs(unplanned) > hoursEpsilon {
		if err := s.upsertUnplanned(req, employee, nonBillable, unplanned, userEmail); err != nil {
			return nil, err
		}
	} else {
		if err := s.zeroOutUnplanned(req); err != nil {
			return nil, err
		}
	}

	var failures []SubmissionError
	for _, line := range req.Timesheets {
		if err := s.applyContractLine(req, employee, line, userEmail); err != nil {
			failures = append(failures, SubmissionError{Entry: line, Error: err.Error()})
		}
	}
	return failures, nil
}

func (s *EntryService) upsertUnplanned(req SubmitWeekRequest, employee models.Employee, nonBillable, unplanned float64, userEmail string) error {
	var row models.EmployeeUnplannedNonbillableHours
	err := s.db.First(&row, "employee_id = ? AND year = ? AND week_number = ?",
		employee.EmployeeSourceID, req.Year, req.WeekNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.EmployeeUnplannedNonbillableHours{
			EmployeeID:               employee.EmployeeSourceID,
			Year:                     req.Year,
			WeekNumber:               req.WeekNumber,
			Approver:                 hrPoolApprover,
			NonBillableHours:         nonBillable,
			UnplannedHours:           unplanned,
			NonBillableHoursComments: req.NonBillableHoursComments,
			UnplannedHoursComments:   req.UnplannedHoursComments,
			TsApprovalStatus:         models.StatusSubmitted,
			UsernameCreated:          userEmail,
		}
		return s.db.Create(&row).Error
	}
	if err != nil {
		return err
	}
	row.NonBillableHours = nonBillable
	row.UnplannedHours = unplanned
	row.NonBillableHoursComments = req.NonBillableHoursComments
	row.UnplannedHoursComments = req.UnplannedHoursComments
	row.TsApprovalStatus = models.StatusSubmitted
	row.UsernameUpdated = userEmail
	return s.db.Save(&row).Error
}

// zeroOutUnplanned clears an existing unplanned row for the week. A
// missing row is fine, most weeks never have one.
func (s *EntryService) zeroOutUnplanned(req SubmitWeekRequest) error {
	var row models.EmployeeUnplannedNonbillableHours
	err := s.db.First(&row, "employee_id = ? AND year = ? AND week_number = ?",
		req.EmployeeID, req.Year, req.WeekNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	row.UnplannedHours = 0
	row.NonBillableHours = 0
	return s.db.Save(&row).Error
}

func (s *EntryService) applyContractLine(req SubmitWeekRequest, employee models.Employee, line WeekContractSubmission, userEmail string) error {
	var client models.Client
	if err := s.db.First(&client, "name = ?", line.ClientName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("client with name %q does not exist", line.ClientName)
		}
		return err
	}
	var sow models.SowContract
	if err := s.db.First(&sow, "contractsow_name = ? AND client_uuid = ?", line.ContractSowName, client.UUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("contract SOW %q does not exist for client %q", line.ContractSowName, client.Name)
		}
		return err
	}

	var ts models.Timesheet
	err := s.db.First(&ts, "resource_id = ? AND client_uuid = ? AND contract_sow_uuid = ?",
		employee.EmployeeSourceID, client.UUID, sow.UUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ts = models.Timesheet{
			ClientUUID:      client.UUID,
			ContractSowUUID: sow.UUID,
			ResourceID:      employee.EmployeeSourceID,
			UsernameCreated: userEmail,
			UsernameUpdated: userEmail,
		}
		if err := s.db.Create(&ts).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var entry models.EmployeeEntryTimesheet
	err = s.db.First(&entry,
		"timesheet_id = ? AND year = ? AND week_number = ? AND client_uuid = ? AND contract_sow_uuid = ?",
		ts.ID, req.Year, req.WeekNumber, client.UUID, sow.UUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = models.EmployeeEntryTimesheet{
			TimesheetID:     &ts.ID,
			EmployeeID:      employee.EmployeeSourceID,
			Year:            req.Year,
			WeekNumber:      req.WeekNumber,
			ClientUUID:      client.UUID,
			ContractSowUUID: sow.UUID,
			Approver:        ts.Approver,
			UsernameCreated: userEmail,
		}
	} else if err != nil {
		return err
	}

	entry.BillableHours = utils.ParseHours(line.BillableHours)
	entry.NonBillableHours = 0
	entry.UnplannedHours = 0
	entry.TotalHours = utils.ParseHours(req.TotalHours)
	entry.TsApprovalStatus = models.StatusSubmitted
	entry.UsernameUpdated = userEmail
	return s.db.Save(&entry).Error
}

// WeekContractLine is one contract row inside a week report.
type WeekContractLine struct {
	ClientName       string `json:"client_name"`
	ContractSowName  string `json:"contract_sow_name"`
	AllocatedHours   string `json:"allocated_hours"`
	BillableHours    string `json:"billable_hours"`
	NonBillableHours string `json:"non_billable_hours"`
	TotalHours       string `json:"total_hours,omitempty"`
	Status           string `json:"timesheet_status"`
	ManagerComments  string `json:"manager_comments"`
}

// WeekReport is one week of an employee's timesheet form: missing or
// recalled, with the contract lines and unplanned bucket for that week.
type WeekReport struct {
	WeekStartDate          string             `json:"week_start_date"`
	WeekEndDate            string             `json:"week_end_date"`
	Year                   int                `json:"year"`
	WeekNumber             int                `json:"week_number"`
	TimeoffHours           string             `json:"timeoff_hours"`
	UnplannedHours         string             `json:"unplanned_hours"`
	TotalHours             string             `json:"total_hours"`
	TimeoffHoursComments   string             `json:"timeoff_hours_comments"`
	UnplannedHoursComments string             `json:"unplanned_hours_comments"`
	ApproverComments       string             `json:"approver_comments"`
	Status                 string             `json:"timesheet_status"`
	Timesheets             []WeekContractLine `json:"timesheets"`
}

// MissingWeeksResult is the timesheet form backlog for one employee.
type MissingWeeksResult struct {
	Weeks         []WeekReport `json:"results"`
	HasRecalled   bool         `json:"is_recalled_timesheets"`
	RecalledCount int          `json:"total_recalled_count"`
}

// MissingWeeks scans the employee's assignment windows for weeks with
// no submission yet and merges in recalled weeks awaiting resubmission.
// Windows that ended more than four weeks ago are still scanned up to
// today; a recalled week replaces its missing counterpart.
func (s *EntryService) MissingWeeks(employeeEmail string, today time.Time) (*MissingWeeksResult, error) {
	var employee models.Employee
	if err := s.db.First(&employee, "employee_email = ?", employeeEmail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "employee", Key: employeeEmail}
		}
		return nil, err
	}
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	fourWeeksAgo := today.AddDate(0, 0, -28)

	var timesheets []models.Timesheet
	if err := s.db.Where("resource_id = ?", employee.EmployeeSourceID).Find(&timesheets).Error; err != nil {
		return nil, err
	}

	type entryKey struct {
		TimesheetID uint
		Week        int
		Year        int
	}
	var entries []models.EmployeeEntryTimesheet
	if err := s.db.Where("employee_id = ?", employee.EmployeeSourceID).Find(&entries).Error; err != nil {
		return nil, err
	}
	existing := map[entryKey]bool{}
	for _, entry := range entries {
		if entry.TimesheetID != nil {
			existing[entryKey{*entry.TimesheetID, entry.WeekNumber, entry.Year}] = true
		}
	}

	var missing []WeekReport
	for _, ts := range timesheets {
		window := ts.ResourceEstimationData
		start, err := utils.ParseFlexibleDate(window.StartDate)
		if err != nil {
			continue
		}
		end, err := utils.ParseFlexibleDate(window.EndDate)
		if err != nil {
			continue
		}
		rangeEnd := today
		if end.After(fourWeeksAgo) && end.Before(today) {
			rangeEnd = end
		}

		for _, week := range utils.WeeksInRange(start, rangeEnd) {
			if existing[entryKey{ts.ID, week.Week, week.Year}] {
				continue
			}
			weekStart, weekEnd := utils.WeekWorkdayBounds(week.Year, week.Week)
			line := WeekContractLine{
				ClientName:       s.clientName(ts.ClientUUID),
				ContractSowName:  s.contractName(ts.ContractSowUUID),
				AllocatedHours:   utils.FormatHours(window.HoursForWeek(weekStart, weekEnd)),
				BillableHours:    utils.FormatHours(0),
				NonBillableHours: utils.FormatHours(0),
				Status:           models.StatusNotSubmitted,
			}

			merged := false
			for i := range missing {
				if missing[i].WeekNumber == week.Week && missing[i].Year == week.Year {
					missing[i].Timesheets = append(missing[i].Timesheets, line)
					merged = true
					break
				}
			}
			if merged {
				continue
			}
			missing = append(missing, WeekReport{
				WeekStartDate:  weekStart.Format("2006-01-02"),
				WeekEndDate:    weekEnd.Format("2006-01-02"),
				Year:           week.Year,
				WeekNumber:     week.Week,
				TimeoffHours:   utils.FormatHours(0),
				UnplannedHours: utils.FormatHours(0),
				TotalHours:     utils.FormatHours(0),
				Status:         models.StatusNotSubmitted,
				Timesheets:     []WeekContractLine{line},
			})
		}
	}

	recalled, err := s.RecalledWeeks(employee)
	if err != nil {
		return nil, err
	}
	byStart := map[string]WeekReport{}
	var order []string
	for _, week := range recalled {
		byStart[week.WeekStartDate] = week
		order = append(order, week.WeekStartDate)
	}
	for _, week := range missing {
		if _, ok := byStart[week.WeekStartDate]; !ok {
			byStart[week.WeekStartDate] = week
			order = append(order, week.WeekStartDate)
		}
	}

	weeks := make([]WeekReport, 0, len(order))
	for _, key := range order {
		weeks = append(weeks, byStart[key])
	}
	sort.SliceStable(weeks, func(i, j int) bool {
		if weeks[i].Year != weeks[j].Year {
			return weeks[i].Year > weeks[j].Year
		}
		return weeks[i].WeekNumber > weeks[j].WeekNumber
	})

	return &MissingWeeksResult{
		Weeks:         weeks,
		HasRecalled:   len(recalled) > 0,
		RecalledCount: len(recalled),
	}, nil
}

// RecalledWeeks lists the employee's weeks sent back by an approver,
// grouped per week across contracts and merged with the recalled
// unplanned row when one exists.
func (s *EntryService) RecalledWeeks(employee models.Employee) ([]WeekReport, error) {
	var entries []models.EmployeeEntryTimesheet
	err := s.db.Where("employee_id = ? AND ts_approval_status = ?",
		employee.EmployeeSourceID, models.StatusRecall).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	var unplannedRows []models.EmployeeUnplannedNonbillableHours
	err = s.db.Where("employee_id = ? AND ts_approval_status = ?",
		employee.EmployeeSourceID, models.StatusRecall).Find(&unplannedRows).Error
	if err != nil {
		return nil, err
	}

	grouped := map[utils.WeekKey]*WeekReport{}
	report := func(key utils.WeekKey) *WeekReport {
		if r, ok := grouped[key]; ok {
			return r
		}
		weekStart, weekEnd := utils.WeekWorkdayBounds(key.Year, key.Week)
		r := &WeekReport{
			WeekStartDate:  weekStart.Format("2006-01-02"),
			WeekEndDate:    weekEnd.Format("2006-01-02"),
			Year:           key.Year,
			WeekNumber:     key.Week,
			TimeoffHours:   utils.FormatHours(0),
			UnplannedHours: utils.FormatHours(0),
			Status:         models.StatusRecall,
		}
		grouped[key] = r
		return r
	}

	totals := map[utils.WeekKey]float64{}
	for _, entry := range entries {
		key := utils.WeekKey{Year: entry.Year, Week: entry.WeekNumber}
		r := report(key)

		allocated := 0.0
		if entry.TimesheetID != nil {
			var ts models.Timesheet
			if err := s.db.First(&ts, "id = ?", *entry.TimesheetID).Error; err == nil {
				weekStart, weekEnd := utils.WeekWorkdayBounds(key.Year, key.Week)
				allocated = ts.ResourceEstimationData.HoursForWeek(weekStart, weekEnd)
			}
		}
		r.Timesheets = append(r.Timesheets, WeekContractLine{
			ClientName:       s.clientName(entry.ClientUUID),
			ContractSowName:  s.contractName(entry.ContractSowUUID),
			AllocatedHours:   utils.FormatHours(allocated),
			BillableHours:    utils.FormatHours(entry.BillableHours),
			NonBillableHours: utils.FormatHours(entry.NonBillableHours),
			TotalHours:       utils.FormatHours(entry.TotalHours),
			Status:           entry.TsApprovalStatus,
			ManagerComments:  entry.ApproverComments,
		})
		totals[key] += entry.BillableHours + entry.NonBillableHours
	}
	for _, row := range unplannedRows {
		key := utils.WeekKey{Year: row.Year, Week: row.WeekNumber}
		r := report(key)
		r.TimeoffHours = utils.FormatHours(row.NonBillableHours)
		r.UnplannedHours = utils.FormatHours(row.UnplannedHours)
		r.TimeoffHoursComments = row.NonBillableHoursComments
		r.UnplannedHoursComments = row.UnplannedHoursComments
		r.ApproverComments = row.ApproverComments
		totals[key] += row.NonBillableHours + row.UnplannedHours
	}

	var out []WeekReport
	for key, r := range grouped {
		r.TotalHours = utils.FormatHours(totals[key])
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].WeekNumber < out[j].WeekNumber
	})
	return out, nil
}

func (s *EntryService) clientName(clientUUID string) string {
	if clientUUID == "" {
		return "N/A"
	}
	var client models.Client
	if err := s.db.First(&client, "uuid = ?", clientUUID).Error; err != nil {
		return "N/A"
	}
	return client.Name
}

func (s *EntryService) contractName(sowUUID string) string {
	if sowUUID == "" {
		return "N/A"
	}
	var sow models.SowContract
	if err := s.db.First(&sow, "uuid = ?", sowUUID).Error; err != nil {
		return "N/A"
	}
	return sow.ContractSowName
}
