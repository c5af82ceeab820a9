package services

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	"c2c-api/config"
	"c2c-api/models"
	"c2c-api/utils"
)

// ApproverRoles captures which approval roles the caller holds. The
// HTTP layer fills it from the token's resolved roles.
type ApproverRoles struct {
	Admin   bool
	Manager bool
	HR      bool
	Guest   bool
}

// ApprovalService drives the submit/approve/recall workflow over weekly
// entries and unplanned-hours rows.
type ApprovalService struct {
	db *gorm.DB
}

func NewApprovalService(db *gorm.DB) *ApprovalService {
	return &ApprovalService{db: db}
}

// ApproverIDByEmail resolves an approver email to a guest user id or an
// employee source id, guests first. Returns empty when neither exists.
func (s *ApprovalService) ApproverIDByEmail(email string) (string, error) {
	if email == "" {
		return "", nil
	}
	var guest models.GuestUser
	err := s.db.First(&guest, "guest_user_email_id = ?", email).Error
	if err == nil {
		return guest.GuestUserID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	var employee models.Employee
	err = s.db.First(&employee, "employee_email = ?", email).Error
	if err == nil {
		return employee.EmployeeSourceID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	return "", nil
}

// PendingContract is one contract line inside a pending week bucket.
type PendingContract struct {
	EntryID          uint   `json:"timesheet_id"`
	ClientName       string `json:"client_name"`
	ContractSowName  string `json:"contract_sow_name"`
	BillableHours    string `json:"billable_hours"`
	NonBillableHours string `json:"non_billable_hours"`
	TotalHours       string `json:"total_hours"`
	Status           string `json:"timesheet_status"`
}

// PendingWeek merges every contract an employee worked in one week.
type PendingWeek struct {
	Week           string            `json:"week"`
	WeekNumber     int               `json:"week_number"`
	Year           int               `json:"year"`
	Contracts      []PendingContract `json:"contracts"`
	UnplannedHours string            `json:"unplanned_hours"`
	TimeoffHours   string            `json:"timeoff_hours"`
	UnplannedID    uint              `json:"unplanned_timesheet_id,omitempty"`
	UnplannedState string            `json:"unplanned_timesheet_status,omitempty"`
}

// PendingEmployee is one employee's pending-approval bucket.
type PendingEmployee struct {
	EmployeeID        string        `json:"employee_id"`
	EmployeeName      string        `json:"employee_name"`
	IsBillable        bool          `json:"isBillable"`
	PendingTimesheets []PendingWeek `json:"pending_timesheets"`
}

// PendingForApprover lists submitted weekly entries the caller may act
// on, grouped per employee and merged per week. Admins see everything,
// guests see their clients, managers see entries naming them as
// approver. In the PROD profile the approver's own rows are dropped.
func (s *ApprovalService) PendingForApprover(approverEmail string, roles ApproverRoles) ([]PendingEmployee, error) {
	approverID, err := s.ApproverIDByEmail(approverEmail)
	if err != nil {
		return nil, err
	}

	entries, err := s.scopedPendingEntries(approverID, roles)
	if err != nil {
		return nil, err
	}
	return s.groupEntries(entries, approverID)
}

func (s *ApprovalService) scopedPendingEntries(approverID string, roles ApproverRoles) ([]models.EmployeeEntryTimesheet, error) {
	query := s.db.Where("ts_approval_status = ?", models.StatusSubmitted)
	switch {
	case roles.Admin:
		// unrestricted
	case roles.Guest:
		var guest models.GuestUser
		if err := s.db.First(&guest, "guest_user_id = ?", approverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if len(guest.ClientIDs) == 0 {
			return nil, nil
		}
		query = query.Where("client_uuid IN ?", []string(guest.ClientIDs))
	}

	var entries []models.EmployeeEntryTimesheet
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	if roles.Admin || roles.Guest {
		return entries, nil
	}

	// Approver lists are JSON columns, so containment is checked here
	// rather than in SQL.
	var scoped []models.EmployeeEntryTimesheet
	for _, entry := range entries {
		if entry.Approver.Contains(approverID) {
			scoped = append(scoped, entry)
		}
	}
	return scoped, nil
}

func (s *ApprovalService) groupEntries(entries []models.EmployeeEntryTimesheet, approverID string) ([]PendingEmployee, error) {
	grouped := map[string]*PendingEmployee{}
	var order []string

	for _, entry := range entries {
		if entry.EmployeeID == approverID && config.IsProd() {
			continue
		}
		bucket, ok := grouped[entry.EmployeeID]
		if !ok {
			name, err := s.employeeName(entry.EmployeeID)
			if err != nil {
				return nil, err
			}
			bucket = &PendingEmployee{EmployeeID: entry.EmployeeID, EmployeeName: name}
			grouped[entry.EmployeeID] = bucket
			order = append(order, entry.EmployeeID)
		}

		contract, billable, err := s.contractLine(entry)
		if err != nil {
			return nil, err
		}
		bucket.IsBillable = billable

		var week *PendingWeek
		for i := range bucket.PendingTimesheets {
			if bucket.PendingTimesheets[i].WeekNumber == entry.WeekNumber {
				week = &bucket.PendingTimesheets[i]
				break
			}
		}
		if week != nil {
			week.Contracts = append(week.Contracts, contract)
			continue
		}

		timeoff, unplanned, unplannedID, unplannedState, err := s.unplannedForWeek(entry.EmployeeID, entry.Year, entry.WeekNumber)
		if err != nil {
			return nil, err
		}
		bucket.PendingTimesheets = append(bucket.PendingTimesheets, PendingWeek{
			Week:           utils.FormatWeekRange(entry.Year, entry.WeekNumber),
			WeekNumber:     entry.WeekNumber,
			Year:           entry.Year,
			Contracts:      []PendingContract{contract},
			UnplannedHours: unplanned,
			TimeoffHours:   timeoff,
			UnplannedID:    unplannedID,
			UnplannedState: unplannedState,
		})
	}

	out := make([]PendingEmployee, 0, len(order))
	for _, id := range order {
		out = append(out, *grouped[id])
	}
	return out, nil
}

func (s *ApprovalService) employeeName(employeeID string) (string, error) {
	var employee models.Employee
	err := s.db.First(&employee, "employee_source_id = ?", employeeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return employeeID, nil
		}
		return "", err
	}
	return employee.EmployeeFullName, nil
}

// contractLine renders one weekly entry as its contract row and reports
// whether the backing timesheet window is billable.
func (s *ApprovalService) contractLine(entry models.EmployeeEntryTimesheet) (PendingContract, bool, error) {
	contract := PendingContract{
		EntryID:          entry.ID,
		ClientName:       "N/A",
		ContractSowName:  "N/A",
		BillableHours:    utils.FormatHours(entry.BillableHours),
		NonBillableHours: utils.FormatHours(entry.NonBillableHours),
		TotalHours:       utils.FormatHours(entry.TotalHours),
		Status:           entry.TsApprovalStatus,
	}

	if entry.ClientUUID != "" {
		var client models.Client
		if err := s.db.First(&client, "uuid = ?", entry.ClientUUID).Error; err == nil {
			contract.ClientName = client.Name
		}
	}
	if entry.ContractSowUUID != "" {
		var sow models.SowContract
		if err := s.db.First(&sow, "uuid = ?", entry.ContractSowUUID).Error; err == nil {
			contract.ContractSowName = sow.ContractSowName
		}
	}

	billable := false
	if entry.TimesheetID != nil {
		var ts models.Timesheet
		if err := s.db.First(&ts, "id = ?", *entry.TimesheetID).Error; err == nil {
			billable = ts.ResourceEstimationData.Billability == models.Billable
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return contract, false, err
		}
	}
	return contract, billable, nil
}

func (s *ApprovalService) unplannedForWeek(employeeID string, year, week int) (timeoff, unplanned string, id uint, state string, err error) {
	var row models.EmployeeUnplannedNonbillableHours
	dbErr := s.db.First(&row, "employee_id = ? AND year = ? AND week_number = ?", employeeID, year, week).Error
	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			return utils.FormatHours(0), utils.FormatHours(0), 0, "", nil
		}
		return "", "", 0, "", dbErr
	}
	return utils.FormatHours(row.NonBillableHours), utils.FormatHours(row.UnplannedHours), row.ID, row.TsApprovalStatus, nil
}

// PendingCount computes the caller's pending-approval badge. The count
// branches on the caller's role combination: admins count every
// submitted week plus the unplanned pool, managers count weeks naming
// them as approver, HR managers count the unplanned pool, and admins
// who are also managers additionally count their own approver-scoped
// weeks on top.
func (s *ApprovalService) PendingCount(approverEmail string, roles ApproverRoles) (int, error) {
	approverID, err := s.ApproverIDByEmail(approverEmail)
	if err != nil {
		return 0, err
	}

	managerWeeks, err := s.plannedWeeks(approverID)
	if err != nil {
		return 0, err
	}
	unplannedWeeks, err := s.unplannedWeeks()
	if err != nil {
		return 0, err
	}

	switch {
	case roles.Admin && roles.Manager:
		allWeeks, err := s.plannedWeeks("")
		if err != nil {
			return 0, err
		}
		return len(unionWeeks(allWeeks, unplannedWeeks)) + len(managerWeeks), nil
	case roles.Admin:
		allWeeks, err := s.plannedWeeks("")
		if err != nil {
			return 0, err
		}
		return len(unionWeeks(allWeeks, unplannedWeeks)), nil
	case roles.HR && roles.Manager:
		return len(managerWeeks) + len(unplannedWeeks), nil
	case roles.HR:
		return len(unplannedWeeks), nil
	case roles.Manager, roles.Guest:
		return len(managerWeeks), nil
	}
	return 0, nil
}

// employeeWeek identifies one pending (employee, week, year) unit.
type employeeWeek struct {
	EmployeeID string
	Week       int
	Year       int
}

func (s *ApprovalService) plannedWeeks(approverID string) (map[employeeWeek]bool, error) {
	var entries []models.EmployeeEntryTimesheet
	err := s.db.Where("ts_approval_status = ?", models.StatusSubmitted).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	weeks := map[employeeWeek]bool{}
	for _, entry := range entries {
		if approverID != "" && !entry.Approver.Contains(approverID) {
			continue
		}
		weeks[employeeWeek{entry.EmployeeID, entry.WeekNumber, entry.Year}] = true
	}
	return weeks, nil
}

func (s *ApprovalService) unplannedWeeks() (map[employeeWeek]bool, error) {
	var rows []models.EmployeeUnplannedNonbillableHours
	err := s.db.
		Where("ts_approval_status = ? AND (unplanned_hours > 0 OR non_billable_hours > 0)", models.StatusSubmitted).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	weeks := map[employeeWeek]bool{}
	for _, row := range rows {
		weeks[employeeWeek{row.EmployeeID, row.WeekNumber, row.Year}] = true
	}
	return weeks, nil
}

func unionWeeks(a, b map[employeeWeek]bool) map[employeeWeek]bool {
	union := make(map[employeeWeek]bool, len(a)+len(b))
	for w := range a {
		union[w] = true
	}
	for w := range b {
		union[w] = true
	}
	return union
}

// ManagerDecision is one approve/recall action on a weekly entry.
// Hours may arrive as HH:MM strings or plain numbers.
type ManagerDecision struct {
	EntryID          uint   `json:"timesheet_id"`
	EmployeeID       string `json:"employee_id"`
	BillableHours    string `json:"billable_hours"`
	NonBillableHours string `json:"non_billable_hours"`
	ApproverComments string `json:"approver_comments"`
	Status           string `json:"ts_approval_status"`
}

// DecisionError reports one failed item of a batch.
type DecisionError struct {
	Item  interface{} `json:"data"`
	Error string      `json:"error"`
}

const hoursEpsilon = 1e-9

// UpdateByManager applies a batch of approve/recall decisions. Each
// item is processed independently and failures are collected, partial
// success is allowed. Approving a week whose unplanned row carries no
// hours auto-approves that row as well.
func (s *ApprovalService) UpdateByManager(decisions []ManagerDecision, approverEmail string) []DecisionError {
	var failures []DecisionError
	for _, d := range decisions {
		if err := s.applyDecision(d, approverEmail); err != nil {
			failures = append(failures, DecisionError{Item: d, Error: err.Error()})
		}
	}
	return failures
}

func (s *ApprovalService) applyDecision(d ManagerDecision, approverEmail string) error {
	var entry models.EmployeeEntryTimesheet
	err := s.db.First(&entry, "id = ? AND employee_id = ?", d.EntryID, d.EmployeeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("timesheet not found")
		}
		return err
	}

	if d.Status == "" {
		d.Status = models.StatusApproved
	}
	if d.Status == models.StatusApproved {
		if err := s.autoApproveEmptyUnplanned(entry, approverEmail); err != nil {
			return err
		}
	}

	if d.BillableHours != "" {
		entry.BillableHours = utils.ParseHours(d.BillableHours)
	}
	if d.NonBillableHours != "" {
		entry.NonBillableHours = utils.ParseHours(d.NonBillableHours)
	}
	if d.ApproverComments != "" {
		entry.ApproverComments = d.ApproverComments
	}
	if d.Status == models.StatusApproved || d.Status == models.StatusRecall {
		entry.TsApprovalStatus = d.Status
	}
	entry.ApprovedBy = approverEmail
	entry.RecomputeTotal()
	if err := s.db.Save(&entry).Error; err != nil {
		return err
	}
	s.notifyDecision(entry.EmployeeID, entry.Year, entry.WeekNumber, entry.TsApprovalStatus, entry.ApproverComments)
	return nil
}

// autoApproveEmptyUnplanned resolves the week's unplanned row alongside
// the planned approval when both its buckets are effectively zero.
func (s *ApprovalService) autoApproveEmptyUnplanned(entry models.EmployeeEntryTimesheet, approverEmail string) error {
	var row models.EmployeeUnplannedNonbillableHours
	err := s.db.First(&row, "employee_id = ? AND year = ? AND week_number = ?",
		entry.EmployeeID, entry.Year, entry.WeekNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if math.Abs(row.UnplannedHours) < hoursEpsilon && math.Abs(row.NonBillableHours) < hoursEpsilon {
		row.TsApprovalStatus = models.StatusApproved
		row.ApprovedBy = approverEmail
		return s.db.Save(&row).Error
	}
	return nil
}

// UnplannedWeek is one pending unplanned/time-off row for HR review.
type UnplannedWeek struct {
	EntryID          uint   `json:"timesheet_id"`
	Year             int    `json:"year"`
	Week             string `json:"week"`
	WeekNumber       int    `json:"week_number"`
	TimeoffHours     string `json:"timeoff_hours"`
	UnplannedHours   string `json:"unplanned_hours"`
	TimeoffComments  string `json:"timeoff_hours_comments"`
	UnplannedComment string `json:"unplanned_hours_comments"`
	Status           string `json:"ts_approval_status"`
	ApproverComments string `json:"approver_comments"`
}

// UnplannedPendingEmployee groups an employee's pending unplanned rows.
type UnplannedPendingEmployee struct {
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      string          `json:"employee_name"`
	PendingTimesheets []UnplannedWeek `json:"pending_timesheets"`
}

// UnplannedPending lists submitted unplanned/time-off rows carrying
// hours, grouped per employee. This is the HR manager's pool.
func (s *ApprovalService) UnplannedPending() ([]UnplannedPendingEmployee, error) {
	var rows []models.EmployeeUnplannedNonbillableHours
	err := s.db.
		Where("ts_approval_status = ? AND (unplanned_hours > 0 OR non_billable_hours > 0)", models.StatusSubmitted).
		Order("employee_id, year, week_number").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := map[string]*UnplannedPendingEmployee{}
	var order []string
	for _, row := range rows {
		bucket, ok := grouped[row.EmployeeID]
		if !ok {
			name, err := s.employeeName(row.EmployeeID)
			if err != nil {
				return nil, err
			}
			bucket = &UnplannedPendingEmployee{EmployeeID: row.EmployeeID, EmployeeName: name}
			grouped[row.EmployeeID] = bucket
			order = append(order, row.EmployeeID)
		}
		bucket.PendingTimesheets = append(bucket.PendingTimesheets, UnplannedWeek{
			EntryID:          row.ID,
			Year:             row.Year,
			Week:             utils.FormatWeekRange(row.Year, row.WeekNumber),
			WeekNumber:       row.WeekNumber,
			TimeoffHours:     utils.FormatHours(row.NonBillableHours),
			UnplannedHours:   utils.FormatHours(row.UnplannedHours),
			TimeoffComments:  row.NonBillableHoursComments,
			UnplannedComment: row.UnplannedHoursComments,
			Status:           row.TsApprovalStatus,
			ApproverComments: row.ApproverComments,
		})
	}

	out := make([]UnplannedPendingEmployee, 0, len(order))
	for _, id := range order {
		out = append(out, *grouped[id])
	}
	return out, nil
}

// UnplannedDecision approves or recalls one unplanned-hours row.
type UnplannedDecision struct {
	EntryID          uint   `json:"timesheet_id"`
	Status           string `json:"ts_approval_status"`
	ApproverComments string `json:"approver_comments"`
}

// ApproveOrRecallUnplanned applies HR decisions over unplanned rows.
// Unlike the manager batch, any invalid item aborts the whole call.
func (s *ApprovalService) ApproveOrRecallUnplanned(decisions []UnplannedDecision, approverEmail string) error {
	for _, d := range decisions {
		if d.Status != models.StatusApproved && d.Status != models.StatusRecall {
			return &ValidationError{Violations: []ResourceViolation{{
				Reason: fmt.Sprintf("invalid ts_approval_status: %s", d.Status),
			}}}
		}
		var row models.EmployeeUnplannedNonbillableHours
		err := s.db.First(&row, "id = ?", d.EntryID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "unplanned timesheet", Key: fmt.Sprint(d.EntryID)}
			}
			return err
		}
		row.TsApprovalStatus = d.Status
		row.ApproverComments = d.ApproverComments
		row.ApprovedBy = approverEmail
		if err := s.db.Save(&row).Error; err != nil {
			return err
		}
		s.notifyDecision(row.EmployeeID, row.Year, row.WeekNumber, row.TsApprovalStatus, row.ApproverComments)
	}
	return nil
}

// BulkEmployeeDecision approves one employee's week across planned and
// unplanned rows in a single entry.
type BulkEmployeeDecision struct {
	EmployeeID       string  `json:"employee_id"`
	UnplannedID      uint    `json:"unplanned_timesheet_id"`
	Status           string  `json:"ts_approval_status"`
	UnplannedHours   float64 `json:"unplanned_hours"`
	TimeoffHours     float64 `json:"timeoff_hours"`
	ApproverComments string  `json:"approver_comments"`
	Timesheets       []struct {
		EntryID uint   `json:"timesheet_id"`
		Status  string `json:"ts_approval_status"`
	} `json:"timesheets"`
}

// BulkApprove applies admin decisions per employee entry, collecting
// errors without aborting the batch.
func (s *ApprovalService) BulkApprove(entries []BulkEmployeeDecision, approverEmail string) []string {
	var failures []string
	for _, e := range entries {
		if e.Status == "" {
			e.Status = models.StatusApproved
		}
		if e.UnplannedID != 0 {
			var row models.EmployeeUnplannedNonbillableHours
			err := s.db.First(&row, "id = ?", e.UnplannedID).Error
			if err != nil {
				failures = append(failures, fmt.Sprintf("Unplanned timesheet with ID %d not found.", e.UnplannedID))
			} else {
				row.TsApprovalStatus = e.Status
				if e.UnplannedHours > 0 {
					row.UnplannedHours = e.UnplannedHours
				}
				if e.TimeoffHours > 0 {
					row.NonBillableHours = e.TimeoffHours
				}
				row.ApproverComments = e.ApproverComments
				row.ApprovedBy = approverEmail
				if err := s.db.Save(&row).Error; err != nil {
					failures = append(failures, err.Error())
				}
			}
		}
		for _, ts := range e.Timesheets {
			if ts.EntryID == 0 {
				failures = append(failures, fmt.Sprintf("Missing timesheet_id for employee %s.", e.EmployeeID))
				continue
			}
			status := ts.Status
			if status == "" {
				status = models.StatusApproved
			}
			var entry models.EmployeeEntryTimesheet
			err := s.db.First(&entry, "id = ?", ts.EntryID).Error
			if err != nil {
				failures = append(failures, fmt.Sprintf("Timesheet entry with ID %d not found.", ts.EntryID))
				continue
			}
			entry.TsApprovalStatus = status
			entry.ApproverComments = e.ApproverComments
			entry.ApprovedBy = approverEmail
			if err := s.db.Save(&entry).Error; err != nil {
				failures = append(failures, err.Error())
			}
		}
	}
	return failures
}

// AdminPending is the admin review list: every submitted weekly entry
// plus the pending unplanned rows of employees with no planned
// submission that week, merged into the same per-employee shape.
func (s *ApprovalService) AdminPending(approverEmail string) ([]PendingEmployee, error) {
	approverID, err := s.ApproverIDByEmail(approverEmail)
	if err != nil {
		return nil, err
	}

	var entries []models.EmployeeEntryTimesheet
	if err := s.db.Where("ts_approval_status = ?", models.StatusSubmitted).Find(&entries).Error; err != nil {
		return nil, err
	}
	grouped, err := s.groupEntries(entries, approverID)
	if err != nil {
		return nil, err
	}

	covered := map[employeeWeek]bool{}
	for _, entry := range entries {
		covered[employeeWeek{entry.EmployeeID, entry.WeekNumber, entry.Year}] = true
	}

	var unplanned []models.EmployeeUnplannedNonbillableHours
	err = s.db.
		Where("ts_approval_status = ? AND (unplanned_hours > 0 OR non_billable_hours > 0)", models.StatusSubmitted).
		Find(&unplanned).Error
	if err != nil {
		return nil, err
	}

	byEmployee := map[string]int{}
	for i := range grouped {
		byEmployee[grouped[i].EmployeeID] = i
	}
	var extras []PendingEmployee
	for _, row := range unplanned {
		if covered[employeeWeek{row.EmployeeID, row.WeekNumber, row.Year}] {
			continue
		}
		week := PendingWeek{
			Week:           utils.FormatWeekRange(row.Year, row.WeekNumber),
			WeekNumber:     row.WeekNumber,
			Year:           row.Year,
			UnplannedHours: utils.FormatHours(row.UnplannedHours),
			TimeoffHours:   utils.FormatHours(row.NonBillableHours),
			UnplannedID:    row.ID,
			UnplannedState: row.TsApprovalStatus,
		}
		if i, ok := byEmployee[row.EmployeeID]; ok {
			grouped[i].PendingTimesheets = append(grouped[i].PendingTimesheets, week)
			continue
		}
		name, err := s.employeeName(row.EmployeeID)
		if err != nil {
			return nil, err
		}
		found := false
		for i := range extras {
			if extras[i].EmployeeID == row.EmployeeID {
				extras[i].PendingTimesheets = append(extras[i].PendingTimesheets, week)
				found = true
				break
			}
		}
		if !found {
			extras = append(extras, PendingEmployee{
				EmployeeID:        row.EmployeeID,
				EmployeeName:      name,
				PendingTimesheets: []PendingWeek{week},
			})
		}
	}
	sort.SliceStable(extras, func(i, j int) bool { return extras[i].EmployeeID < extras[j].EmployeeID })
	return append(grouped, extras...), nil
}
