package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"gorm.io/gorm"

	"c2c-api/config"
	"c2c-api/models"
	"c2c-api/utils"
)

// ErrAllocationExists guards the one-allocation-per-binding rule.
var ErrAllocationExists = errors.New("an allocation with this contract_sow, estimation, and client already exists")

// resourceLocker serializes the daily-cap check-then-write sequence per
// resource. Two concurrent allocations for the same employee would
// otherwise both validate against a stale committed-hours snapshot.
type resourceLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newResourceLocker() *resourceLocker {
	return &resourceLocker{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the given resource ids in sorted order and returns the
// matching release function.
func (r *resourceLocker) acquire(resourceIDs []string) func() {
	unique := map[string]bool{}
	for _, id := range resourceIDs {
		if id != "" && id != models.PlaceholderResourceID {
			unique[id] = true
		}
	}
	ids := make([]string, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		r.mu.Lock()
		lock, ok := r.locks[id]
		if !ok {
			lock = &sync.Mutex{}
			r.locks[id] = lock
		}
		r.mu.Unlock()
		lock.Lock()
		held = append(held, lock)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// AllocationService creates, reconciles and deletes allocations and the
// timesheets hanging off them.
type AllocationService struct {
	db     *gorm.DB
	ledger *HourLedger
	locker *resourceLocker
}

func NewAllocationService(db *gorm.DB) *AllocationService {
	return &AllocationService{
		db:     db,
		ledger: NewHourLedger(db),
		locker: newResourceLocker(),
	}
}

type CreateAllocationRequest struct {
	Name            string                   `json:"name"`
	EstimationUUID  string                   `json:"estimation" binding:"required"`
	ContractSowUUID string                   `json:"contract_sow" binding:"required"`
	ClientUUID      string                   `json:"client" binding:"required"`
	ResourceData    models.ResourceEntryList `json:"resource_data"`
	Approver        models.ApproverList      `json:"approver"`
}

// Create runs the full allocation pipeline: self-approval guard,
// billable-vs-cost normalization, estimation expansion, submitted-week
// guard, daily-cap check, then an atomic commit of the allocation and
// one timesheet per real resource line.
func (s *AllocationService) Create(req CreateAllocationRequest, username string) (*models.Allocation, error) {
	if config.IsProd() && len(req.Approver) == 1 {
		single := req.Approver[0].ApproverID
		for _, line := range req.ResourceData {
			if line.ResourceID == single {
				return nil, &ConflictError{ApproverID: single}
			}
		}
	}

	if err := normalizeBillableHours(req.ResourceData); err != nil {
		return nil, err
	}

	var estimation models.Estimation
	if err := s.db.First(&estimation, "uuid = ?", req.EstimationUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "estimation", Key: req.EstimationUUID}
		}
		return nil, err
	}
	slots := ExpandResourcePlan(estimation.Resource)
	if len(slots) == 0 {
		return nil, ErrNoEstimationData
	}
	if len(req.ResourceData) > len(slots) {
		return nil, &ValidationError{Violations: []ResourceViolation{{
			Reason: fmt.Sprintf("%d resource lines requested but the estimation provides only %d slots", len(req.ResourceData), len(slots)),
		}}}
	}

	ids := make([]string, 0, len(req.ResourceData))
	for _, line := range req.ResourceData {
		ids = append(ids, line.ResourceID)
	}
	release := s.locker.acquire(ids)
	defer release()

	var existing models.Allocation
	err := s.db.First(&existing,
		"contract_sow_uuid = ? AND estimation_uuid = ? AND client_uuid = ?",
		req.ContractSowUUID, req.EstimationUUID, req.ClientUUID).Error
	if err == nil {
		return nil, ErrAllocationExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for i, line := range req.ResourceData {
		slot := slots[i]
		if err := s.checkSubmittedWeeks(*slot, line); err != nil {
			return nil, err
		}
		if err := s.checkDailyCap(*slot, line); err != nil {
			return nil, err
		}
	}

	allocation := &models.Allocation{
		Base: models.Base{
			UsernameCreated: username,
			UsernameUpdated: username,
		},
		Name:            req.Name,
		ContractSowUUID: req.ContractSowUUID,
		EstimationUUID:  req.EstimationUUID,
		ClientUUID:      req.ClientUUID,
		ResourceData:    withAssignmentIDs(req.ResourceData),
		Approver:        req.Approver,
	}
	for _, line := range allocation.ResourceData {
		allocation.TotalBillableHours += line.BillableHours
		allocation.TotalCostHours += line.CostHours
	}
	allocation.AllocationsCount = len(allocation.ResourceData)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(allocation).Error; err != nil {
			return err
		}
		for i, line := range allocation.ResourceData {
			if line.IsPlaceholder() {
				log.Printf("Skipping timesheet creation for budget line %s", line.ResourceID)
				continue
			}
			var employee models.Employee
			if err := tx.First(&employee, "employee_source_id = ?", line.ResourceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &NotFoundError{Entity: "employee", Key: line.ResourceID}
				}
				return err
			}
			timesheet := models.Timesheet{
				ClientUUID:             req.ClientUUID,
				EstimationUUID:         req.EstimationUUID,
				AllocationUUID:         allocation.UUID,
				ResourceID:             line.ResourceID,
				ResourceRole:           line.Role,
				BillableHours:          line.CostHours,
				CostHours:              line.CostHours,
				ResourceEstimationData: *slots[i],
				ContractSowUUID:        req.ContractSowUUID,
				Approver:               req.Approver,
				UsernameCreated:        username,
				UsernameUpdated:        username,
			}
			if err := tx.Create(&timesheet).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return allocation, nil
}

// Delete removes the allocation and cascades its timesheets.
func (s *AllocationService) Delete(allocationUUID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var allocation models.Allocation
		if err := tx.First(&allocation, "uuid = ?", allocationUUID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "allocation", Key: allocationUUID}
			}
			return err
		}
		if err := tx.Where("allocation_uuid = ?", allocationUUID).Delete(&models.Timesheet{}).Error; err != nil {
			return err
		}
		return tx.Delete(&allocation).Error
	})
}

// normalizeBillableHours enforces billable >= cost on every line, then
// clamps billable down to cost. Violations are collected so the caller
// sees the full list, and nothing is applied when any exist.
func normalizeBillableHours(lines models.ResourceEntryList) error {
	indexes := make([]int, len(lines))
	for i := range lines {
		indexes[i] = i
	}
	return normalizeBillableLines(lines, indexes)
}

// withAssignmentIDs stamps a stable assignment id on lines that lack
// one. Reconciliation pairs old and new lines on this id instead of
// list position.
func withAssignmentIDs(lines models.ResourceEntryList) models.ResourceEntryList {
	out := make(models.ResourceEntryList, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].AssignmentID == "" {
			out[i].AssignmentID = fmt.Sprintf("asg-%02d", i+1)
		}
	}
	return out
}

// checkSubmittedWeeks rejects the line when the employee already has a
// submitted unplanned-hours row in any week the window touches.
func (s *AllocationService) checkSubmittedWeeks(window models.EstimationWindow, line models.ResourceEntry) error {
	weeks := window.WeeksTouched()
	if len(weeks) == 0 {
		return nil
	}
	years := make([]int, 0, len(weeks))
	numbers := make([]int, 0, len(weeks))
	for _, w := range weeks {
		years = append(years, w.Year)
		numbers = append(numbers, w.Week)
	}
	var rows []models.EmployeeUnplannedNonbillableHours
	err := s.db.
		Where("employee_id = ? AND ts_approval_status = ? AND year IN ? AND week_number IN ?",
			line.ResourceID, models.StatusSubmitted, years, numbers).
		Find(&rows).Error
	if err != nil {
		return err
	}
	touched := map[utils.WeekKey]bool{}
	for _, w := range weeks {
		touched[w] = true
	}
	var conflicting []string
	seen := map[utils.WeekKey]bool{}
	for _, row := range rows {
		key := utils.WeekKey{Year: row.Year, Week: row.WeekNumber}
		if touched[key] && !seen[key] {
			seen[key] = true
			conflicting = append(conflicting,
				fmt.Sprintf("Week %d of %d (%s)", key.Week, key.Year, utils.FormatWeekRange(key.Year, key.Week)))
		}
	}
	if len(conflicting) > 0 {
		return &SubmittedWeekError{
			ResourceID:   line.ResourceID,
			ResourceName: line.ResourceName,
			Weeks:        conflicting,
		}
	}
	return nil
}

// checkDailyCap layers the window's daily plan on top of the hours the
// resource is already committed to and rejects the first day that goes
// past the limit.
func (s *AllocationService) checkDailyCap(window models.EstimationWindow, line models.ResourceEntry) error {
	start, err := utils.ParseFlexibleDate(line.StartDate)
	if err != nil {
		return &ValidationError{Violations: []ResourceViolation{{
			ResourceID:   line.ResourceID,
			ResourceName: line.ResourceName,
			Role:         line.Role,
			Reason:       fmt.Sprintf("invalid start_date: %v", err),
		}}}
	}
	end, err := utils.ParseFlexibleDate(line.EndDate)
	if err != nil {
		return &ValidationError{Violations: []ResourceViolation{{
			ResourceID:   line.ResourceID,
			ResourceName: line.ResourceName,
			Role:         line.Role,
			Reason:       fmt.Sprintf("invalid end_date: %v", err),
		}}}
	}
	committed, err := s.ledger.CommittedHours(line.ResourceID, start, end)
	if err != nil {
		return err
	}
	for _, entry := range window.EstimationData.Daily {
		committed[entry.Date] += entry.Hours
		if committed[entry.Date] > DailyHourLimit {
			return &DailyLimitError{
				ResourceID:   line.ResourceID,
				ResourceName: line.ResourceName,
				Date:         entry.Date,
				TotalHours:   committed[entry.Date],
				Limit:        DailyHourLimit,
			}
		}
	}
	return nil
}
