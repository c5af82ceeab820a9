package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"c2c-api/models"
	"c2c-api/utils"
)

type UpdateAllocationRequest struct {
	Name         string                   `json:"name"`
	ResourceData models.ResourceEntryList `json:"resource_data"`
	Approver     models.ApproverList      `json:"approver"`
}

// transitionKind names the window rewrite a changed resource pair needs.
type transitionKind int

const (
	transitionEndOnly   transitionKind = iota // real resource released to a budget line
	transitionStartOnly                       // budget line activated into a real resource
	transitionSwap                            // one real resource hands over to another
)

// transition is a validated, ready-to-apply window rewrite. All
// validation happens before any transition is applied.
type transition struct {
	kind      transitionKind
	oldLine   models.ResourceEntry
	newIdx    int
	effective time.Time
	window    models.EstimationWindow
}

// Update reconciles an allocation against a new resource list.
//
// Old and new lines pair up on assignment_id; a pair is changed when its
// resource_id or change_effective_from differs. Changed pairs are
// classified into end-only, start-only and swap transitions, validated
// like fresh allocation lines, and applied by truncating the outgoing
// timesheet at the effective date and cutting the incoming one to start
// there. Lines with unknown assignment ids are treated as additions;
// dropping a line entirely is rejected, a resource is released by
// swapping it to the budget placeholder instead.
//
// An approver change cascades to every timesheet under the allocation
// and is applied even when the resource diff is empty.
func (s *AllocationService) Update(allocationUUID string, req UpdateAllocationRequest, username string) (*models.Allocation, error) {
	var allocation models.Allocation
	if err := s.db.First(&allocation, "uuid = ?", allocationUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "allocation", Key: allocationUUID}
		}
		return nil, err
	}

	approver := allocation.Approver
	approverChanged := false
	if req.Approver != nil && !allocation.Approver.Equal(req.Approver) {
		approver = req.Approver
		approverChanged = true
	}

	newLines := make(models.ResourceEntryList, len(req.ResourceData))
	copy(newLines, req.ResourceData)
	resourceChanged := !allocation.ResourceData.Equal(newLines)

	if !approverChanged && !resourceChanged {
		return nil, ErrNoChange
	}

	ids := make([]string, 0, len(allocation.ResourceData)+len(newLines))
	for _, line := range allocation.ResourceData {
		ids = append(ids, line.ResourceID)
	}
	for _, line := range newLines {
		ids = append(ids, line.ResourceID)
	}
	release := s.locker.acquire(ids)
	defer release()

	pairs, additions, err := diffResourceLines(allocation.ResourceData, newLines)
	if err != nil {
		return nil, err
	}

	affected := make([]int, 0, len(pairs)+len(additions))
	for _, p := range pairs {
		affected = append(affected, p.newIdx)
	}
	affected = append(affected, additions...)
	if err := normalizeBillableLines(newLines, affected); err != nil {
		return nil, err
	}

	transitions, err := s.planTransitions(&allocation, newLines, pairs)
	if err != nil {
		return nil, err
	}

	var estimation models.Estimation
	var slots []*models.EstimationWindow
	if len(additions) > 0 {
		if err := s.db.First(&estimation, "uuid = ?", allocation.EstimationUUID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &NotFoundError{Entity: "estimation", Key: allocation.EstimationUUID}
			}
			return nil, err
		}
		slots = ExpandResourcePlan(estimation.Resource)
	}
	addWindows := make(map[int]models.EstimationWindow, len(additions))
	for _, j := range additions {
		window, err := s.validateAddition(newLines, j, slots)
		if err != nil {
			return nil, err
		}
		addWindows[j] = window
	}

	for i := range transitions {
		t := &transitions[i]
		newLines[t.newIdx].StartDate = utils.FormatUTCDate(t.effective)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if approverChanged {
			var timesheets []models.Timesheet
			if err := tx.Where("allocation_uuid = ?", allocation.UUID).Find(&timesheets).Error; err != nil {
				return err
			}
			for i := range timesheets {
				timesheets[i].Approver = approver
				timesheets[i].UsernameUpdated = username
				if err := tx.Save(&timesheets[i]).Error; err != nil {
					return err
				}
			}
		}

		for _, t := range transitions {
			if t.kind == transitionEndOnly || t.kind == transitionSwap {
				if err := truncateTimesheet(tx, allocation.UUID, t.oldLine.ResourceID, t.effective, username); err != nil {
					return err
				}
			}
			if t.kind == transitionStartOnly || t.kind == transitionSwap {
				if err := upsertTimesheet(tx, &allocation, newLines[t.newIdx], t.window, approver, username); err != nil {
					return err
				}
			}
		}
		for _, j := range additions {
			if newLines[j].IsPlaceholder() {
				continue
			}
			if err := upsertTimesheet(tx, &allocation, newLines[j], addWindows[j], approver, username); err != nil {
				return err
			}
		}

		if req.Name != "" {
			allocation.Name = req.Name
		}
		allocation.ResourceData = withAssignmentIDs(newLines)
		allocation.Approver = approver
		allocation.TotalBillableHours = 0
		allocation.TotalCostHours = 0
		for _, line := range allocation.ResourceData {
			allocation.TotalBillableHours += line.BillableHours
			allocation.TotalCostHours += line.CostHours
		}
		allocation.AllocationsCount = len(allocation.ResourceData)
		allocation.UsernameUpdated = username
		return tx.Save(&allocation).Error
	})
	if err != nil {
		return nil, err
	}
	return &allocation, nil
}

// linePair joins an old resource line with its new counterpart. Only
// pairs whose resource id or effective date differ are kept.
type linePair struct {
	oldIdx int
	newIdx int
}

// diffResourceLines pairs lines on assignment_id and splits the result
// into changed pairs and additions. An old line with no counterpart is
// an error.
func diffResourceLines(old, new models.ResourceEntryList) ([]linePair, []int, error) {
	oldByAssignment := make(map[string]int, len(old))
	for i := range old {
		if old[i].AssignmentID != "" {
			oldByAssignment[old[i].AssignmentID] = i
		}
	}

	matched := make(map[int]bool, len(old))
	var pairs []linePair
	var additions []int
	for j := range new {
		idx, ok := oldByAssignment[new[j].AssignmentID]
		if new[j].AssignmentID == "" || !ok {
			additions = append(additions, j)
			continue
		}
		matched[idx] = true
		if old[idx].ResourceID != new[j].ResourceID || old[idx].ChangeEffectiveFrom != new[j].ChangeEffectiveFrom {
			pairs = append(pairs, linePair{oldIdx: idx, newIdx: j})
		}
	}

	var removed []string
	for i := range old {
		if !matched[i] {
			removed = append(removed, fmt.Sprintf("%s (%s)", old[i].ResourceName, old[i].ResourceID))
		}
	}
	if len(removed) > 0 {
		return nil, nil, &ValidationError{Violations: []ResourceViolation{{
			Reason: fmt.Sprintf("resource lines cannot be removed, swap to the %s placeholder instead: %s",
				models.PlaceholderResourceID, strings.Join(removed, ", ")),
		}}}
	}
	return pairs, additions, nil
}

// planTransitions classifies each changed pair and validates the
// incoming side against submitted weeks and the daily cap. The window
// an incoming resource inherits is the outgoing timesheet's live plan
// cut at the effective date, or the line's original plan when no prior
// timesheet exists.
func (s *AllocationService) planTransitions(allocation *models.Allocation, newLines models.ResourceEntryList, pairs []linePair) ([]transition, error) {
	var transitions []transition
	for _, p := range pairs {
		oldLine := allocation.ResourceData[p.oldIdx]
		newLine := newLines[p.newIdx]
		if oldLine.IsPlaceholder() && newLine.IsPlaceholder() {
			continue
		}

		effective, err := utils.ParseFlexibleDate(newLine.ChangeEffectiveFrom)
		if err != nil {
			return nil, &ValidationError{Violations: []ResourceViolation{{
				ResourceID:   newLine.ResourceID,
				ResourceName: newLine.ResourceName,
				Role:         newLine.Role,
				Reason:       "a valid change_effective_from date is required to change this resource line",
			}}}
		}

		t := transition{oldLine: oldLine, newIdx: p.newIdx, effective: effective}
		switch {
		case newLine.IsPlaceholder():
			t.kind = transitionEndOnly
		case oldLine.IsPlaceholder():
			t.kind = transitionStartOnly
		default:
			t.kind = transitionSwap
		}

		if t.kind == transitionEndOnly {
			transitions = append(transitions, t)
			continue
		}

		baseWindow, priorID, err := s.priorWindow(allocation, oldLine, p.oldIdx)
		if err != nil {
			return nil, err
		}
		t.window = baseWindow.StartingFrom(effective)

		if err := s.checkSubmittedWeeks(t.window, newLine); err != nil {
			return nil, err
		}
		var exclude []uint
		if priorID != 0 && oldLine.ResourceID == newLine.ResourceID {
			exclude = append(exclude, priorID)
		}
		if err := s.checkWindowCap(t.window, newLine, exclude); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	return transitions, nil
}

// priorWindow returns the live estimation window for the outgoing line,
// falling back to the matching expansion slot when the line never had a
// timesheet (budget activations).
func (s *AllocationService) priorWindow(allocation *models.Allocation, oldLine models.ResourceEntry, slotIdx int) (models.EstimationWindow, uint, error) {
	if !oldLine.IsPlaceholder() {
		var ts models.Timesheet
		err := s.db.First(&ts, "allocation_uuid = ? AND resource_id = ?", allocation.UUID, oldLine.ResourceID).Error
		if err == nil {
			return ts.ResourceEstimationData, ts.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EstimationWindow{}, 0, err
		}
	}

	var estimation models.Estimation
	if err := s.db.First(&estimation, "uuid = ?", allocation.EstimationUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EstimationWindow{}, 0, &NotFoundError{Entity: "estimation", Key: allocation.EstimationUUID}
		}
		return models.EstimationWindow{}, 0, err
	}
	slots := ExpandResourcePlan(estimation.Resource)
	if slotIdx >= len(slots) {
		return models.EstimationWindow{}, 0, ErrNoEstimationData
	}
	return *slots[slotIdx], 0, nil
}

// validateAddition checks a brand-new resource line the same way
// creation does and returns the window its timesheet will carry.
func (s *AllocationService) validateAddition(newLines models.ResourceEntryList, idx int, slots []*models.EstimationWindow) (models.EstimationWindow, error) {
	line := newLines[idx]
	if idx >= len(slots) {
		return models.EstimationWindow{}, &ValidationError{Violations: []ResourceViolation{{
			ResourceID:   line.ResourceID,
			ResourceName: line.ResourceName,
			Role:         line.Role,
			Reason:       "no estimation slot available for the added resource line",
		}}}
	}
	window := *slots[idx]
	if line.ChangeEffectiveFrom != "" {
		effective, err := utils.ParseFlexibleDate(line.ChangeEffectiveFrom)
		if err != nil {
			return models.EstimationWindow{}, &ValidationError{Violations: []ResourceViolation{{
				ResourceID:   line.ResourceID,
				ResourceName: line.ResourceName,
				Role:         line.Role,
				Reason:       fmt.Sprintf("invalid change_effective_from: %v", err),
			}}}
		}
		window = window.StartingFrom(effective)
	}
	if line.IsPlaceholder() {
		return window, nil
	}
	if err := s.checkSubmittedWeeks(window, line); err != nil {
		return models.EstimationWindow{}, err
	}
	if err := s.checkWindowCap(window, line, nil); err != nil {
		return models.EstimationWindow{}, err
	}
	return window, nil
}

// checkWindowCap is the daily-cap check against an arbitrary window,
// optionally ignoring the timesheet rows about to be rewritten.
func (s *AllocationService) checkWindowCap(window models.EstimationWindow, line models.ResourceEntry, excludeIDs []uint) error {
	start, err := utils.ParseFlexibleDate(window.StartDate)
	if err != nil {
		start, err = utils.ParseFlexibleDate(line.StartDate)
		if err != nil {
			return nil
		}
	}
	end, err := utils.ParseFlexibleDate(window.EndDate)
	if err != nil {
		end, err = utils.ParseFlexibleDate(line.EndDate)
		if err != nil {
			return nil
		}
	}
	committed, err := s.ledger.CommittedHours(line.ResourceID, start, end, excludeIDs...)
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

// normalizeBillableLines applies the billable-vs-cost rule to the given
// line indexes only, leaving untouched pairs alone.
func normalizeBillableLines(lines models.ResourceEntryList, indexes []int) error {
	var violations []ResourceViolation
	for _, i := range indexes {
		if lines[i].BillableHours < lines[i].CostHours {
			violations = append(violations, ResourceViolation{
				ResourceID:    lines[i].ResourceID,
				ResourceName:  lines[i].ResourceName,
				Role:          lines[i].Role,
				CostHours:     lines[i].CostHours,
				BillableHours: lines[i].BillableHours,
				Reason:        "billable hours are not sufficient for the given cost hours",
			})
			continue
		}
		lines[i].BillableHours = lines[i].CostHours
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// truncateTimesheet cuts the resource's timesheet window at the
// effective date. Missing rows are ignored, a budget line never had one.
func truncateTimesheet(tx *gorm.DB, allocationUUID, resourceID string, effective time.Time, username string) error {
	var ts models.Timesheet
	err := tx.First(&ts, "allocation_uuid = ? AND resource_id = ?", allocationUUID, resourceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	ts.ResourceEstimationData = ts.ResourceEstimationData.TruncatedAt(effective)
	ts.UsernameUpdated = username
	return tx.Save(&ts).Error
}

// upsertTimesheet creates or rewrites the timesheet keyed on
// (allocation, resource) so it carries the given window.
func upsertTimesheet(tx *gorm.DB, allocation *models.Allocation, line models.ResourceEntry, window models.EstimationWindow, approver models.ApproverList, username string) error {
	var employee models.Employee
	if err := tx.First(&employee, "employee_source_id = ?", line.ResourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "employee", Key: line.ResourceID}
		}
		return err
	}

	var ts models.Timesheet
	err := tx.First(&ts, "allocation_uuid = ? AND resource_id = ?", allocation.UUID, line.ResourceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ts = models.Timesheet{
			ClientUUID:             allocation.ClientUUID,
			EstimationUUID:         allocation.EstimationUUID,
			AllocationUUID:         allocation.UUID,
			ResourceID:             line.ResourceID,
			ResourceRole:           line.Role,
			BillableHours:          line.CostHours,
			CostHours:              line.CostHours,
			ResourceEstimationData: window,
			ContractSowUUID:        allocation.ContractSowUUID,
			Approver:               approver,
			UsernameCreated:        username,
			UsernameUpdated:        username,
		}
		return tx.Create(&ts).Error
	}
	if err != nil {
		return err
	}
	ts.ResourceRole = line.Role
	ts.BillableHours = line.CostHours
	ts.CostHours = line.CostHours
	ts.ResourceEstimationData = window
	ts.Approver = approver
	ts.UsernameUpdated = username
	return tx.Save(&ts).Error
}
