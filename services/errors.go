package services

import (
	"errors"
	"fmt"
	"strings"
)

// DailyHourLimit is the per-employee ceiling summed across every
// overlapping assignment.
const DailyHourLimit = 8.0

// ErrNoEstimationData means the linked estimation expands to zero
// resource slots, so nothing can be allocated against it.
var ErrNoEstimationData = errors.New("no estimation data found for the given estimation")

// ErrNoChange is the success-shaped outcome of an update that altered
// neither resource data nor approvers.
var ErrNoChange = errors.New("no change in allocations or approver")

// ConflictError rejects a sole approver who is also an allocated
// resource.
type ConflictError struct {
	ApproverID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("the approver %q is also present in resource_data; add additional approvers to avoid self-approval", e.ApproverID)
}

// ResourceViolation describes one resource line that failed validation.
type ResourceViolation struct {
	ResourceID    string  `json:"resource_id"`
	ResourceName  string  `json:"resource_name"`
	Role          string  `json:"role"`
	CostHours     float64 `json:"cost_hours"`
	BillableHours float64 `json:"billable_hours"`
	Reason        string  `json:"error"`
}

// ValidationError collects every violating resource line; nothing is
// persisted when it is returned.
type ValidationError struct {
	Violations []ResourceViolation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d resource(s)", len(e.Violations))
}

// SubmittedWeekError rejects allocating an employee into weeks they
// have already closed out with a submitted unplanned-hours row.
type SubmittedWeekError struct {
	ResourceID   string
	ResourceName string
	Weeks        []string
}

func (e *SubmittedWeekError) Error() string {
	return fmt.Sprintf("employee %s has already submitted timesheets: %s", e.ResourceName, strings.Join(e.Weeks, ", "))
}

// DailyLimitError rejects an assignment that would push a day past the
// eight-hour ceiling.
type DailyLimitError struct {
	ResourceID   string
	ResourceName string
	Date         string
	TotalHours   float64
	Limit        float64
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("resource %s exceeds daily limit on %s (%.2fh > %.0fh)", e.ResourceName, e.Date, e.TotalHours, e.Limit)
}

// NotFoundError reports a lookup miss for a named entity.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}
