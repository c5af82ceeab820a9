package models

import "time"

// Timesheet approval states shared by weekly entries and unplanned-hour
// rows.
const (
	StatusNotSubmitted = "not_submitted"
	StatusSubmitted    = "submitted"
	StatusApproved     = "approved"
	StatusRecall       = "recall"
)

// Timesheet is one resource slot's commitment inside an allocation: the
// window snapshot it is held to, mutated over time by reconciliation.
// One row per (allocation, resource), not per week.
type Timesheet struct {
	ID                     uint             `gorm:"primaryKey;column:id" json:"id"`
	ClientUUID             string           `gorm:"column:client_uuid;index" json:"client"`
	EstimationUUID         string           `gorm:"column:estimation_uuid" json:"estimation"`
	AllocationUUID         string           `gorm:"column:allocation_uuid;index" json:"allocation"`
	ResourceID             string           `gorm:"column:resource_id;index" json:"resource_id"`
	ResourceRole           string           `gorm:"column:resource_role" json:"resource_role,omitempty"`
	BillableHours          float64          `gorm:"column:billable_hours" json:"billable_hours"`
	CostHours              float64          `gorm:"column:cost_hours" json:"cost_hours"`
	ResourceEstimationData EstimationWindow `gorm:"column:resource_estimation_data;serializer:json" json:"resource_estimation_data"`
	ContractSowUUID        string           `gorm:"column:contract_sow_uuid;index" json:"contract_sow"`
	Approver               ApproverList     `gorm:"column:approver;serializer:json" json:"approver"`
	UsernameCreated        string           `gorm:"column:username_created" json:"username_created,omitempty"`
	UsernameUpdated        string           `gorm:"column:username_updated" json:"username_updated,omitempty"`
	DateCreated            time.Time        `gorm:"column:date_created;autoCreateTime;index" json:"date_created"`
	DateUpdated            time.Time        `gorm:"column:date_updated;autoUpdateTime;index" json:"date_updated"`
}

func (Timesheet) TableName() string {
	return "timesheets"
}

// EmployeeEntryTimesheet is an actual weekly submission against a
// Timesheet. Unique per (employee, client, contract_sow, year, week)
// when client and contract are present.
type EmployeeEntryTimesheet struct {
	ID                       uint         `gorm:"primaryKey;column:id" json:"id"`
	TimesheetID              *uint        `gorm:"column:timesheet_id;index" json:"timesheet_id,omitempty"`
	EmployeeID               string       `gorm:"column:employee_id;index" json:"employee_id"`
	Year                     int          `gorm:"column:year" json:"year"`
	WeekNumber               int          `gorm:"column:week_number" json:"week_number"`
	ClientUUID               string       `gorm:"column:client_uuid;index" json:"client,omitempty"`
	ContractSowUUID          string       `gorm:"column:contract_sow_uuid;index" json:"contract_sow,omitempty"`
	BillableHours            float64      `gorm:"column:billable_hours" json:"billable_hours"`
	NonBillableHours         float64      `gorm:"column:non_billable_hours" json:"non_billable_hours"`
	UnplannedHours           float64      `gorm:"column:unplanned_hours" json:"unplanned_hours"`
	TotalHours               float64      `gorm:"column:total_hours" json:"total_hours"`
	NonBillableHoursComments string       `gorm:"column:non_billable_hours_comments" json:"non_billable_hours_comments,omitempty"`
	UnplannedHoursComments   string       `gorm:"column:unplanned_hours_comments" json:"unplanned_hours_comments,omitempty"`
	Approver                 ApproverList `gorm:"column:approver;serializer:json" json:"approver"`
	TsApprovalStatus         string       `gorm:"column:ts_approval_status;default:submitted" json:"ts_approval_status"`
	ApproverComments         string       `gorm:"column:approver_comments" json:"approver_comments,omitempty"`
	ApprovedBy               string       `gorm:"column:approved_by" json:"approved_by,omitempty"`
	UsernameCreated          string       `gorm:"column:username_created" json:"username_created,omitempty"`
	UsernameUpdated          string       `gorm:"column:username_updated" json:"username_updated,omitempty"`
	DateCreated              time.Time    `gorm:"column:date_created;autoCreateTime;index" json:"date_created"`
	DateUpdated              time.Time    `gorm:"column:date_updated;autoUpdateTime;index" json:"date_updated"`
}

func (EmployeeEntryTimesheet) TableName() string {
	return "employee_entry_timesheets"
}

// RecomputeTotal keeps total_hours consistent with the three buckets.
func (e *EmployeeEntryTimesheet) RecomputeTotal() {
	e.TotalHours = e.BillableHours + e.NonBillableHours + e.UnplannedHours
}

// EmployeeUnplannedNonbillableHours captures time off and unplanned
// work per employee per week, independent of any contract.
type EmployeeUnplannedNonbillableHours struct {
	ID                       uint         `gorm:"primaryKey;column:id" json:"id"`
	EmployeeID               string       `gorm:"column:employee_id;index" json:"employee_id"`
	Year                     int          `gorm:"column:year" json:"year"`
	WeekNumber               int          `gorm:"column:week_number" json:"week_number"`
	NonBillableHours         float64      `gorm:"column:non_billable_hours" json:"non_billable_hours"`
	UnplannedHours           float64      `gorm:"column:unplanned_hours" json:"unplanned_hours"`
	NonBillableHoursComments string       `gorm:"column:non_billable_hours_comments" json:"non_billable_hours_comments,omitempty"`
	UnplannedHoursComments   string       `gorm:"column:unplanned_hours_comments" json:"unplanned_hours_comments,omitempty"`
	Approver                 ApproverList `gorm:"column:approver;serializer:json" json:"approver"`
	TsApprovalStatus         string       `gorm:"column:ts_approval_status;default:submitted" json:"ts_approval_status"`
	ApproverComments         string       `gorm:"column:approver_comments" json:"approver_comments,omitempty"`
	ApprovedBy               string       `gorm:"column:approved_by" json:"approved_by,omitempty"`
	UsernameCreated          string       `gorm:"column:username_created" json:"username_created,omitempty"`
	UsernameUpdated          string       `gorm:"column:username_updated" json:"username_updated,omitempty"`
	DateCreated              time.Time    `gorm:"column:date_created;autoCreateTime;index" json:"date_created"`
	DateUpdated              time.Time    `gorm:"column:date_updated;autoUpdateTime;index" json:"date_updated"`
}

func (EmployeeUnplannedNonbillableHours) TableName() string {
	return "employee_unplanned_nonbillable_hours"
}
