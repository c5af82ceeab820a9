package models

// StringList is a JSON-serialized list column.
type StringList []string

// Approver identifies someone allowed to act on an allocation's
// timesheets. Approver ids are employee source ids or guest user ids.
type Approver struct {
	ApproverID   string `json:"approver_id"`
	ApproverName string `json:"approver_name,omitempty"`
}

type ApproverList []Approver

// Contains reports whether id appears in the list.
func (l ApproverList) Contains(id string) bool {
	for _, a := range l {
		if a.ApproverID == id {
			return true
		}
	}
	return false
}

// Equal compares two approver lists entry by entry.
func (l ApproverList) Equal(other ApproverList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// PlaceholderResourceID marks a budget-only resource line that has no
// physical employee behind it. Such lines never get a timesheet.
const PlaceholderResourceID = "BUDGETO123"

// ResourceEntry is one resource line inside an allocation request or an
// allocation's stored resource_data.
type ResourceEntry struct {
	AssignmentID        string  `json:"assignment_id,omitempty"`
	ResourceID          string  `json:"resource_id"`
	ResourceName        string  `json:"resource_name,omitempty"`
	Role                string  `json:"role,omitempty"`
	StartDate           string  `json:"start_date,omitempty"`
	EndDate             string  `json:"end_date,omitempty"`
	CostHours           float64 `json:"cost_hours"`
	BillableHours       float64 `json:"billable_hours"`
	ChangeEffectiveFrom string  `json:"change_effective_from,omitempty"`
}

// IsPlaceholder reports whether the line is a budget-only row.
func (e ResourceEntry) IsPlaceholder() bool {
	return e.ResourceID == PlaceholderResourceID
}

type ResourceEntryList []ResourceEntry

// Equal compares two resource lists entry by entry.
func (l ResourceEntryList) Equal(other ResourceEntryList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}
