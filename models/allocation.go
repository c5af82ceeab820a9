package models

// Allocation binds employees to a (contract_sow, estimation, client)
// triple. Exactly one allocation may exist per triple.
type Allocation struct {
	Base
	Name               string            `gorm:"column:name;unique" json:"name"`
	ContractSowUUID    string            `gorm:"column:contract_sow_uuid;uniqueIndex:idx_allocation_binding" json:"contract_sow"`
	EstimationUUID     string            `gorm:"column:estimation_uuid;uniqueIndex:idx_allocation_binding" json:"estimation"`
	ClientUUID         string            `gorm:"column:client_uuid;uniqueIndex:idx_allocation_binding" json:"client"`
	TotalBillableHours float64           `gorm:"column:total_billable_hours" json:"total_billable_hours"`
	TotalCostHours     float64           `gorm:"column:total_cost_hours" json:"total_cost_hours"`
	AllocationsCount   int               `gorm:"column:allocations_count" json:"allocations_count"`
	ResourceData       ResourceEntryList `gorm:"column:resource_data;serializer:json" json:"resource_data"`
	Approver           ApproverList      `gorm:"column:approver;serializer:json" json:"approver"`
}

func (Allocation) TableName() string {
	return "allocations"
}
