package models

// Employee mirrors the external HR directory. The source id is the HR
// system's key and is what allocations reference as resource_id.
type Employee struct {
	EmployeeSourceID        string `gorm:"primaryKey;column:employee_source_id" json:"employee_source_id"`
	EmployeeFullName        string `gorm:"column:employee_full_name" json:"employee_full_name"`
	EmployeeEmail           string `gorm:"column:employee_email" json:"employee_email,omitempty"`
	EmployeeSkills          string `gorm:"column:employee_skills" json:"employee_skills,omitempty"`
	EmployeeLocation        string `gorm:"column:employee_location" json:"employee_location,omitempty"`
	EmployeeCategory        string `gorm:"column:employee_category" json:"employee_category,omitempty"`
	EmployeeReportingManager string `gorm:"column:employee_reporting_manager" json:"employee_reporting_manager,omitempty"`
	EmployeeDepartment      string `gorm:"column:employee_department" json:"employee_department,omitempty"`
	EmployeeDesignation     string `gorm:"column:employee_designation" json:"employee_designation,omitempty"`
	EmployeeAssignedRole    string `gorm:"column:employee_assigned_role" json:"employee_assigned_role,omitempty"`
	EmployeeAccountType     string `gorm:"column:employee_account_type" json:"employee_account_type,omitempty"`
	EmployeeJoinedDate      string `gorm:"column:employee_joined_date" json:"employee_joined_date,omitempty"`
	EmployeeStatus          string `gorm:"column:employee_status" json:"employee_status,omitempty"`
}

func (Employee) TableName() string {
	return "employees"
}

// GuestUser is an external approver scoped to specific clients.
type GuestUser struct {
	GuestUserID      string     `gorm:"primaryKey;column:guest_user_id" json:"guest_user_id"`
	GuestUserName    string     `gorm:"column:guest_user_name" json:"guest_user_name,omitempty"`
	GuestUserEmailID string     `gorm:"column:guest_user_email_id;unique" json:"guest_user_email_id"`
	ClientIDs        StringList `gorm:"column:client_ids;serializer:json" json:"client_ids"`
	GuestUserStatus  string     `gorm:"column:guest_user_status;default:active" json:"guest_user_status"`
	CreatedBy        string     `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedBy        string     `gorm:"column:updated_by" json:"updated_by,omitempty"`
}

func (GuestUser) TableName() string {
	return "guest_users"
}
