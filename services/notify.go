package services

import (
	"fmt"
	"log"

	"c2c-api/config"
	"c2c-api/models"
	"c2c-api/utils"
)

// notifyDecision mails the employee about an approval decision. Mail is
// best effort: a failure is logged and never propagated into the
// workflow result.
func (s *ApprovalService) notifyDecision(employeeID string, year, week int, status, comments string) {
	if !config.MailEnabled() {
		return
	}
	var employee models.Employee
	if err := s.db.First(&employee, "employee_source_id = ?", employeeID).Error; err != nil {
		return
	}
	if employee.EmployeeEmail == "" {
		return
	}

	verb := "approved"
	if status == models.StatusRecall {
		verb = "recalled"
	}
	subject := fmt.Sprintf("Timesheet %s: week %d of %d", verb, week, year)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your timesheet for week %d of %d (%s) has been %s.</p>",
		employee.EmployeeFullName, week, year, utils.FormatWeekRange(year, week), verb,
	)
	if comments != "" {
		body += fmt.Sprintf("<p>Approver comments: %s</p>", comments)
	}

	go func() {
		if err := config.SendMail([]string{employee.EmployeeEmail}, subject, body); err != nil {
			log.Printf("approval mail to %s failed: %v", employee.EmployeeEmail, err)
		}
	}()
}
