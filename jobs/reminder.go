package jobs

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"c2c-api/config"
	"c2c-api/models"
	"c2c-api/services"
)

// WeeklyReminderJob mails employees who still have unsubmitted weeks.
// It fires once per ISO week, on the configured weekday, no matter how
// often the scheduler ticks.
type WeeklyReminderJob struct {
	db      *gorm.DB
	entries *services.EntryService
	weekday time.Weekday

	lastSent map[string]bool
}

func NewWeeklyReminderJob(db *gorm.DB, weekday time.Weekday) *WeeklyReminderJob {
	return &WeeklyReminderJob{
		db:       db,
		entries:  services.NewEntryService(db),
		weekday:  weekday,
		lastSent: make(map[string]bool),
	}
}

func (j *WeeklyReminderJob) Name() string { return "weekly-timesheet-reminder" }

func (j *WeeklyReminderJob) Run(now time.Time) error {
	if now.Weekday() != j.weekday {
		return nil
	}
	year, week := now.ISOWeek()
	tick := fmt.Sprintf("%d-%d", year, week)
	if j.lastSent[tick] {
		return nil
	}
	j.lastSent[tick] = true

	if !config.MailEnabled() {
		log.Printf("[%s] mail disabled, skipping", j.Name())
		return nil
	}

	var employees []models.Employee
	if err := j.db.Where("employee_email <> ''").Find(&employees).Error; err != nil {
		return err
	}

	sent := 0
	for _, employee := range employees {
		result, err := j.entries.MissingWeeks(employee.EmployeeEmail, now)
		if err != nil {
			log.Printf("[%s] scan for %s failed: %v", j.Name(), employee.EmployeeEmail, err)
			continue
		}
		if len(result.Weeks) == 0 {
			continue
		}
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>You have %d week(s) of timesheets awaiting submission. Please submit them at your earliest convenience.</p>",
			employee.EmployeeFullName, len(result.Weeks),
		)
		if err := config.SendMail([]string{employee.EmployeeEmail}, "Timesheet submission reminder", body); err != nil {
			log.Printf("[%s] mail to %s failed: %v", j.Name(), employee.EmployeeEmail, err)
			continue
		}
		sent++
	}
	log.Printf("[%s] reminders sent: %d", j.Name(), sent)
	return nil
}
