package services

import (
	"time"

	"gorm.io/gorm"

	"c2c-api/models"
	"c2c-api/utils"
)

// HourLedger aggregates the hours a resource is already committed to
// across all contracts. It never writes.
type HourLedger struct {
	db *gorm.DB
}

func NewHourLedger(db *gorm.DB) *HourLedger {
	return &HourLedger{db: db}
}

// overlappingTimesheets returns the resource's timesheets whose owning
// contract's date range intersects [start, end] inclusive. Contract
// dates are stored as strings in mixed formats, so the overlap test
// happens here rather than in SQL.
func (l *HourLedger) overlappingTimesheets(resourceID string, start, end time.Time, excludeIDs []uint) ([]models.Timesheet, error) {
	query := l.db.Where("resource_id = ?", resourceID)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	var timesheets []models.Timesheet
	if err := query.Find(&timesheets).Error; err != nil {
		return nil, err
	}

	contractCache := map[string]*models.SowContract{}
	var kept []models.Timesheet
	for _, ts := range timesheets {
		contract, ok := contractCache[ts.ContractSowUUID]
		if !ok {
			var row models.SowContract
			if err := l.db.First(&row, "uuid = ?", ts.ContractSowUUID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					contractCache[ts.ContractSowUUID] = nil
					continue
				}
				return nil, err
			}
			contract = &row
			contractCache[ts.ContractSowUUID] = contract
		}
		if contract == nil {
			continue
		}
		cStart, err1 := utils.ParseFlexibleDate(contract.StartDate)
		cEnd, err2 := utils.ParseFlexibleDate(contract.EndDate)
		if err1 != nil || err2 != nil {
			continue
		}
		if !cStart.After(end) && !cEnd.Before(start) {
			kept = append(kept, ts)
		}
	}
	return kept, nil
}

// CommittedHours sums the daily planned hours across every timesheet of
// the resource whose contract overlaps [start, end], keyed by the
// DD/MM/YYYY date string. Timesheets named in excludeIDs are skipped;
// reconciliation uses that to leave out the row it is about to rewrite.
func (l *HourLedger) CommittedHours(resourceID string, start, end time.Time, excludeIDs ...uint) (map[string]float64, error) {
	timesheets, err := l.overlappingTimesheets(resourceID, start, end, excludeIDs)
	if err != nil {
		return nil, err
	}
	daily := map[string]float64{}
	for _, ts := range timesheets {
		for date, hours := range ts.ResourceEstimationData.DailyMap() {
			daily[date] += hours
		}
	}
	return daily, nil
}
