package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"c2c-api/models"
	"c2c-api/utils"
)

func loadTimesheet(t *testing.T, db *gorm.DB, allocationUUID, resourceID string) models.Timesheet {
	t.Helper()
	var ts models.Timesheet
	require.NoError(t, db.First(&ts, "allocation_uuid = ? AND resource_id = ?", allocationUUID, resourceID).Error)
	return ts
}

func TestUpdateNoChangeLeavesEverythingAlone(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")

	fixture := setupAllocation(t, db, svc, 1, 4, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 40, 40),
	}, models.ApproverList{{ApproverID: "M1"}})

	_, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{
		ResourceData: fixture.allocation.ResourceData,
	}, "tester")
	assert.True(t, errors.Is(err, ErrNoChange))

	ts := loadTimesheet(t, db, fixture.allocation.UUID, "E1")
	assert.Len(t, ts.ResourceEstimationData.EstimationData.Daily, 10)
}

func TestUpdateSwapSplitsWindowAtEffectiveDate(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")

	fixture := setupAllocation(t, db, svc, 1, 8, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 80, 80),
	}, nil)

	newLines := make(models.ResourceEntryList, len(fixture.allocation.ResourceData))
	copy(newLines, fixture.allocation.ResourceData)
	newLines[0].ResourceID = "E2"
	newLines[0].ResourceName = "Bob Tran"
	newLines[0].ChangeEffectiveFrom = "2025-06-06T00:00:00Z"

	updated, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{ResourceData: newLines}, "tester")
	require.NoError(t, err)
	assert.Equal(t, "E2", updated.ResourceData[0].ResourceID)
	assert.Equal(t, "2025-06-06T00:00:00Z", updated.ResourceData[0].StartDate)

	effective := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	outgoing := loadTimesheet(t, db, fixture.allocation.UUID, "E1")
	assert.Equal(t, "2025-06-06T00:00:00Z", outgoing.ResourceEstimationData.EndDate)
	for _, entry := range outgoing.ResourceEstimationData.EstimationData.Daily {
		day, err := utils.ParseDayMonthYear(entry.Date)
		require.NoError(t, err)
		assert.False(t, day.After(effective), entry.Date)
	}
	assert.Len(t, outgoing.ResourceEstimationData.EstimationData.Daily, 5)

	incoming := loadTimesheet(t, db, fixture.allocation.UUID, "E2")
	assert.Equal(t, "2025-06-06T00:00:00Z", incoming.ResourceEstimationData.StartDate)
	assert.Equal(t, "06/06/2025", incoming.ResourceEstimationData.EstimationData.Daily[0].Date)
	assert.Len(t, incoming.ResourceEstimationData.EstimationData.Daily, 6)
}

func TestUpdateRejectedDiffLeavesApproverUntouched(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")

	fixture := setupAllocation(t, db, svc, 1, 4, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 40, 40),
	}, models.ApproverList{{ApproverID: "M1", ApproverName: "Mara Quinn"}})

	newLines := make(models.ResourceEntryList, len(fixture.allocation.ResourceData))
	copy(newLines, fixture.allocation.ResourceData)
	newLines[0].ResourceID = "E2"
	newLines[0].ResourceName = "Bob Tran"
	// No change_effective_from on the swapped line, so validation fails
	// and the new approver must not land either.
	_, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{
		ResourceData: newLines,
		Approver:     models.ApproverList{{ApproverID: "M2", ApproverName: "Noel Park"}},
	}, "tester")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	var reloaded models.Allocation
	require.NoError(t, db.First(&reloaded, "uuid = ?", fixture.allocation.UUID).Error)
	assert.True(t, reloaded.Approver.Contains("M1"))
	assert.False(t, reloaded.Approver.Contains("M2"))

	ts := loadTimesheet(t, db, fixture.allocation.UUID, "E1")
	assert.True(t, ts.Approver.Contains("M1"))
	assert.False(t, ts.Approver.Contains("M2"))
}

func TestUpdateReleasesResourceToPlaceholder(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")

	fixture := setupAllocation(t, db, svc, 1, 8, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 80, 80),
	}, nil)

	newLines := make(models.ResourceEntryList, len(fixture.allocation.ResourceData))
	copy(newLines, fixture.allocation.ResourceData)
	newLines[0].ResourceID = models.PlaceholderResourceID
	newLines[0].ResourceName = "Budget"
	newLines[0].ChangeEffectiveFrom = "2025-06-06T00:00:00Z"

	updated, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{ResourceData: newLines}, "tester")
	require.NoError(t, err)
	assert.Equal(t, models.PlaceholderResourceID, updated.ResourceData[0].ResourceID)

	outgoing := loadTimesheet(t, db, fixture.allocation.UUID, "E1")
	assert.Equal(t, "2025-06-06T00:00:00Z", outgoing.ResourceEstimationData.EndDate)

	var timesheets int64
	db.Model(&models.Timesheet{}).Where("allocation_uuid = ?", fixture.allocation.UUID).Count(&timesheets)
	assert.Equal(t, int64(1), timesheets)
}

func TestUpdateActivatesBudgetLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")

	fixture := setupAllocation(t, db, svc, 1, 8, models.ResourceEntryList{
		resourceLine(models.PlaceholderResourceID, "Budget", "Developer", 80, 80),
	}, nil)

	newLines := make(models.ResourceEntryList, len(fixture.allocation.ResourceData))
	copy(newLines, fixture.allocation.ResourceData)
	newLines[0].ResourceID = "E2"
	newLines[0].ResourceName = "Bob Tran"
	newLines[0].ChangeEffectiveFrom = "2025-06-09T00:00:00Z"

	_, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{ResourceData: newLines}, "tester")
	require.NoError(t, err)

	incoming := loadTimesheet(t, db, fixture.allocation.UUID, "E2")
	assert.Equal(t, "2025-06-09T00:00:00Z", incoming.ResourceEstimationData.StartDate)
	assert.Len(t, incoming.ResourceEstimationData.EstimationData.Daily, 5)
	assert.Equal(t, "09/06/2025", incoming.ResourceEstimationData.EstimationData.Daily[0].Date)
}

func TestUpdateRejectsRemovedResourceLines(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")

	fixture := setupAllocation(t, db, svc, 2, 4, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 40, 40),
		resourceLine("E2", "Bob Tran", "Developer", 40, 40),
	}, nil)

	_, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{
		ResourceData: fixture.allocation.ResourceData[:1],
	}, "tester")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Violations[0].Reason, "cannot be removed")
	assert.Contains(t, validation.Violations[0].Reason, models.PlaceholderResourceID)
}

func TestUpdateRequiresEffectiveDateForChangedLines(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")

	fixture := setupAllocation(t, db, svc, 1, 8, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 80, 80),
	}, nil)

	newLines := make(models.ResourceEntryList, len(fixture.allocation.ResourceData))
	copy(newLines, fixture.allocation.ResourceData)
	newLines[0].ResourceID = "E2"

	_, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{ResourceData: newLines}, "tester")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Violations[0].Reason, "change_effective_from")
}

func TestUpdateApproverCascadesToTimesheets(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")

	fixture := setupAllocation(t, db, svc, 1, 4, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 40, 40),
	}, models.ApproverList{{ApproverID: "M1", ApproverName: "Mara Quinn"}})

	updated, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{
		ResourceData: fixture.allocation.ResourceData,
		Approver: models.ApproverList{
			{ApproverID: "M1", ApproverName: "Mara Quinn"},
			{ApproverID: "M2", ApproverName: "Noah Patel"},
		},
	}, "tester")
	require.NoError(t, err)
	assert.True(t, updated.Approver.Contains("M2"))

	ts := loadTimesheet(t, db, fixture.allocation.UUID, "E1")
	assert.True(t, ts.Approver.Contains("M2"))
	// Resource data untouched by a pure approver change.
	assert.Len(t, ts.ResourceEstimationData.EstimationData.Daily, 10)
}

func TestUpdateSameResourceMovesWindowStart(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")

	fixture := setupAllocation(t, db, svc, 1, 8, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 80, 80),
	}, nil)

	newLines := make(models.ResourceEntryList, len(fixture.allocation.ResourceData))
	copy(newLines, fixture.allocation.ResourceData)
	newLines[0].ChangeEffectiveFrom = "2025-06-09T00:00:00Z"

	_, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{ResourceData: newLines}, "tester")
	require.NoError(t, err)

	var timesheets []models.Timesheet
	require.NoError(t, db.Where("allocation_uuid = ?", fixture.allocation.UUID).Find(&timesheets).Error)
	require.Len(t, timesheets, 1)
	assert.Equal(t, "2025-06-09T00:00:00Z", timesheets[0].ResourceEstimationData.StartDate)
	assert.Len(t, timesheets[0].ResourceEstimationData.EstimationData.Daily, 5)
}

func TestUpdateAddsResourceLineFromSpareSlot(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")

	fixture := setupAllocation(t, db, svc, 2, 4, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 40, 40),
	}, nil)

	newLines := make(models.ResourceEntryList, len(fixture.allocation.ResourceData))
	copy(newLines, fixture.allocation.ResourceData)
	newLines = append(newLines, resourceLine("E2", "Bob Tran", "Developer", 40, 40))

	updated, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{ResourceData: newLines}, "tester")
	require.NoError(t, err)
	require.Len(t, updated.ResourceData, 2)
	assert.Equal(t, "asg-02", updated.ResourceData[1].AssignmentID)
	assert.Equal(t, 2, updated.AllocationsCount)

	added := loadTimesheet(t, db, fixture.allocation.UUID, "E2")
	assert.Len(t, added.ResourceEstimationData.EstimationData.Daily, 10)
}

func TestUpdateRejectsAdditionBeyondSlots(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocationService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")

	fixture := setupAllocation(t, db, svc, 1, 4, models.ResourceEntryList{
		resourceLine("E1", "Alice Moran", "Developer", 40, 40),
	}, nil)

	newLines := make(models.ResourceEntryList, len(fixture.allocation.ResourceData))
	copy(newLines, fixture.allocation.ResourceData)
	newLines = append(newLines, resourceLine("E2", "Bob Tran", "Developer", 40, 40))

	_, err := svc.Update(fixture.allocation.UUID, UpdateAllocationRequest{ResourceData: newLines}, "tester")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Violations[0].Reason, "no estimation slot")
}
