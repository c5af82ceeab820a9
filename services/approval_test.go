package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"c2c-api/models"
)

func seedEntry(t *testing.T, db *gorm.DB, employeeID string, year, week int, approver models.ApproverList) models.EmployeeEntryTimesheet {
	t.Helper()
	entry := models.EmployeeEntryTimesheet{
		EmployeeID:       employeeID,
		Year:             year,
		WeekNumber:       week,
		BillableHours:    38,
		TotalHours:       38,
		Approver:         approver,
		TsApprovalStatus: models.StatusSubmitted,
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func seedUnplannedRow(t *testing.T, db *gorm.DB, employeeID string, year, week int, nonBillable, unplanned float64) models.EmployeeUnplannedNonbillableHours {
	t.Helper()
	row := models.EmployeeUnplannedNonbillableHours{
		EmployeeID:       employeeID,
		Year:             year,
		WeekNumber:       week,
		NonBillableHours: nonBillable,
		UnplannedHours:   unplanned,
		Approver:         hrPoolApprover,
		TsApprovalStatus: models.StatusSubmitted,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestPendingForApproverScopedToApproverList(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")
	seedEmployee(t, db, "M1", "Mara Quinn", "mara@corp.test")

	seedEntry(t, db, "E1", 2025, 23, models.ApproverList{{ApproverID: "M1"}})
	seedEntry(t, db, "E2", 2025, 23, models.ApproverList{{ApproverID: "M2"}})

	pending, err := svc.PendingForApprover("mara@corp.test", ApproverRoles{Manager: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "E1", pending[0].EmployeeID)
	assert.Equal(t, "Alice Moran", pending[0].EmployeeName)
	require.Len(t, pending[0].PendingTimesheets, 1)
	assert.Equal(t, 23, pending[0].PendingTimesheets[0].WeekNumber)
	require.Len(t, pending[0].PendingTimesheets[0].Contracts, 1)
	assert.Equal(t, "38:00", pending[0].PendingTimesheets[0].Contracts[0].BillableHours)
}

func TestPendingForApproverMergesContractsPerWeek(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "M1", "Mara Quinn", "mara@corp.test")

	seedEntry(t, db, "E1", 2025, 23, models.ApproverList{{ApproverID: "M1"}})
	seedEntry(t, db, "E1", 2025, 23, models.ApproverList{{ApproverID: "M1"}})
	seedEntry(t, db, "E1", 2025, 24, models.ApproverList{{ApproverID: "M1"}})

	pending, err := svc.PendingForApprover("mara@corp.test", ApproverRoles{Manager: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Len(t, pending[0].PendingTimesheets, 2)
	for _, week := range pending[0].PendingTimesheets {
		if week.WeekNumber == 23 {
			assert.Len(t, week.Contracts, 2)
		} else {
			assert.Len(t, week.Contracts, 1)
		}
	}
}

func TestPendingForGuestScopedToClients(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")
	clientA := seedClient(t, db, "Globex")
	clientB := seedClient(t, db, "Initech")
	require.NoError(t, db.Create(&models.GuestUser{
		GuestUserID:      "G1",
		GuestUserName:    "Grace Okafor",
		GuestUserEmailID: "grace@guest.test",
		ClientIDs:        models.StringList{clientA.UUID},
	}).Error)

	entryA := seedEntry(t, db, "E1", 2025, 23, nil)
	entryA.ClientUUID = clientA.UUID
	require.NoError(t, db.Save(&entryA).Error)
	entryB := seedEntry(t, db, "E2", 2025, 23, nil)
	entryB.ClientUUID = clientB.UUID
	require.NoError(t, db.Save(&entryB).Error)

	pending, err := svc.PendingForApprover("grace@guest.test", ApproverRoles{Guest: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "E1", pending[0].EmployeeID)
}

func TestPendingForApproverSelfRowsDroppedOnlyInProd(t *testing.T) {
	setup := func(t *testing.T) (*ApprovalService, *gorm.DB) {
		db := newTestDB(t)
		seedEmployee(t, db, "M1", "Mara Quinn", "mara@corp.test")
		seedEntry(t, db, "M1", 2025, 23, models.ApproverList{{ApproverID: "M1"}})
		return NewApprovalService(db), db
	}

	t.Run("demo keeps own rows", func(t *testing.T) {
		t.Setenv("PROFILE", "DEMO")
		svc, _ := setup(t)
		pending, err := svc.PendingForApprover("mara@corp.test", ApproverRoles{Manager: true})
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("prod drops own rows", func(t *testing.T) {
		t.Setenv("PROFILE", "PROD")
		svc, _ := setup(t)
		pending, err := svc.PendingForApprover("mara@corp.test", ApproverRoles{Manager: true})
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestUpdateByManagerParsesClockHours(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	entry := seedEntry(t, db, "E1", 2025, 23, models.ApproverList{{ApproverID: "M1"}})

	failures := svc.UpdateByManager([]ManagerDecision{{
		EntryID:          entry.ID,
		EmployeeID:       "E1",
		BillableHours:    "07:30",
		NonBillableHours: "01:15",
		ApproverComments: "adjusted to actuals",
	}}, "mara@corp.test")
	require.Empty(t, failures)

	var saved models.EmployeeEntryTimesheet
	require.NoError(t, db.First(&saved, "id = ?", entry.ID).Error)
	assert.Equal(t, 7.5, saved.BillableHours)
	assert.Equal(t, 1.25, saved.NonBillableHours)
	assert.Equal(t, 8.75, saved.TotalHours)
	assert.Equal(t, models.StatusApproved, saved.TsApprovalStatus)
	assert.Equal(t, "mara@corp.test", saved.ApprovedBy)
	assert.Equal(t, "adjusted to actuals", saved.ApproverComments)
}

func TestUpdateByManagerAutoApprovesEmptyUnplannedRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	entry := seedEntry(t, db, "E1", 2025, 23, models.ApproverList{{ApproverID: "M1"}})
	row := seedUnplannedRow(t, db, "E1", 2025, 23, 0, 0)

	failures := svc.UpdateByManager([]ManagerDecision{{EntryID: entry.ID, EmployeeID: "E1"}}, "mara@corp.test")
	require.Empty(t, failures)

	var saved models.EmployeeUnplannedNonbillableHours
	require.NoError(t, db.First(&saved, "id = ?", row.ID).Error)
	assert.Equal(t, models.StatusApproved, saved.TsApprovalStatus)
	assert.Equal(t, "mara@corp.test", saved.ApprovedBy)
}

func TestUpdateByManagerLeavesNonEmptyUnplannedRowAlone(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	entry := seedEntry(t, db, "E1", 2025, 23, models.ApproverList{{ApproverID: "M1"}})
	row := seedUnplannedRow(t, db, "E1", 2025, 23, 8, 0)

	failures := svc.UpdateByManager([]ManagerDecision{{EntryID: entry.ID, EmployeeID: "E1"}}, "mara@corp.test")
	require.Empty(t, failures)

	var saved models.EmployeeUnplannedNonbillableHours
	require.NoError(t, db.First(&saved, "id = ?", row.ID).Error)
	assert.Equal(t, models.StatusSubmitted, saved.TsApprovalStatus)
}

func TestUpdateByManagerCollectsFailures(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	entry := seedEntry(t, db, "E1", 2025, 23, models.ApproverList{{ApproverID: "M1"}})

	failures := svc.UpdateByManager([]ManagerDecision{
		{EntryID: entry.ID, EmployeeID: "E1", Status: models.StatusRecall, ApproverComments: "resubmit week 23"},
		{EntryID: 9999, EmployeeID: "E1"},
	}, "mara@corp.test")
	require.Len(t, failures, 1)
	assert.Equal(t, "timesheet not found", failures[0].Error)

	var saved models.EmployeeEntryTimesheet
	require.NoError(t, db.First(&saved, "id = ?", entry.ID).Error)
	assert.Equal(t, models.StatusRecall, saved.TsApprovalStatus)
}

func TestPendingCountRoleBranches(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")
	seedEmployee(t, db, "E3", "Cara Diaz", "cara@corp.test")
	seedEmployee(t, db, "M1", "Mara Quinn", "mara@corp.test")

	seedEntry(t, db, "E1", 2025, 23, models.ApproverList{{ApproverID: "M1"}})
	seedEntry(t, db, "E2", 2025, 23, models.ApproverList{{ApproverID: "M2"}})
	seedUnplannedRow(t, db, "E3", 2025, 23, 0, 5)

	cases := []struct {
		name  string
		roles ApproverRoles
		want  int
	}{
		{"manager", ApproverRoles{Manager: true}, 1},
		{"hr", ApproverRoles{HR: true}, 1},
		{"admin", ApproverRoles{Admin: true}, 3},
		{"admin and manager", ApproverRoles{Admin: true, Manager: true}, 4},
		{"hr and manager", ApproverRoles{HR: true, Manager: true}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			count, err := svc.PendingCount("mara@corp.test", tc.roles)
			require.NoError(t, err)
			assert.Equal(t, tc.want, count)
		})
	}
}

func TestUnplannedPendingListsRowsWithHours(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedUnplannedRow(t, db, "E1", 2025, 23, 8, 2)
	seedUnplannedRow(t, db, "E1", 2025, 24, 0, 0)

	pending, err := svc.UnplannedPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Len(t, pending[0].PendingTimesheets, 1)
	week := pending[0].PendingTimesheets[0]
	assert.Equal(t, 23, week.WeekNumber)
	assert.Equal(t, "08:00", week.TimeoffHours)
	assert.Equal(t, "02:00", week.UnplannedHours)
}

func TestApproveOrRecallUnplannedRejectsInvalidStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	row := seedUnplannedRow(t, db, "E1", 2025, 23, 8, 0)

	err := svc.ApproveOrRecallUnplanned([]UnplannedDecision{
		{EntryID: row.ID, Status: "maybe"},
	}, "hr@corp.test")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	var saved models.EmployeeUnplannedNonbillableHours
	require.NoError(t, db.First(&saved, "id = ?", row.ID).Error)
	assert.Equal(t, models.StatusSubmitted, saved.TsApprovalStatus)
}

func TestApproveOrRecallUnplannedAppliesDecisions(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	row := seedUnplannedRow(t, db, "E1", 2025, 23, 8, 0)

	err := svc.ApproveOrRecallUnplanned([]UnplannedDecision{
		{EntryID: row.ID, Status: models.StatusRecall, ApproverComments: "needs a comment"},
	}, "hr@corp.test")
	require.NoError(t, err)

	var saved models.EmployeeUnplannedNonbillableHours
	require.NoError(t, db.First(&saved, "id = ?", row.ID).Error)
	assert.Equal(t, models.StatusRecall, saved.TsApprovalStatus)
	assert.Equal(t, "needs a comment", saved.ApproverComments)
	assert.Equal(t, "hr@corp.test", saved.ApprovedBy)
}

func TestBulkApproveCollectsPartialFailures(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	entry := seedEntry(t, db, "E1", 2025, 23, nil)
	row := seedUnplannedRow(t, db, "E1", 2025, 23, 0, 3)

	failures := svc.BulkApprove([]BulkEmployeeDecision{{
		EmployeeID:     "E1",
		UnplannedID:    row.ID,
		UnplannedHours: 4,
		Timesheets: []struct {
			EntryID uint   `json:"timesheet_id"`
			Status  string `json:"ts_approval_status"`
		}{
			{EntryID: entry.ID},
			{EntryID: 9999},
		},
	}}, "admin@corp.test")
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "9999")

	var savedEntry models.EmployeeEntryTimesheet
	require.NoError(t, db.First(&savedEntry, "id = ?", entry.ID).Error)
	assert.Equal(t, models.StatusApproved, savedEntry.TsApprovalStatus)

	var savedRow models.EmployeeUnplannedNonbillableHours
	require.NoError(t, db.First(&savedRow, "id = ?", row.ID).Error)
	assert.Equal(t, models.StatusApproved, savedRow.TsApprovalStatus)
	assert.Equal(t, 4.0, savedRow.UnplannedHours)
}

func TestAdminPendingMergesUncoveredUnplannedRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "E1", "Alice Moran", "alice@corp.test")
	seedEmployee(t, db, "E2", "Bob Tran", "bob@corp.test")

	seedEntry(t, db, "E1", 2025, 23, nil)
	seedUnplannedRow(t, db, "E2", 2025, 24, 8, 0)

	pending, err := svc.AdminPending("admin@corp.test")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "E1", pending[0].EmployeeID)
	assert.Equal(t, "E2", pending[1].EmployeeID)
	require.Len(t, pending[1].PendingTimesheets, 1)
	assert.Equal(t, 24, pending[1].PendingTimesheets[0].WeekNumber)
	assert.Equal(t, "08:00", pending[1].PendingTimesheets[0].TimeoffHours)
}

func TestApproverIDByEmailPrefersGuests(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(db)
	seedEmployee(t, db, "M1", "Mara Quinn", "mara@corp.test")
	require.NoError(t, db.Create(&models.GuestUser{
		GuestUserID:      "G1",
		GuestUserEmailID: "shared@corp.test",
	}).Error)

	id, err := svc.ApproverIDByEmail("shared@corp.test")
	require.NoError(t, err)
	assert.Equal(t, "G1", id)

	id, err = svc.ApproverIDByEmail("mara@corp.test")
	require.NoError(t, err)
	assert.Equal(t, "M1", id)

	id, err = svc.ApproverIDByEmail("nobody@corp.test")
	require.NoError(t, err)
	assert.Empty(t, id)
}
