package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"c2c-api/models"
)

func seedLedgerTimesheet(t *testing.T, db *gorm.DB, resourceID, sowUUID string, hoursPerDay float64) models.Timesheet {
	t.Helper()
	ts := models.Timesheet{
		ResourceID:             resourceID,
		ContractSowUUID:        sowUUID,
		ResourceEstimationData: juneEstimationWindow("Developer", 1, hoursPerDay),
	}
	require.NoError(t, db.Create(&ts).Error)
	return ts
}

func TestCommittedHoursAggregatesAcrossContracts(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Initech")
	sowA := seedSowContract(t, db, client.UUID, "", "Initech SOW A")
	sowB := seedSowContract(t, db, client.UUID, "", "Initech SOW B")
	seedLedgerTimesheet(t, db, "E1", sowA.UUID, 3)
	seedLedgerTimesheet(t, db, "E1", sowB.UUID, 4)
	seedLedgerTimesheet(t, db, "E2", sowA.UUID, 8)

	ledger := NewHourLedger(db)
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)

	committed, err := ledger.CommittedHours("E1", start, end)
	require.NoError(t, err)
	assert.Equal(t, 7.0, committed["02/06/2025"])
	assert.Equal(t, 7.0, committed["13/06/2025"])
	assert.Len(t, committed, 10)
}

func TestCommittedHoursSkipsNonOverlappingContracts(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Initech")
	julySow := models.SowContract{
		ClientUUID:      client.UUID,
		ContractSowName: "Initech July SOW",
		StartDate:       "2025-07-01",
		EndDate:         "2025-07-31",
	}
	require.NoError(t, db.Create(&julySow).Error)
	seedLedgerTimesheet(t, db, "E1", julySow.UUID, 8)

	ledger := NewHourLedger(db)
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)

	committed, err := ledger.CommittedHours("E1", start, end)
	require.NoError(t, err)
	assert.Empty(t, committed)
}

func TestCommittedHoursExcludesGivenTimesheets(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Initech")
	sow := seedSowContract(t, db, client.UUID, "", "Initech SOW")
	excluded := seedLedgerTimesheet(t, db, "E1", sow.UUID, 3)
	seedLedgerTimesheet(t, db, "E1", sow.UUID, 4)

	ledger := NewHourLedger(db)
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)

	committed, err := ledger.CommittedHours("E1", start, end, excluded.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, committed["02/06/2025"])
}
