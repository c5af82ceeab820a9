package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"c2c-api/models"
)

var testDBCounter int64

// newTestDB opens a private in-memory database with the full schema.
// cache=shared keeps every pooled connection on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Client{},
		&models.ClientDocument{},
		&models.Contract{},
		&models.SowContract{},
		&models.Estimation{},
		&models.Pricing{},
		&models.Employee{},
		&models.GuestUser{},
		&models.Allocation{},
		&models.Timesheet{},
		&models.EmployeeEntryTimesheet{},
		&models.EmployeeUnplannedNonbillableHours{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// juneDates is a two-week run of weekdays, ISO weeks 23 and 24 of 2025.
var juneDates = []string{
	"02/06/2025", "03/06/2025", "04/06/2025", "05/06/2025", "06/06/2025",
	"09/06/2025", "10/06/2025", "11/06/2025", "12/06/2025", "13/06/2025",
}

func juneDailyPlan(hoursPerDay float64) []models.DailyHours {
	daily := make([]models.DailyHours, 0, len(juneDates))
	for _, date := range juneDates {
		daily = append(daily, models.DailyHours{Date: date, Hours: hoursPerDay})
	}
	return daily
}

func juneEstimationWindow(role string, headcount int, hoursPerDay float64) models.EstimationWindow {
	return models.EstimationWindow{
		Role:           role,
		StartDate:      "2025-06-02T00:00:00Z",
		EndDate:        "2025-06-13T00:00:00Z",
		NumOfResources: headcount,
		Billability:    models.Billable,
		EstimationData: models.EstimationData{Daily: juneDailyPlan(hoursPerDay)},
	}
}

func seedEmployee(t *testing.T, db *gorm.DB, id, name, email string) models.Employee {
	t.Helper()
	employee := models.Employee{
		EmployeeSourceID: id,
		EmployeeFullName: name,
		EmployeeEmail:    email,
		EmployeeStatus:   "active",
	}
	require.NoError(t, db.Create(&employee).Error)
	return employee
}

func seedClient(t *testing.T, db *gorm.DB, name string) models.Client {
	t.Helper()
	client := models.Client{Name: name, Country: "USA"}
	require.NoError(t, db.Create(&client).Error)
	return client
}

func seedEstimation(t *testing.T, db *gorm.DB, clientUUID, name string, plan models.ResourcePlan) models.Estimation {
	t.Helper()
	estimation := models.Estimation{
		Name:       name,
		ClientUUID: clientUUID,
		Resource:   plan,
	}
	require.NoError(t, db.Create(&estimation).Error)
	return estimation
}

func seedSowContract(t *testing.T, db *gorm.DB, clientUUID, estimationUUID, name string) models.SowContract {
	t.Helper()
	sow := models.SowContract{
		ClientUUID:      clientUUID,
		EstimationUUID:  estimationUUID,
		ContractSowName: name,
		StartDate:       "2025-06-01",
		EndDate:         "2025-06-30",
		ContractSowType: models.ContractTypeTimeAndMaterial,
	}
	require.NoError(t, db.Create(&sow).Error)
	return sow
}

func resourceLine(id, name, role string, cost, billable float64) models.ResourceEntry {
	return models.ResourceEntry{
		ResourceID:    id,
		ResourceName:  name,
		Role:          role,
		StartDate:     "2025-06-02T00:00:00Z",
		EndDate:       "2025-06-13T00:00:00Z",
		CostHours:     cost,
		BillableHours: billable,
	}
}

// allocationFixture wires a client, estimation, contract and allocation
// around the two-week June plan.
type allocationFixture struct {
	client     models.Client
	estimation models.Estimation
	sow        models.SowContract
	allocation *models.Allocation
}

func setupAllocation(t *testing.T, db *gorm.DB, svc *AllocationService, headcount int, hoursPerDay float64, lines models.ResourceEntryList, approver models.ApproverList) *allocationFixture {
	t.Helper()
	client := seedClient(t, db, "Globex")
	estimation := seedEstimation(t, db, client.UUID, "Globex Estimation",
		models.ResourcePlan{juneEstimationWindow("Developer", headcount, hoursPerDay)})
	sow := seedSowContract(t, db, client.UUID, estimation.UUID, "Globex SOW")

	allocation, err := svc.Create(CreateAllocationRequest{
		Name:            "Globex Allocation",
		EstimationUUID:  estimation.UUID,
		ContractSowUUID: sow.UUID,
		ClientUUID:      client.UUID,
		ResourceData:    lines,
		Approver:        approver,
	}, "tester")
	require.NoError(t, err)
	return &allocationFixture{client: client, estimation: estimation, sow: sow, allocation: allocation}
}
