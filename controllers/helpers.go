package controllers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"c2c-api/config"
	"c2c-api/middleware"
	"c2c-api/services"
)

// Services are shared across requests; the allocation service in
// particular owns the per-resource locks, so it must be a singleton.
var (
	serviceOnce     sync.Once
	allocationSvc   *services.AllocationService
	approvalSvc     *services.ApprovalService
	entrySvc        *services.EntryService
	availabilitySvc *services.AvailabilityService
)

func initServices() {
	serviceOnce.Do(func() {
		allocationSvc = services.NewAllocationService(config.DB)
		approvalSvc = services.NewApprovalService(config.DB)
		entrySvc = services.NewEntryService(config.DB)
		availabilitySvc = services.NewAvailabilityService(config.DB)
	})
}

func allocationService() *services.AllocationService {
	initServices()
	return allocationSvc
}

func approvalService() *services.ApprovalService {
	initServices()
	return approvalSvc
}

func entryService() *services.EntryService {
	initServices()
	return entrySvc
}

func availabilityService() *services.AvailabilityService {
	initServices()
	return availabilitySvc
}

// approverRolesFrom maps the caller's token roles onto the approval
// role set.
func approverRolesFrom(c *gin.Context) services.ApproverRoles {
	return services.ApproverRoles{
		Admin:   middleware.HasRole(c, "c2c_timesheet_admin"),
		Manager: middleware.HasRole(c, "c2c_timesheet_manager"),
		HR:      middleware.HasRole(c, "c2c_hr_manager"),
		Guest:   middleware.HasRole(c, "c2c_guest_employee"),
	}
}

// respondCreateError maps allocation-creation failures onto the status
// codes the UI expects.
func respondCreateError(c *gin.Context, err error) {
	var (
		conflict  *services.ConflictError
		valErr    *services.ValidationError
		submitted *services.SubmittedWeekError
		daily     *services.DailyLimitError
		notFound  *services.NotFoundError
	)
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": conflict.Error()})
	case errors.As(err, &valErr):
		c.JSON(http.StatusConflict, gin.H{"error": valErr.Error(), "details": valErr.Violations})
	case errors.Is(err, services.ErrNoEstimationData):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAllocationExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &submitted):
		c.JSON(http.StatusBadRequest, gin.H{"error": submitted.Error(), "weeks": submitted.Weeks})
	case errors.As(err, &daily):
		c.JSON(http.StatusConflict, gin.H{"error": daily.Error(), "date": daily.Date})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// respondUpdateError is the reconciliation variant: validation and cap
// failures are plain bad requests, and a no-op diff is a success.
func respondUpdateError(c *gin.Context, err error) {
	var (
		valErr    *services.ValidationError
		submitted *services.SubmittedWeekError
		daily     *services.DailyLimitError
		notFound  *services.NotFoundError
	)
	switch {
	case errors.Is(err, services.ErrNoChange):
		c.JSON(http.StatusOK, gin.H{"message": err.Error()})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error(), "details": valErr.Violations})
	case errors.As(err, &submitted):
		c.JSON(http.StatusBadRequest, gin.H{"error": submitted.Error(), "weeks": submitted.Weeks})
	case errors.As(err, &daily):
		c.JSON(http.StatusBadRequest, gin.H{"error": daily.Error(), "date": daily.Date})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
