package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"c2c-api/config"
	"c2c-api/middleware"
	"c2c-api/models"
	"c2c-api/services"
)

// POST /timesheet/approvals/pending
func ApprovalPendingList(c *gin.Context) {
	var req struct {
		ApproverEmail string `json:"approver_email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "approver_email is required."})
		return
	}

	pending, err := approvalService().PendingForApprover(req.ApproverEmail, approverRolesFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pending)
}

// POST /timesheet/approvals/pending-count
func ApprovalPendingCount(c *gin.Context) {
	var req struct {
		ApproverEmail string `json:"approver_email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "approver_email is required."})
		return
	}

	count, err := approvalService().PendingCount(req.ApproverEmail, approverRolesFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"timesheet_pending_approval_count": count})
}

// POST /timesheet/approvals/update
//
// Accepts a single decision object or a list of them.
func UpdateTimesheetsByManager(c *gin.Context) {
	var decisions []services.ManagerDecision
	if err := c.ShouldBindBodyWith(&decisions, binding.JSON); err != nil {
		var single services.ManagerDecision
		if err := c.ShouldBindBodyWith(&single, binding.JSON); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Request data must be a list"})
			return
		}
		decisions = []services.ManagerDecision{single}
	}

	failures := approvalService().UpdateByManager(decisions, middleware.EmailFrom(c))
	status := http.StatusOK
	if len(failures) > 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"updated_timesheets": []any{},
		"errors":             failures,
	})
}

// POST /timesheet/approvals/unplanned/pending
func UnplannedPendingList(c *gin.Context) {
	var req struct {
		ApproverEmail string `json:"approver_email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "approver_email is required"})
		return
	}
	approverID, err := approvalService().ApproverIDByEmail(req.ApproverEmail)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if approverID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Approver not found"})
		return
	}

	pending, err := approvalService().UnplannedPending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pending)
}

// POST /timesheet/approvals/unplanned/update
func ApproveOrRecallUnplanned(c *gin.Context) {
	var req struct {
		ApproverEmail string                       `json:"approver_email" binding:"required"`
		Timesheets    []services.UnplannedDecision `json:"timesheets" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "approver_email and timesheets are required"})
		return
	}
	approverID, err := approvalService().ApproverIDByEmail(req.ApproverEmail)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if approverID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Approver not found"})
		return
	}

	if err := approvalService().ApproveOrRecallUnplanned(req.Timesheets, req.ApproverEmail); err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            "Timesheets processed successfully",
		"updated_timesheets": []any{},
	})
}

// POST /timesheet/approvals/submitted
func AdminSubmittedList(c *gin.Context) {
	var req struct {
		ApproverEmail string `json:"approver_email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "approver_email is required."})
		return
	}

	pending, err := approvalService().AdminPending(req.ApproverEmail)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pending)
}

// POST /timesheet/approvals/bulk
func BulkApproveTimesheets(c *gin.Context) {
	var entries []services.BulkEmployeeDecision
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format. Expected a list of employee timesheets."})
		return
	}

	failures := approvalService().BulkApprove(entries, middleware.EmailFrom(c))
	if len(failures) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bulk approval completed successfully"})
}

// POST /timesheet/approvers/search
//
// Returns guests scoped to the client plus the employee directory.
func SearchApprovers(c *gin.Context) {
	var req struct {
		ClientID string `json:"client_id"`
	}
	_ = c.ShouldBindJSON(&req)

	var response []any
	if req.ClientID != "" {
		var guests []models.GuestUser
		if err := config.DB.Find(&guests).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for _, guest := range guests {
			for _, id := range guest.ClientIDs {
				if id == req.ClientID {
					response = append(response, guest)
					break
				}
			}
		}
	}

	var employees []models.Employee
	if err := config.DB.Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, employee := range employees {
		response = append(response, employee)
	}
	c.JSON(http.StatusOK, response)
}
