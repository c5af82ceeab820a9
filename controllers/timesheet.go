package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"c2c-api/services"
)

// POST /timesheet/entries
func SubmitWeeklyTimesheet(c *gin.Context) {
	var req services.SubmitWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	failures, err := entryService().Submit(req)
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	if len(failures) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": failures})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Timesheet entries created/updated successfully."})
}

// POST /timesheet/missing-weeks
func MissingTimesheetWeeks(c *gin.Context) {
	var req struct {
		EmployeeEmail string `json:"employee_email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Employee email is required"})
		return
	}

	result, err := entryService().MissingWeeks(req.EmployeeEmail, time.Now().UTC())
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
