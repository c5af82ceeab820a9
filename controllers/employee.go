package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"c2c-api/config"
	"c2c-api/models"
)

// GET /employees?role=...&status=...
func ListEmployees(c *gin.Context) {
	query := config.DB.Model(&models.Employee{})
	if role := c.Query("role"); role != "" {
		query = query.Where("employee_assigned_role = ?", role)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("employee_status = ?", status)
	}

	var employees []models.Employee
	if err := query.Order("employee_full_name").Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch employees"})
		return
	}

	if skill := c.Query("skill"); skill != "" {
		var filtered []models.Employee
		for _, employee := range employees {
			if strings.Contains(strings.ToLower(employee.EmployeeSkills), strings.ToLower(skill)) {
				filtered = append(filtered, employee)
			}
		}
		employees = filtered
	}
	c.JSON(http.StatusOK, gin.H{"results": employees, "count": len(employees)})
}

// GET /employee/:id
//
// Looks up by source id first, then by email.
func GetEmployee(c *gin.Context) {
	key := c.Param("id")
	var employee models.Employee
	err := config.DB.First(&employee, "employee_source_id = ?", key).Error
	if err != nil {
		err = config.DB.First(&employee, "employee_email = ?", key).Error
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		return
	}
	c.JSON(http.StatusOK, employee)
}
