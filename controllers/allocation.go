package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"c2c-api/config"
	"c2c-api/middleware"
	"c2c-api/models"
	"c2c-api/services"
	"c2c-api/utils"
)

// POST /allocation
func CreateAllocation(c *gin.Context) {
	var req services.CreateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allocation, err := allocationService().Create(req, middleware.UsernameFrom(c))
	if err != nil {
		respondCreateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Allocation created successfully",
		"result":  allocation,
	})
}

// PUT /allocation/:id
func UpdateAllocation(c *gin.Context) {
	var req services.UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allocation, err := allocationService().Update(c.Param("id"), req, middleware.UsernameFrom(c))
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Allocation updated successfully",
		"result":  allocation,
	})
}

// DELETE /allocation/:id
func DeleteAllocation(c *gin.Context) {
	if err := allocationService().Delete(c.Param("id")); err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Allocation deleted successfully"})
}

// GET /allocation/:id
func GetAllocation(c *gin.Context) {
	var allocation models.Allocation
	if err := config.DB.First(&allocation, "uuid = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Allocation not found"})
		return
	}
	c.JSON(http.StatusOK, allocation)
}

// GET /allocations?client=...
func ListAllocations(c *gin.Context) {
	query := config.DB.Model(&models.Allocation{})
	if client := c.Query("client"); client != "" {
		query = query.Where("client_uuid = ?", client)
	}
	if contract := c.Query("contract_sow"); contract != "" {
		query = query.Where("contract_sow_uuid = ?", contract)
	}

	var allocations []models.Allocation
	if err := query.Order("date_created DESC").Find(&allocations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch allocations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": allocations, "count": len(allocations)})
}

// POST /allocation/resource-availability
func SearchAvailability(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		StartDate string `json:"start_date" binding:"required"`
		EndDate   string `json:"end_date" binding:"required"`
		Hours     string `json:"hours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: start_date, end_date, or hours."})
		return
	}

	start, err1 := utils.ParseFlexibleDate(req.StartDate)
	end, err2 := utils.ParseFlexibleDate(req.EndDate)
	hours, err3 := strconv.ParseFloat(req.Hours, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format or hours."})
		return
	}

	results, err := availabilityService().Search(services.AvailabilityQuery{
		Name:          req.Name,
		Start:         start,
		End:           end,
		RequiredHours: hours,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}
