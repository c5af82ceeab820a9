package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"c2c-api/config"
	"c2c-api/middleware"
	"c2c-api/models"
	"c2c-api/utils"
)

// validateContractDates enforces end > start when both are present.
func validateContractDates(startDate, endDate string) (bool, string) {
	if startDate == "" || endDate == "" {
		return true, ""
	}
	start, err1 := utils.ParseFlexibleDate(startDate)
	end, err2 := utils.ParseFlexibleDate(endDate)
	if err1 != nil || err2 != nil {
		return false, "Invalid start_date or end_date format"
	}
	if !end.After(start) {
		return false, "end_date must be after start_date"
	}
	return true, ""
}

// POST /contract-sow
func CreateSowContract(c *gin.Context) {
	var sow models.SowContract
	if err := c.ShouldBindJSON(&sow); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ok, msg := validateContractDates(sow.StartDate, sow.EndDate); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	sow.UsernameCreated = middleware.UsernameFrom(c)
	sow.UsernameUpdated = middleware.UsernameFrom(c)
	if err := config.DB.Create(&sow).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create contract: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sow)
}

// GET /contract-sows?client=...
func ListSowContracts(c *gin.Context) {
	query := config.DB.Model(&models.SowContract{})
	if client := c.Query("client"); client != "" {
		query = query.Where("client_uuid = ?", client)
	}

	var contracts []models.SowContract
	if err := query.Order("date_created DESC").Find(&contracts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contracts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": contracts, "count": len(contracts)})
}

// GET /contract-sow/:id
func GetSowContract(c *gin.Context) {
	var sow models.SowContract
	if err := config.DB.First(&sow, "uuid = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}
	c.JSON(http.StatusOK, sow)
}

// PUT /contract-sow/:id
func UpdateSowContract(c *gin.Context) {
	var sow models.SowContract
	if err := config.DB.First(&sow, "uuid = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	var update models.SowContract
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ok, msg := validateContractDates(update.StartDate, update.EndDate); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	sow.ContractSowName = update.ContractSowName
	sow.TotalContractAmount = update.TotalContractAmount
	sow.StartDate = update.StartDate
	sow.EndDate = update.EndDate
	sow.ContractSowType = update.ContractSowType
	sow.PaymentTermClient = update.PaymentTermClient
	sow.PaymentTermContract = update.PaymentTermContract
	sow.Document = update.Document
	sow.UsernameUpdated = middleware.UsernameFrom(c)
	if err := config.DB.Save(&sow).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to update contract: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, sow)
}

// DELETE /contract-sow/:id
//
// A contract with a live allocation cannot be removed.
func DeleteSowContract(c *gin.Context) {
	var sow models.SowContract
	if err := config.DB.First(&sow, "uuid = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	var allocations int64
	config.DB.Model(&models.Allocation{}).Where("contract_sow_uuid = ?", sow.UUID).Count(&allocations)
	if allocations > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Contract has allocations and cannot be deleted"})
		return
	}

	if err := config.DB.Delete(&sow).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contract"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted successfully"})
}

// POST /contract-sow/check-allocation
func CheckContractAllocation(c *gin.Context) {
	var req struct {
		ContractSowUUID string `json:"contract_sow" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contract_sow is required"})
		return
	}

	var count int64
	config.DB.Model(&models.Allocation{}).Where("contract_sow_uuid = ?", req.ContractSowUUID).Count(&count)
	c.JSON(http.StatusOK, gin.H{"has_allocation": count > 0})
}
