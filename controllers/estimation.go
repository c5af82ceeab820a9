package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"c2c-api/config"
	"c2c-api/middleware"
	"c2c-api/models"
)

// normalizeDailyDates rewrites every daily entry date to DD/MM/YYYY.
// Source data mixes DD/MM and MM/DD; the format is inferred from the
// whole plan (any month value above 12 means the parts are swapped).
func normalizeDailyDates(plan models.ResourcePlan) error {
	swapped := false
	for _, line := range plan {
		for _, entry := range line.EstimationData.Daily {
			parts := strings.Split(entry.Date, "/")
			if len(parts) != 3 {
				return fmt.Errorf("invalid date format: %s", entry.Date)
			}
			var first, second int
			if _, err := fmt.Sscanf(entry.Date, "%d/%d/", &first, &second); err != nil {
				return fmt.Errorf("invalid date format: %s", entry.Date)
			}
			if second > 12 {
				swapped = true
			}
		}
	}
	if !swapped {
		return nil
	}
	for i := range plan {
		daily := plan[i].EstimationData.Daily
		for j := range daily {
			parts := strings.Split(daily[j].Date, "/")
			daily[j].Date = fmt.Sprintf("%s/%s/%s", parts[1], parts[0], parts[2])
		}
	}
	return nil
}

// POST /estimation
func CreateEstimation(c *gin.Context) {
	var estimation models.Estimation
	if err := c.ShouldBindJSON(&estimation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := normalizeDailyDates(estimation.Resource); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	estimation.UsernameCreated = middleware.UsernameFrom(c)
	estimation.UsernameUpdated = middleware.UsernameFrom(c)
	if err := config.DB.Create(&estimation).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create estimation: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, estimation)
}

// GET /estimations?client=...
func ListEstimations(c *gin.Context) {
	query := config.DB.Model(&models.Estimation{}).Where("estimation_archived = ?", false)
	if client := c.Query("client"); client != "" {
		query = query.Where("client_uuid = ?", client)
	}

	var estimations []models.Estimation
	if err := query.Order("date_created DESC").Find(&estimations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch estimations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": estimations, "count": len(estimations)})
}

// GET /estimation/:id
func GetEstimation(c *gin.Context) {
	var estimation models.Estimation
	if err := config.DB.First(&estimation, "uuid = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Estimation not found"})
		return
	}
	c.JSON(http.StatusOK, estimation)
}

// PUT /estimation/:id
//
// An estimation becomes immutable once a SOW contract references it.
func UpdateEstimation(c *gin.Context) {
	var estimation models.Estimation
	if err := config.DB.First(&estimation, "uuid = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Estimation not found"})
		return
	}

	var linked int64
	config.DB.Model(&models.SowContract{}).Where("estimation_uuid = ?", estimation.UUID).Count(&linked)
	if linked > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Estimation is linked to a contract and can no longer be updated"})
		return
	}

	var update models.Estimation
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := normalizeDailyDates(update.Resource); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	estimation.Name = update.Name
	estimation.ContractStartDate = update.ContractStartDate
	estimation.ContractEndDate = update.ContractEndDate
	estimation.Resource = update.Resource
	estimation.Billing = update.Billing
	estimation.MarketCost = update.MarketCost
	estimation.MarketPrice = update.MarketPrice
	estimation.MarketGM = update.MarketGM
	estimation.CompanyAvgCost = update.CompanyAvgCost
	estimation.CompanyAvgPrice = update.CompanyAvgPrice
	estimation.CompanyAvgGM = update.CompanyAvgGM
	estimation.UsernameUpdated = middleware.UsernameFrom(c)
	if err := config.DB.Save(&estimation).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to update estimation: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, estimation)
}

// DELETE /estimation/:id
func DeleteEstimation(c *gin.Context) {
	var estimation models.Estimation
	if err := config.DB.First(&estimation, "uuid = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Estimation not found"})
		return
	}
	estimation.EstimationArchived = true
	estimation.UsernameUpdated = middleware.UsernameFrom(c)
	if err := config.DB.Save(&estimation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive estimation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Estimation archived successfully"})
}
