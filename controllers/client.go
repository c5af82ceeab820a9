package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"c2c-api/config"
	"c2c-api/middleware"
	"c2c-api/models"
)

// POST /client
func CreateClient(c *gin.Context) {
	var client models.Client
	if err := c.ShouldBindJSON(&client); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Client
	if err := config.DB.First(&existing, "name = ? AND deleted = ?", client.Name, false).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A client with this name already exists"})
		return
	}

	client.UsernameCreated = middleware.UsernameFrom(c)
	client.UsernameUpdated = middleware.UsernameFrom(c)
	if err := config.DB.Create(&client).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create client: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, client)
}

// GET /clients
func ListClients(c *gin.Context) {
	var clients []models.Client
	if err := config.DB.Where("deleted = ?", false).Order("name").Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch clients"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": clients, "count": len(clients)})
}

// GET /client/:id
func GetClient(c *gin.Context) {
	var client models.Client
	if err := config.DB.First(&client, "uuid = ? AND deleted = ?", c.Param("id"), false).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	c.JSON(http.StatusOK, client)
}

// PUT /client/:id
func UpdateClient(c *gin.Context) {
	var client models.Client
	if err := config.DB.First(&client, "uuid = ? AND deleted = ?", c.Param("id"), false).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}

	var update models.Client
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client.Name = update.Name
	client.Address = update.Address
	client.City = update.City
	client.State = update.State
	client.Country = update.Country
	client.ZipCode = update.ZipCode
	client.PaymentTerms = update.PaymentTerms
	client.InvoiceTerms = update.InvoiceTerms
	client.BusinessUnit = update.BusinessUnit
	client.ClientAPEmails = update.ClientAPEmails
	client.UsernameUpdated = middleware.UsernameFrom(c)
	if err := config.DB.Save(&client).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to update client: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, client)
}

// DELETE /client/:id
func DeleteClient(c *gin.Context) {
	var client models.Client
	if err := config.DB.First(&client, "uuid = ? AND deleted = ?", c.Param("id"), false).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	client.Deleted = true
	client.UsernameUpdated = middleware.UsernameFrom(c)
	if err := config.DB.Save(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete client"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

// POST /client/check-name
func CheckClientName(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	var count int64
	config.DB.Model(&models.Client{}).Where("name = ? AND deleted = ?", req.Name, false).Count(&count)
	c.JSON(http.StatusOK, gin.H{"exists": count > 0})
}
