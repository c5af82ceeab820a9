package routes

import (
	"github.com/gin-gonic/gin"

	"c2c-api/controllers"
	"c2c-api/middleware"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "C2C API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Clients
			clients := protected.Group("")
			clients.Use(middleware.RequireRoles("c2c_client_admin", "c2c_super_admin", "c2c_viewer"))
			{
				clients.GET("/clients", controllers.ListClients)
				clients.GET("/client/:id", controllers.GetClient)
			}
			clientAdmin := protected.Group("")
			clientAdmin.Use(middleware.RequireRoles("c2c_client_admin", "c2c_super_admin"))
			{
				clientAdmin.POST("/client", controllers.CreateClient)
				clientAdmin.PUT("/client/:id", controllers.UpdateClient)
				clientAdmin.DELETE("/client/:id", controllers.DeleteClient)
				clientAdmin.POST("/client/check-name", controllers.CheckClientName)
			}

			// Estimations
			estimations := protected.Group("")
			estimations.Use(middleware.RequireRoles("c2c_estimation_admin", "c2c_super_admin"))
			{
				estimations.POST("/estimation", controllers.CreateEstimation)
				estimations.GET("/estimations", controllers.ListEstimations)
				estimations.GET("/estimation/:id", controllers.GetEstimation)
				estimations.PUT("/estimation/:id", controllers.UpdateEstimation)
				estimations.DELETE("/estimation/:id", controllers.DeleteEstimation)
			}

			// SOW contracts
			contracts := protected.Group("")
			contracts.Use(middleware.RequireRoles("c2c_contract_admin", "c2c_super_admin"))
			{
				contracts.POST("/contract-sow", controllers.CreateSowContract)
				contracts.GET("/contract-sows", controllers.ListSowContracts)
				contracts.GET("/contract-sow/:id", controllers.GetSowContract)
				contracts.PUT("/contract-sow/:id", controllers.UpdateSowContract)
				contracts.DELETE("/contract-sow/:id", controllers.DeleteSowContract)
				contracts.POST("/contract-sow/check-allocation", controllers.CheckContractAllocation)
			}

			// Allocations
			allocations := protected.Group("")
			allocations.Use(middleware.RequireRoles("c2c_allocation_admin", "c2c_super_admin"))
			{
				allocations.POST("/allocation", controllers.CreateAllocation)
				allocations.PUT("/allocation/:id", controllers.UpdateAllocation)
				allocations.DELETE("/allocation/:id", controllers.DeleteAllocation)
				allocations.GET("/allocation/:id", controllers.GetAllocation)
				allocations.GET("/allocations", controllers.ListAllocations)
				allocations.POST("/allocation/resource-availability", controllers.SearchAvailability)
			}

			// Employee directory
			employees := protected.Group("")
			employees.Use(middleware.RequireRoles("c2c_allocation_admin", "c2c_timesheet_manager", "c2c_super_admin"))
			{
				employees.GET("/employees", controllers.ListEmployees)
				employees.GET("/employee/:id", controllers.GetEmployee)
			}

			// Employee-facing timesheet entry
			entry := protected.Group("/timesheet")
			entry.Use(middleware.RequireRoles("c2c_timesheet_employee", "c2c_super_admin"))
			{
				entry.POST("/entries", controllers.SubmitWeeklyTimesheet)
				entry.POST("/missing-weeks", controllers.MissingTimesheetWeeks)
			}

			// Approvals
			approvals := protected.Group("/timesheet/approvals")
			{
				managers := approvals.Group("")
				managers.Use(middleware.RequireRoles(
					"c2c_timesheet_manager", "c2c_super_admin", "c2c_guest_employee", "c2c_timesheet_admin"))
				{
					managers.POST("/pending", controllers.ApprovalPendingList)
					managers.POST("/update", controllers.UpdateTimesheetsByManager)
				}

				counts := approvals.Group("")
				counts.Use(middleware.RequireRoles(
					"c2c_timesheet_manager", "c2c_super_admin", "c2c_guest_employee", "c2c_hr_manager", "c2c_timesheet_admin"))
				{
					counts.POST("/pending-count", controllers.ApprovalPendingCount)
				}

				hr := approvals.Group("/unplanned")
				hr.Use(middleware.RequireRoles("c2c_hr_manager", "c2c_super_admin"))
				{
					hr.POST("/pending", controllers.UnplannedPendingList)
					hr.POST("/update", controllers.ApproveOrRecallUnplanned)
				}

				admins := approvals.Group("")
				admins.Use(middleware.RequireRoles("c2c_timesheet_admin", "c2c_super_admin"))
				{
					admins.POST("/submitted", controllers.AdminSubmittedList)
					admins.POST("/bulk", controllers.BulkApproveTimesheets)
				}
			}

			// Approver directory
			approvers := protected.Group("")
			approvers.Use(middleware.RequireRoles("c2c_timesheet_manager", "c2c_super_admin", "c2c_timesheet_employee"))
			{
				approvers.POST("/timesheet/approvers/search", controllers.SearchApprovers)
			}
		}
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Route not found"})
	})
}
