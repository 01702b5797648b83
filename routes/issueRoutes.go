package routes

import (
	"time"

	"urbanfix-be/controllers"
	"urbanfix-be/middlewares"
	"urbanfix-be/models"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue, comment and photo routes
func IssueRoutes(api *gin.RouterGroup, d Deps, authed gin.HandlerFunc) {
	h := d.Issues
	staff := middlewares.RequireRoles(models.RoleStaff, models.RoleAdmin)

	create := []gin.HandlerFunc{authed}
	if d.Counter != nil {
		create = append(create, middlewares.RateLimiter(d.Counter, middlewares.RateLimit{
			Prefix: d.Limits.IssuePrefix,
			Limit:  d.Limits.IssueDailyLimit,
			Window: 24 * time.Hour,
			Key:    middlewares.ByUser,
		}, d.Log, d.Metrics))
	}
	create = append(create, h.CreateIssue)

	issue := api.Group("/issues")
	{
		issue.POST("", create...)
		issue.GET("", h.GetAllIssues)
		issue.GET("/stats", authed, staff, h.GetStats)
		issue.GET("/:id", authed, h.GetIssue)
		issue.PUT("/:id", authed, h.UpdateIssue)
		issue.PATCH("/:id/status", authed, staff, h.ChangeStatus)
		issue.DELETE("/:id", authed, staff, h.DeleteIssue)
		issue.POST("/:id/photos", authed, h.UploadPhoto)
		issue.GET("/:id/photos/:photoId/url", authed, h.GetPhotoURL)
		issue.GET("/:id/comments", authed, h.GetComments)
		issue.POST("/:id/comments", authed, h.AddComment)
	}
}

// WorkOrderRoutes are staff only.
func WorkOrderRoutes(api *gin.RouterGroup, h *controllers.WorkOrderController, authed gin.HandlerFunc) {
	wo := api.Group("/workorders", authed, middlewares.RequireRoles(models.RoleStaff, models.RoleAdmin))
	{
		wo.POST("", h.CreateWorkOrder)
		wo.GET("", h.GetWorkOrders)
		wo.GET("/:id", h.GetWorkOrder)
		wo.PUT("/:id", h.UpdateWorkOrder)
		wo.PATCH("/:id", h.UpdateWorkOrder)
	}
}
