package routes

import (
	"urbanfix-be/controllers"
	"urbanfix-be/middlewares"
	"urbanfix-be/models"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the admin user management and audit routes
func UserRoutes(api *gin.RouterGroup, h *controllers.UserController, authed gin.HandlerFunc) {
	admin := api.Group("/admin", authed, middlewares.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", h.GetUsers)
		admin.PATCH("/users/:id", h.UpdateUser)
		admin.GET("/audits", h.GetAudits)
	}
}
