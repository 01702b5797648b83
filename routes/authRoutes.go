package routes

import (
	"urbanfix-be/controllers"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(api *gin.RouterGroup, h *controllers.AuthController, authed gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.LoginUser)
		auth.POST("/logout", h.LogoutUser)
		auth.GET("/profile", authed, h.GetMe)
		auth.PUT("/profile", authed, h.UpdateMe)
	}
}
