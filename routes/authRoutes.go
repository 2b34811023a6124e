package routes

import (
	"github.com/gin-gonic/gin"

	"civictrack-be/controllers"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(api *gin.RouterGroup, ac *controllers.AuthController, requireAuth gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/signup", ac.Signup)
		auth.POST("/login", ac.Login)
		auth.GET("/me", requireAuth, ac.Me)
	}
}
