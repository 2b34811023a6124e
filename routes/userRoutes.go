package routes

import (
	"github.com/gin-gonic/gin"

	"civictrack-be/controllers"
)

func UserRoutes(api *gin.RouterGroup, uc *controllers.UserController, requireAuth gin.HandlerFunc) {
	users := api.Group("/users")
	{
		users.GET("/profile", requireAuth, uc.Profile)
	}
}
