package routes

import (
	"github.com/gin-gonic/gin"

	"civictrack-be/controllers"
	"civictrack-be/middlewares"
)

// IssueRoutes sets up the issue routes. Static paths are registered before /:id.
func IssueRoutes(api *gin.RouterGroup, ic *controllers.IssueController, requireAuth, rateLimit gin.HandlerFunc) {
	issue := api.Group("/issues")
	{
		issue.GET("/stats", ic.GetStats)
		issue.GET("/all", requireAuth, ic.GetAllIssues)
		issue.GET("/my", requireAuth, ic.GetMyIssues)
		issue.GET("/recent", requireAuth, ic.RecentIssues)
		issue.GET("/:id", requireAuth, ic.GetIssue)
		issue.POST("", requireAuth, rateLimit, ic.CreateIssue)
		issue.PUT("/:id/status", requireAuth, middlewares.RequireAuthority(), ic.UpdateStatus)
		issue.POST("/:id/upvote", requireAuth, ic.ToggleUpvote)
	}
}
