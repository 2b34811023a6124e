package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"civictrack-be/config"
	"civictrack-be/controllers"
	"civictrack-be/metrics"
	"civictrack-be/middlewares"
	"civictrack-be/services"
)

const rateLimitWindow = 24 * time.Hour

// Dependencies are the wired components the HTTP layer is built from.
type Dependencies struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
	Redis   *redis.Client
	Auth    *services.AuthService
	Issues  *services.IssueService
	Users   *services.UserService
}

// SetupRouter builds the gin engine with middleware and every route.
func SetupRouter(d Dependencies) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(middlewares.RequestID(), middlewares.RequestLogger(d.Logger), gin.Recovery())
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middlewares.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))
	if cfg.MaxUploadBytes > 0 {
		// room for the other form fields next to the image
		r.MaxMultipartMemory = cfg.MaxUploadBytes + 1<<20
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	if cfg.GCSBucket == "" && cfg.UploadDir != "" {
		uploads := r.Group("/uploads", func(c *gin.Context) {
			c.Header("X-Content-Type-Options", "nosniff")
			c.Next()
		})
		uploads.Static("/", cfg.UploadDir)
	}

	requireAuth := middlewares.AuthMiddleware(d.Auth, d.Logger)
	rateLimit := middlewares.IssueRateLimiter(d.Redis, cfg.IssueLimitKey, cfg.IssueDailyLimit, rateLimitWindow, d.Metrics, d.Logger)

	api := r.Group("/api")
	AuthRoutes(api, controllers.NewAuthController(d.Auth, d.Logger), requireAuth)
	IssueRoutes(api, controllers.NewIssueController(d.Issues, cfg.MaxUploadBytes, d.Logger), requireAuth, rateLimit)
	UserRoutes(api, controllers.NewUserController(d.Users, d.Logger), requireAuth)

	return r
}
