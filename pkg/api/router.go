package api

import (
	"scout-sync-go/pkg/api/handlers"
	"scout-sync-go/pkg/api/middleware"
	"scout-sync-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services behind the HTTP routes
type Deps struct {
	Tasks handlers.TaskRunner
	Sync  handlers.SyncRunner
	Users interface {
		middleware.UserLookup
		handlers.UserCreator
	}
	AdminKey string
	Log      *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.Metrics())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	auth := middleware.RequireAuth(d.Users, d.AdminKey)
	admin := middleware.RequireAdmin()
	{
		scraping := v1.Group("/scraping", auth)
		{
			scraping.POST("/photos/start", admin, handlers.StartScraping(d.Tasks, models.JobPhotos))
			scraping.POST("/data/start", admin, handlers.StartScraping(d.Tasks, models.JobData))
			scraping.GET("/status/:id", handlers.GetTaskStatus(d.Tasks))
			scraping.POST("/cancel/:id", admin, handlers.CancelTask(d.Tasks))
		}

		sync := v1.Group("/sync", auth)
		{
			sync.POST("/google-sheets", admin, handlers.SyncGoogleSheets(d.Sync))
			sync.POST("/export-to-sheets", admin, handlers.ExportToSheets(d.Sync))
			sync.GET("/history", handlers.SyncHistory(d.Sync))
		}

		users := v1.Group("/users")
		{
			users.POST("", handlers.CreateUser(d.Users))
			users.GET("/me", auth, handlers.GetCurrentUser)
		}
	}

	return router
}
