package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional dependencies left nil simply leave their routes unregistered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	var enqueuer SyncEnqueuer
	if cfg.TaskClient != nil {
		enqueuer = cfg.TaskClient
	}

	var prayerCounter PrayerCounter
	if cfg.Queries != nil {
		prayerCounter = cfg.Queries
	}
	health := NewHealthController(cfg.Database, cfg.SyncEngine, prayerCounter, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	if cfg.Queries != nil {
		categories := NewCategoriesController(cfg.Queries)
		api.GET("/categories", categories.ListRoots)
		api.GET("/categories/lookup", categories.Lookup)
		api.GET("/categories/:id", categories.Get)
		api.GET("/categories/:id/children", categories.Children)
		api.GET("/categories/:id/descendants", categories.Descendants)
		api.GET("/categories/:id/prayers", categories.Prayers)

		prayers := NewPrayersController(cfg.Queries)
		api.GET("/languages", prayers.Languages)
		api.GET("/prayers/by-category", prayers.ByCategory)
		api.GET("/prayers/search", prayers.Search)
		api.GET("/prayers/latest", prayers.Latest)
		api.GET("/prayers/:id", prayers.Get)

		favourites := NewFavouritesController(cfg.Queries)
		api.GET("/favorites", favourites.ListFavourites)
		api.GET("/favorites/count", favourites.GetFavouriteCount)
		api.GET("/prayers/:id/favorite", favourites.IsFavourite)
		api.POST("/prayers/:id/favorite", favourites.AddFavourite)
		api.DELETE("/prayers/:id/favorite", favourites.RemoveFavourite)
		api.POST("/prayers/:id/favorite/toggle", favourites.ToggleFavourite)

		userCategories := NewUserCategoriesController(cfg.Queries)
		api.GET("/user-categories", userCategories.List)
		api.POST("/user-categories", userCategories.Create)
		api.DELETE("/user-categories/:id", userCategories.Delete)
		api.GET("/user-categories/:id/prayers", userCategories.Prayers)
		api.POST("/user-categories/:id/prayers/:prayerId", userCategories.AddPrayer)
		api.DELETE("/user-categories/:id/prayers/:prayerId", userCategories.RemovePrayer)
	}

	// Sync endpoints
	if cfg.SyncEngine != nil {
		var paypal PayPalReader
		if cfg.Queries != nil {
			paypal = cfg.Queries
		}
		syncController := NewSyncController(cfg.SyncEngine, cfg.SyncState, cfg.SyncRuns, cfg.Scheduler, enqueuer, paypal)
		limit := RateLimitMiddleware(newTriggerLimiter(cfg.TriggerRPS, cfg.TriggerBurst))

		api.GET("/sync/status", syncController.Status)
		api.POST("/sync/run", limit, syncController.Run)
		api.GET("/paypal", syncController.PayPal)
		api.POST("/paypal/refresh", limit, syncController.RefreshPayPal)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/run/:type", tasksController.RunTask)
	}

	// Notice stream
	if cfg.Events != nil {
		events := NewEventsController(cfg.Events)
		api.GET("/events", events.Stream)
		api.GET("/notices/recent", events.Recent)
	}

	return router
}
