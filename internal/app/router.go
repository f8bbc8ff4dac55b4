package app

import (
	"edusync/internal/config"
	"edusync/internal/middleware"
	"edusync/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		progress := authGroup.Group("/progress")
		{
			progress.GET("/modules/:moduleId", c.progress.GetModuleProgress)
			progress.PUT("/modules/:moduleId", c.progress.UpdateModuleProgress)
			progress.GET("/courses/:courseId", c.progress.GetCourseSummary)
		}

		achievements := authGroup.Group("/achievements")
		{
			achievements.GET("", c.achievement.GetUserAchievements)
			achievements.POST("/:id/claim", c.achievement.ClaimAchievement)
		}

		wallet := authGroup.Group("/wallet")
		{
			wallet.GET("", c.wallet.GetWallet)
			wallet.GET("/transactions", c.wallet.GetTransactions)
			wallet.POST("/spend", c.wallet.Spend)
		}

		sync := authGroup.Group("/sync")
		{
			sync.GET("/status", c.sync.GetStatus)
			sync.POST("/now", c.sync.SyncNow)
			sync.POST("/connectivity", c.sync.SetConnectivity)
		}
	}
}
