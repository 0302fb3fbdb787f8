package app

import (
	"campus_spirit_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		qa := api.Group("/qa")
		{
			qa.POST("/ask", c.qa.Ask)
			qa.POST("/ask/stream", c.qa.AskStream)
		}

		points := api.Group("/points")
		{
			points.POST("/credit", c.points.Credit)
			points.GET("/stats/:spiritId", c.points.Stats)
			points.GET("/leaderboard", c.points.Leaderboard)
			points.GET("/rank/:spiritId", c.points.Rank)
			points.GET("/history/:spiritId", c.points.History)
			points.GET("/rewards", c.points.Rewards)
			points.POST("/redeem", c.points.Redeem)
			points.POST("/streak", c.points.Streak)
		}

		knowledge := api.Group("/knowledge")
		{
			knowledge.POST("", c.knowledge.Add)
			knowledge.GET("/search", c.knowledge.Search)
			knowledge.POST("/import", c.knowledge.Import)
			knowledge.GET("/export", c.knowledge.Export)
			knowledge.GET("/stats", c.knowledge.Stats)
		}
	}
}
