package app

import (
	"answer_bank_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// 答案检索
		api.POST("/search", c.search.Search)
		api.POST("/search/batch", c.search.BatchSearch)
		api.GET("/stats", c.search.Stats)

		// 答案提交与聚合
		api.POST("/answers", c.answer.Submit)
		api.POST("/answers/:id/vote", c.answer.Vote)
		api.GET("/questions/:id/conflicts", c.answer.Conflicts)

		// 纠错流程
		correction := api.Group("/correction")
		{
			correction.POST("/next", c.correction.Next)
			correction.POST("/feedback", c.correction.Feedback)
			correction.POST("/reset/:id", c.correction.Reset)
		}

		// 质量审核
		quality := api.Group("/quality")
		{
			quality.GET("/audit/:id", c.quality.Audit)
			quality.GET("/batch", c.quality.BatchAudit)
			quality.POST("/fix/:id", c.quality.AutoFix)
		}

		// AI 兜底
		api.POST("/ai/answer", c.ai.Answer)
	}
}
