package router

import (
	"github.com/gin-gonic/gin"

	"seo-ai-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers) {
	// 条目
	items := v1.Group("/items")
	{
		items.GET("", h.Item.ListItems)
		items.POST("/:id/seo", h.Item.GenerateSEO)
		items.POST("/:id/content", h.Item.GenerateContent)
		items.POST("/:id/vision", h.Item.GenerateVision)
		items.PUT("/:id/fields", h.Item.SaveFields)
	}

	// 批量生成
	bulk := v1.Group("/bulk")
	{
		bulk.POST("", h.Bulk.RunBulk)
		bulk.GET("/jobs", h.Job.ListJobs)
		bulk.POST("/jobs", h.Job.SubmitJob)
		bulk.GET("/jobs/:jid", h.Job.GetJob)
		bulk.DELETE("/jobs/:jid", h.Job.CancelJob)
	}

	// 网关设置
	v1.POST("/gateway/test", h.Gateway.TestConnection)
}

// Handlers 路由依赖的处理器
type Handlers struct {
	Health  *handler.HealthHandler
	Item    *handler.ItemHandler
	Bulk    *handler.BulkHandler
	Job     *handler.JobHandler
	Gateway *handler.GatewayHandler
}
