package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/materials-registry/internal/http/handlers"
	httpMW "github.com/yungbote/materials-registry/internal/http/middleware"
	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	MaterialHandler *httpH.MaterialHandler
	HistoryHandler  *httpH.HistoryHandler
	TagHandler      *httpH.TagHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins...))
	r.Use(httpMW.RequestContext())
	r.Use(httpMW.Access(cfg.Log, cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Materials
		if cfg.MaterialHandler != nil {
			api.POST("/materials", cfg.MaterialHandler.CreateMaterial)
			api.GET("/materials/:id", cfg.MaterialHandler.GetMaterial)
			api.PATCH("/materials/:id", cfg.MaterialHandler.UpdateMaterial)
			api.DELETE("/materials/:id", cfg.MaterialHandler.DeleteMaterial)
		}

		// History
		if cfg.HistoryHandler != nil {
			api.GET("/materials/:id/history", cfg.HistoryHandler.ListMaterialHistory)
			api.GET("/history/:id", cfg.HistoryHandler.GetHistoryRecord)
		}

		// Tags
		if cfg.TagHandler != nil {
			api.PATCH("/tags/:id", cfg.TagHandler.UpdateTag)
		}
	}

	return r
}
