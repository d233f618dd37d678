package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	httpserver "github.com/yungbote/materials-registry/internal/http"
	httpH "github.com/yungbote/materials-registry/internal/http/handlers"
	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, db *gorm.DB, svc Services, metrics *observability.Metrics) *httpserver.Server {
	log.Info("Wiring handlers...")
	routerCfg := httpserver.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		CORSOrigins:     cfg.CORSOrigins,
		MaterialHandler: httpH.NewMaterialHandler(log, svc.Materials),
		HistoryHandler:  httpH.NewHistoryHandler(log, svc.History),
		TagHandler:      httpH.NewTagHandler(log, svc.Tags),
		HealthHandler:   httpH.NewHealthHandler(pingDB(db)),
	}
	if cfg.Otel.Enabled {
		routerCfg.ServiceName = cfg.Otel.ServiceName
	}
	return httpserver.NewServer(routerCfg)
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get sql db: %w", err)
		}
		return sqlDB.PingContext(ctx)
	}
}
