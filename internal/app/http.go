package app

import (
	"github.com/yungbote/omex-backend/internal/http"
	"github.com/yungbote/omex-backend/internal/http/handlers"
	"github.com/yungbote/omex-backend/internal/http/middleware"
	"github.com/yungbote/omex-backend/internal/observability"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, cfg Config, clients Clients, serviceset Services, metrics *observability.Metrics) http.RouterConfig {
	log.Info("Wiring handlers and middleware...")
	deps := map[string]handlers.Pinger{"database": clients.DB}
	if clients.Redis != nil {
		deps["redis"] = redisPinger{rdb: clients.Redis}
	}
	return http.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		TracingEnabled: cfg.OtelEnabled,
		AllowOrigins:   cfg.CORSAllowOrigins,
		Metrics:        metrics,
		AuthMiddleware: middleware.NewAuthMiddleware(log, serviceset.Auth),
		AuthHandler:    handlers.NewAuthHandler(log, serviceset.Auth),
		UserHandler:    handlers.NewUserHandler(log, serviceset.User),
		MindmapHandler: handlers.NewMindmapHandler(log, serviceset.Conversion),
		StreakHandler:  handlers.NewStreakHandler(log, serviceset.StudyPlan),
		MediaHandler:   handlers.NewMediaHandler(log, clients.Bucket),
		HealthHandler:  handlers.NewHealthHandler(deps),
	}
}
