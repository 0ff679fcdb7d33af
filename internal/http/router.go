package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/omex-backend/internal/http/handlers"
	"github.com/yungbote/omex-backend/internal/http/middleware"
	"github.com/yungbote/omex-backend/internal/observability"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	TracingEnabled bool
	AllowOrigins   []string
	Metrics        *observability.Metrics

	AuthMiddleware *middleware.AuthMiddleware

	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	MindmapHandler *handlers.MindmapHandler
	StreakHandler  *handlers.StreakHandler
	MediaHandler   *handlers.MediaHandler
	HealthHandler  *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(middleware.Recovery(cfg.Log))
	r.Use(middleware.AttachTraceContext())
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	// Local media
	if cfg.MediaHandler != nil {
		r.GET("/media/avatar/*key", cfg.MediaHandler.Avatar)
	}

	api := r.Group("/api")

	// Auth (public)
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}

	// Mindmap conversion (public)
	if cfg.MindmapHandler != nil {
		api.POST("/mindmap/upload", cfg.MindmapHandler.Upload)
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.UserHandler != nil {
			protected.GET("/auth/me", cfg.UserHandler.GetMe)
		}

		// Streaks
		if cfg.StreakHandler != nil {
			protected.POST("/streaks/initialize", cfg.StreakHandler.Initialize)
			protected.GET("/streaks/plan", cfg.StreakHandler.GetPlan)
			protected.GET("/streaks/quiz/:topicIndex/:subtopicIndex", cfg.StreakHandler.GetQuiz)
			protected.POST("/streaks/submit-quiz/:topicIndex/:subtopicIndex", cfg.StreakHandler.SubmitQuiz)
		}
	}

	return r
}
