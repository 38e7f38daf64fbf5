package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lewa-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lewa-backend/internal/http/middleware"
	"github.com/yungbote/lewa-backend/internal/observability"
	"github.com/yungbote/lewa-backend/internal/platform/logger"
)

const otelServiceName = "lewa-gateway"

type RouterConfig struct {
	Log             *logger.Logger
	AllowedOrigins  []string
	MaxRequestBytes int64
	// Metrics, when set, instruments requests and serves GET /metrics.
	Metrics *observability.Metrics

	TutorHandler  *httpH.TutorHandler
	SearchHandler *httpH.SearchHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpMW.Recover(cfg.Log))
	r.Use(otelgin.Middleware(otelServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.LimitBody(cfg.MaxRequestBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Research and GCE messenger. Static segments win over :subject.
		if cfg.SearchHandler != nil {
			api.POST("/research", cfg.SearchHandler.Research)
			api.POST("/messenger/announcements", cfg.SearchHandler.Announcements)
			api.POST("/messenger/exam-notices", cfg.SearchHandler.ExamNotices)
			api.POST("/messenger/notifications", cfg.SearchHandler.Notifications)
			api.GET("/messenger/health", cfg.SearchHandler.MessengerHealth)
		}

		// Tutors
		if cfg.TutorHandler != nil {
			api.POST("/:subject", cfg.TutorHandler.Ask)
			api.POST("/:subject/stream", cfg.TutorHandler.Stream)
			api.GET("/:subject/health", cfg.TutorHandler.Health)
		}
	}

	return r
}
