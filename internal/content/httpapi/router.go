package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	// AdminSecret signs admin tokens. Admin routes are not mounted without it.
	AdminSecret    string
	Log            *logger.Logger
	ContentHandler *ContentHandler
	AdminHandler   *AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		Recover(cfg.Log),
		RequestID(),
		otelgin.Middleware(cfg.ServiceName),
		AccessLog(cfg.Log),
	)
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(CORS(cfg.AllowedOrigins))
	}

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/chapters", cfg.ContentHandler.Chapters)
		api.POST("/lessons", cfg.ContentHandler.Lesson)
	}

	// ===============
	// || Admin     ||
	// ===============
	if cfg.AdminSecret != "" && cfg.AdminHandler != nil {
		admin := api.Group("/admin")
		admin.Use(RequireAdmin(cfg.AdminSecret, cfg.Log))
		admin.PUT("/overrides/chapters", cfg.AdminHandler.PutChapters)
		admin.DELETE("/overrides/chapters", cfg.AdminHandler.DeleteChapters)
		admin.PUT("/overrides/lessons", cfg.AdminHandler.PutLesson)
		admin.DELETE("/overrides/lessons", cfg.AdminHandler.DeleteLesson)
		admin.GET("/settings", cfg.AdminHandler.GetSettings)
		admin.PUT("/settings", cfg.AdminHandler.PutSettings)
	}

	return router
}
