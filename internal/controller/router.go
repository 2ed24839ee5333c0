package controller

import (
	"coderunner/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RouterOptions carries the guard middleware settings.
type RouterOptions struct {
	SharedSecret   string
	MaxBodyBytes   int64
	RateLimiter    *middleware.RateLimiter
	RateLimitPerIP int
}

// NewRouter assembles the gin engine with the guard chain:
// trace -> body cap -> shared secret -> per-route rate limit.
func NewRouter(ctl *ExecuteController, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceContextMiddleware())
	router.Use(middleware.BodyLimitMiddleware(opts.MaxBodyBytes))

	router.GET("/health", ctl.Health)
	router.GET("/languages", ctl.Languages)

	guarded := router.Group("/")
	guarded.Use(middleware.SharedSecretMiddleware(opts.SharedSecret))

	guarded.POST("/execute",
		middleware.RateLimitMiddleware(opts.RateLimiter, "execute", opts.RateLimitPerIP),
		ctl.Execute)
	guarded.POST("/judge",
		middleware.RateLimitMiddleware(opts.RateLimiter, "judge", opts.RateLimitPerIP),
		ctl.Judge)
	guarded.POST("/test",
		middleware.RateLimitMiddleware(opts.RateLimiter, "test", opts.RateLimitPerIP),
		ctl.Test)

	return router
}
