package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/lostserver/diagnostic-gateway/internal/config"
	"github.com/lostserver/diagnostic-gateway/internal/handler"
	"github.com/lostserver/diagnostic-gateway/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// This endpoint can be used by load balancers or monitoring systems to
	// verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth lifecycle and applies the necessary
// middleware.  Register and login are rate limited: they are the endpoints
// where bcrypt work and credential guessing meet.  Logout deliberately
// takes no middleware at all so it stays idempotent even without a cookie.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client, jwtSecret string) {
	limiter := middleware.NewTokenBucket(rlCfg, rdb)

	g := e.Group("/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.GET("/logout", a.Logout)

	// whoami and profile updates need a valid session; the middleware
	// rejects with 401 before the handler runs.
	g.GET("/whoami", a.WhoAmI, middleware.CookieAuth(jwtSecret))
	g.PUT("/profile", a.UpdateProfile, middleware.CookieAuth(jwtSecret))
}

// RegisterAnalysis registers the analysis dispatch endpoint and the saved
// report listing.  Analysis runs for guests too, so it only attaches the
// non-rejecting identity middleware; signed-in callers get their report
// results persisted.
func RegisterAnalysis(e *echo.Echo, an *handler.AnalysisHandler, rp *handler.ReportHandler, jwtSecret string) {
	e.GET("/analysis/targets", an.ListTargets)
	e.POST("/analysis/:target", an.Analyze, middleware.CookieIdentity(jwtSecret))
	e.GET("/v1/reports", rp.List, middleware.CookieAuth(jwtSecret))
}
