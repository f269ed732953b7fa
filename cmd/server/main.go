package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/lostserver/diagnostic-gateway/internal/config"
	"github.com/lostserver/diagnostic-gateway/internal/database"
	"github.com/lostserver/diagnostic-gateway/internal/dispatch"
	"github.com/lostserver/diagnostic-gateway/internal/handler"
	"github.com/lostserver/diagnostic-gateway/internal/queue"
	"github.com/lostserver/diagnostic-gateway/internal/repository"
	"github.com/lostserver/diagnostic-gateway/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	targets := config.LoadTargets()

	db, err := database.Open(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			log.Fatalf("mongo: ensure indexes: %v", err)
		}
		cancel()
	}

	users := repository.NewUserRepo(db)
	reports := repository.NewReportRepo(db)
	dispatcher := dispatch.New(targets, cfg.AnalysisTimeout)

	authH := handler.NewAuthHandler(cfg, users)
	analysisH := handler.NewAnalysisHandler(dispatcher, reports)
	reportH := handler.NewReportHandler(reports)

	// Redis is optional: a nil client disables rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, config.LoadRateLimitConfig(), rdb, cfg.JWTSecret)
	router.RegisterAnalysis(e, analysisH, reportH, cfg.JWTSecret)

	// Background audit-log consumer; reconnects on its own.
	go func() {
		if err := queue.StartAnalysisConsumer(); err != nil {
			log.Printf("analysis consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, targets=%d)", addr, cfg.Env, len(targets))

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
