package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timeclock/internal/auth"
	"timeclock/internal/config"
	"timeclock/internal/handler"
	"timeclock/internal/httpmiddleware"
	"timeclock/internal/ledger"
	"timeclock/internal/queue"
	"timeclock/internal/store"
	"timeclock/internal/summary"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

type healthChecker interface {
	Healthy(ctx context.Context) bool
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	var gw store.Gateway
	var health healthChecker
	switch cfg.StoreBackend {
	case "memory":
		gw = store.NewMemory()
		log.Println("store backend: memory (data will not survive restarts)")
	case "redis":
		r := store.NewRedis(cfg.RedisAddr)
		gw, health = r, r
		log.Println("store backend: redis")
	default:
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()
		gw, health = pg, pg
		log.Println("store backend: postgres")
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		redisClient := store.NewRedis(cfg.RedisAddr)
		q = queue.NewRedisQueue(redisClient.Client, "timeclock:summary")
	}

	led, err := ledger.New(ctx, gw, ledger.Options{
		BlockInactivePunch: cfg.BlockInactivePunch,
	})
	if err != nil {
		return err
	}

	sum := summary.New(cfg.SummaryServiceURL, cfg.SummaryAPIKey, cfg.SummaryModel, cfg.SummarySkip)
	if cfg.SummarySkip {
		log.Println("summary service in skip mode (SUMMARY_API_KEY not required)")
	}

	h := handler.New(cfg, led, gw, q, sum)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		storeHealthy := health == nil || health.Healthy(c.Request.Context())
		status := http.StatusOK
		if !storeHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "store": storeHealthy})
	})

	public := r.Group("/v1")
	public.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())
	public.POST("/punch", h.Punch)
	public.POST("/gate", h.Gate)

	admin := r.Group("/v1", auth.AdminAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	admin.GET("/employees", h.ListEmployees)
	admin.POST("/employees", h.CreateEmployee)
	admin.PUT("/employees/:id", h.UpdateEmployee)
	admin.PUT("/employees/:id/status", h.UpdateEmployeeStatus)
	admin.DELETE("/employees/:id", h.DeleteEmployee)
	admin.DELETE("/employees", h.DeleteAllEmployees)

	admin.GET("/punches", h.ListPunches)
	admin.POST("/punches", h.CreatePunch)
	admin.PUT("/punches/:id", h.UpdatePunch)
	admin.DELETE("/punches/:id", h.DeletePunch)
	admin.DELETE("/punches", h.DeleteAllPunches)

	admin.GET("/absences", h.ListAbsences)
	admin.POST("/absences", h.CreateAbsence)
	admin.DELETE("/absences/:id", h.DeleteAbsence)
	admin.DELETE("/absences", h.DeleteAllAbsences)

	admin.GET("/reports/occurrences", h.Occurrences)
	admin.GET("/reports/occurrences.csv", h.OccurrencesCSV)
	admin.GET("/reports/occurrences.xlsx", h.OccurrencesXLSX)
	admin.GET("/reports/punches.csv", h.PunchesCSV)

	admin.GET("/presence", h.Presence)

	admin.GET("/summary", h.Summary)
	admin.POST("/summary/refresh", h.RefreshSummary)
	admin.GET("/summary/email", h.DraftEmail)

	admin.GET("/prefs/theme", h.GetTheme)
	admin.PUT("/prefs/theme", h.PutTheme)
	admin.GET("/prefs/email", h.GetEmailConfig)
	admin.PUT("/prefs/email", h.PutEmailConfig)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
