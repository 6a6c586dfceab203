// @title           Parkwise API
// @version         1.0
// @description     Parking payments, platform commissions and commission reporting
// @host            localhost:8080
// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/fkhayef/parkwise/docs"
	"github.com/fkhayef/parkwise/internal/account"
	"github.com/fkhayef/parkwise/internal/commission"
	"github.com/fkhayef/parkwise/internal/config"
	"github.com/fkhayef/parkwise/internal/database"
	"github.com/fkhayef/parkwise/internal/notification"
	"github.com/fkhayef/parkwise/internal/payment"
	"github.com/fkhayef/parkwise/internal/report"
	"github.com/fkhayef/parkwise/internal/scheduler"
	"github.com/fkhayef/parkwise/internal/settlement"
	"github.com/fkhayef/parkwise/pkg/logger"
	mw "github.com/fkhayef/parkwise/pkg/middleware"
	"github.com/fkhayef/parkwise/pkg/rabbitmq"
	"github.com/fkhayef/parkwise/pkg/response"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	rate, _ := cfg.Rate()
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	zl.Info("connected to database")

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			zl.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	// Event publishing falls back to logging when the broker is unreachable
	var publisher rabbitmq.Publisher = &rabbitmq.EventProducerFallback{Logger: zl}
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			zl.Warn("rabbitmq unavailable, events will only be logged", zap.Error(err))
		} else {
			publisher = producer
		}
	}

	// Owners hear about their payments and settlements through the inbox
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)
	publisher = notification.NewPublisher(publisher, notificationService, zl)
	defer publisher.Close()

	calc, err := commission.NewCalculator(rate)
	if err != nil {
		zl.Fatal("invalid commission rate", zap.Error(err))
	}

	// Account feature
	accountRepo := account.NewRepository(db)
	accountService := account.NewService(accountRepo)
	accountHandler := account.NewHandler(accountService)

	var ownerLookup account.Lookup = accountService
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zl.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Warn("redis ping failed, owner lookups will miss the cache until it recovers", zap.Error(err))
		}
		ownerLookup = account.NewCachedLookup(accountService, rdb, cfg.AccountCacheTTL, "", zl)
	}

	// Payment feature
	paymentRepo := payment.NewRepository(db)
	paymentService := payment.NewService(paymentRepo, calc, publisher, cfg.EventsExchange, loc, zl)
	paymentHandler := payment.NewHandler(paymentService)

	// Commission reporting feature
	reportRepo := report.NewRepository(db)
	reportService := report.NewService(reportRepo, paymentRepo, ownerLookup, publisher, cfg.EventsExchange, loc, zl)
	reportHandler := report.NewHandler(reportService)

	// Settlement feature
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, paymentRepo, publisher, cfg.EventsExchange, zl)
	settlementHandler := settlement.NewHandler(settlementService)

	var jobs *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		jobs = scheduler.New(reportService, scheduler.Schedules{
			Daily:   cfg.DailyReportSchedule,
			Weekly:  cfg.WeeklyReportSchedule,
			Monthly: cfg.MonthlyReportSchedule,
		}, loc, zl)
		if err := jobs.Start(); err != nil {
			zl.Fatal("failed to start report scheduler", zap.Error(err))
		}
	}

	authenticator := mw.NewAuthenticator(cfg.JWTSecret)
	if cfg.DevAuth {
		authenticator = mw.NewAuthenticator("")
		zl.Warn("development auth enabled, callers are taken from X-Test-* headers")
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(zl))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := database.Health(r.Context(), db)
		if stats["status"] != "up" {
			response.Error(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", stats["error"])
			return
		}
		response.JSON(w, http.StatusOK, stats)
	})

	docs.SwaggerInfo.Host = ""
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticator.Middleware)

		// Mount feature routers
		r.Mount("/accounts", accountHandler.Routes())
		r.Mount("/payments", paymentHandler.Routes())
		r.Mount("/owners", paymentHandler.OwnerRoutes())
		r.Mount("/commissions", reportHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
	}
	if jobs != nil {
		select {
		case <-jobs.Stop().Done():
		case <-shutdownCtx.Done():
			zl.Warn("report jobs still running at shutdown")
		}
	}
	zl.Info("server stopped")
}
