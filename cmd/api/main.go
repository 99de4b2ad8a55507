package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/api"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/api/handler"
	appmiddleware "github.com/sanosuguru/go-bus-ticket-booking/internal/api/middleware"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/config"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/gateway"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/worker"
)

func main() {
	// .env ファイルがあれば読み込む（なくてもエラーにしない）
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.NewLogger(os.Getenv("APP_ENV"))
	logger.Set(log)
	defer func() { _ = logger.Sync() }()

	m := metrics.Init()

	// PostgreSQL 接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, "migrations"); err != nil {
		logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// Redis 接続
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Redis接続に失敗しました", zap.Error(err))
	}
	defer redisClient.Close()

	// リポジトリ
	scheduleRepo := postgres.NewScheduleRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	lockRepo := postgres.NewSeatLockRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	txManager := postgres.NewTxManager(db)

	lockManager := redisinfra.NewLockManager(redisClient)
	availabilityCache := redisinfra.NewAvailabilityCache(redisClient)

	gateways := gateway.NewSelector(&cfg.Gateway)

	// サービス
	scheduleService := application.NewScheduleService(scheduleRepo)
	seatService := application.NewSeatService(seatRepo, scheduleRepo, availabilityCache)
	lockService := application.NewLockService(
		txManager, lockRepo, seatRepo, scheduleRepo,
		lockManager, availabilityCache, cfg.Lock.TTL,
	)
	bookingService := application.NewBookingService(
		txManager, lockRepo, seatRepo, paymentRepo, bookingRepo,
		gateways, availabilityCache, cfg.Payment.PollInterval,
	)

	// 期限切れロックと放置決済のスイーパー
	sweeper := worker.NewExpiredLockSweeper(
		lockService, bookingService,
		cfg.Lock.SweepInterval, cfg.Payment.PendingExpiry, 100,
	)
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	go sweeper.Start(sweeperCtx)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Validator = api.NewValidator()
	appmiddleware.SetupMiddleware(e)
	e.Use(appmiddleware.PrometheusMiddleware(m))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), appmiddleware.MetricsBasicAuth())

	// ハンドラー
	healthHandler := handler.NewHealthHandler()
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	seatHandler := handler.NewSeatHandler(seatService)
	lockHandler := handler.NewLockHandler(lockService)
	paymentHandler := handler.NewPaymentHandler(bookingService)
	bookingHandler := handler.NewBookingHandler(bookingService)

	// ルーティング
	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	v1.POST("/schedules", scheduleHandler.Create)
	v1.GET("/schedules", scheduleHandler.List)
	v1.GET("/schedules/:id", scheduleHandler.GetByID)
	v1.PUT("/schedules/:id", scheduleHandler.Update)
	v1.DELETE("/schedules/:id", scheduleHandler.Delete)

	v1.GET("/schedules/:schedule_id/seats", seatHandler.GetBySchedule)
	v1.POST("/schedules/:schedule_id/seats", seatHandler.Create)
	v1.POST("/schedules/:schedule_id/seats/bulk", seatHandler.CreateBulk)
	v1.GET("/schedules/:schedule_id/seats/count", seatHandler.CountAvailable)
	v1.GET("/seats/:id", seatHandler.GetByID)

	v1.POST("/locks", lockHandler.Acquire)
	v1.GET("/locks/:id", lockHandler.GetByID)
	v1.DELETE("/locks/:id", lockHandler.Release)
	v1.POST("/locks/:id/extend", lockHandler.Extend)

	v1.POST("/payments", paymentHandler.Initiate)
	v1.POST("/payments/confirm", paymentHandler.Confirm)
	v1.GET("/payments/:transaction_id/status", paymentHandler.Status)
	v1.GET("/payments/:transaction_id/wait", paymentHandler.WaitForResolution)

	v1.GET("/bookings", bookingHandler.GetByTransactionID)
	v1.GET("/bookings/:id", bookingHandler.GetByID)
	v1.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバーを起動します", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	sweeperCancel()
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
