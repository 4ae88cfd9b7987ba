package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/danribes/go-event-booking/internal/api"
	"github.com/danribes/go-event-booking/internal/api/handler"
	apimiddleware "github.com/danribes/go-event-booking/internal/api/middleware"
	"github.com/danribes/go-event-booking/internal/application"
	"github.com/danribes/go-event-booking/internal/config"
	"github.com/danribes/go-event-booking/internal/infrastructure/postgres"
	redisinfra "github.com/danribes/go-event-booking/internal/infrastructure/redis"
	"github.com/danribes/go-event-booking/internal/notification"
	"github.com/danribes/go-event-booking/internal/pkg/logger"
	"github.com/danribes/go-event-booking/internal/pkg/metrics"
	"github.com/danribes/go-event-booking/internal/worker"
)

func main() {
	// .env があれば読み込む（ローカル開発用、なければ無視）
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.NewLogger(os.Getenv("APP_ENV"))
	logger.Set(log)
	defer logger.Sync()

	m := metrics.Init()

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション
	if cfg.Database.MigrationsPath != "" {
		if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
			logger.Fatal("マイグレーションに失敗", zap.Error(err))
		}
	}

	// Redis接続（残席キャッシュ用、接続できない場合はキャッシュなしで継続）
	var capacityCache *redisinfra.CapacityCache
	redisClient := redisinfra.NewClient(&cfg.Redis)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisinfra.Ping(ctx, redisClient); err != nil {
			logger.Warn("Redisに接続できないためキャッシュを無効化", zap.Error(err))
			redisClient.Close()
		} else {
			capacityCache = redisinfra.NewCapacityCache(redisClient)
			defer redisClient.Close()
		}
		cancel()
	}

	// 通知発行（ブローカー未設定時はログ出力のみ）
	var publisher notification.Publisher
	if cfg.AMQP.URL != "" {
		p, err := notification.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Fatal("通知ブローカー接続に失敗", zap.Error(err))
		}
		publisher = p
	} else {
		logger.Info("AMQP_URL未設定のため通知はログ出力のみ")
		publisher = notification.NewLogPublisher()
	}
	defer publisher.Close()

	dispatcher := notification.NewDispatcher(publisher, m, 256)
	go dispatcher.Start(context.Background())

	// リポジトリとサービス
	eventRepo := postgres.NewEventRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	txManager := postgres.NewTxManager(db)

	eventService := application.NewEventService(eventRepo, bookingRepo)
	bookingService := application.NewBookingService(
		txManager, bookingRepo, eventRepo,
		capacityCache, cfg.Booking.CapacityCacheTTL,
		dispatcher, m, cfg.Booking.MaxAttendees,
	)

	// リマインダーワーカー
	reminder := worker.NewEventReminder(bookingService, cfg.Reminder.Interval, cfg.Reminder.LeadTime)
	go reminder.Start(context.Background())

	// ハンドラー
	eventHandler := handler.NewEventHandler(eventService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	healthHandler := handler.NewHealthHandler()

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	apimiddleware.SetupMiddleware(e)
	e.Use(apimiddleware.PrometheusMiddleware(m))

	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), apimiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.POST("/events", eventHandler.Create)
	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.GetByID)
	v1.PUT("/events/:id", eventHandler.Update)
	v1.DELETE("/events/:id", eventHandler.Delete)
	v1.POST("/events/:id/publish", eventHandler.Publish)
	v1.GET("/events/:id/capacity", bookingHandler.CheckCapacity)

	v1.POST("/bookings", bookingHandler.Create)
	v1.GET("/bookings", bookingHandler.GetUserBookings)
	v1.GET("/bookings/:id", bookingHandler.GetByID)
	v1.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	v1.POST("/bookings/:id/confirm", bookingHandler.Confirm)
	v1.POST("/bookings/:id/attend", bookingHandler.Attend)

	// サーバー起動
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// ワーカーとディスパッチャーを先に停止（バッファ内の通知を送り切る）
	reminder.Stop()
	dispatcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
