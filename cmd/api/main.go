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

	_ "stockdesk/api/swagger" // swagger docs
	"stockdesk/internal/config"
	"stockdesk/internal/database"
	"stockdesk/internal/handler"
	"stockdesk/internal/logger"
	"stockdesk/internal/messaging"
	"stockdesk/internal/middleware"
	"stockdesk/internal/repository"
	"stockdesk/internal/service"
	"stockdesk/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Stockdesk API
// @version         1.0
// @description     Inventory reservation, approval and fulfillment service.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, !cfg.IsRelease())
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.NewConnection(cfg.DSN(), zlog, cfg.SlowQueryTime)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	zlog.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zlog.Named("ws"))
	go wsHub.Run(ctx)

	sinks := []service.NotificationSink{wsHub}
	if cfg.AMQPEnabled {
		mq, err := messaging.Dial(messaging.Config{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RetryCount: 5,
			RetryDelay: 2 * time.Second,
		}, zlog.Named("amqp"))
		if err != nil {
			zlog.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		defer func() { _ = mq.Close() }()
		sinks = append(sinks, messaging.NewNotificationPublisher(mq, cfg.AMQPExchange))
	}
	dispatcher := service.NewDispatcher(zlog.Named("notify"), sinks...)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db, cfg.TxTimeout)
	itemRepo := repository.NewItemRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reconciliationRepo := repository.NewReconciliationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reportRepo := repository.NewReportRepository(db)

	ledgerService := service.NewLedgerService(itemRepo, historyRepo, assignmentRepo, auditRepo, txManager)
	requestService := service.NewRequestService(itemRepo, requestRepo, historyRepo, assignmentRepo, notificationRepo, auditRepo, txManager, dispatcher, zlog.Named("requests"))
	maintenanceService := service.NewMaintenanceService(itemRepo, historyRepo, auditRepo, txManager, zlog.Named("maintenance"))
	countService := service.NewStockCountService(itemRepo, reconciliationRepo, auditRepo, txManager)
	notificationService := service.NewNotificationService(notificationRepo)
	auditService := service.NewAuditService(auditRepo)
	reportService := service.NewReportService(reportRepo)

	// Set up Gin Router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(zlog.Named("http")))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": config.ServiceName, "version": config.ServiceVersion})
	})

	secret := []byte(cfg.JWTSecret)
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	api := router.Group("/api", middleware.RequireAuth(secret))
	handler.RegisterAll(api,
		handler.NewItemHandler(ledgerService, countService),
		handler.NewRequestHandler(requestService),
		handler.NewMaintenanceHandler(maintenanceService),
		handler.NewNotificationHandler(notificationService),
		handler.NewAuditHandler(auditService),
		handler.NewReportHandler(reportService),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
