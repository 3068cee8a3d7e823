// Storefront 主程序
// 功能：数字健身商品门店核心，包括商品目录、购物车、结算与订单台账
// 架构：DDD 单体 + MySQL + Redis + Kafka（事务性 outbox）
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/wyfcoding/trainly/internal/cart/application"
	cartdomain "github.com/wyfcoding/trainly/internal/cart/domain"
	cartmsg "github.com/wyfcoding/trainly/internal/cart/infrastructure/messaging"
	cartmysql "github.com/wyfcoding/trainly/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/trainly/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/trainly/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/trainly/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/trainly/internal/catalog/infrastructure/persistence/mysql"
	catalogredis "github.com/wyfcoding/trainly/internal/catalog/infrastructure/persistence/redis"
	cataloghttp "github.com/wyfcoding/trainly/internal/catalog/interfaces/http"
	checkoutapp "github.com/wyfcoding/trainly/internal/checkout/application"
	"github.com/wyfcoding/trainly/internal/checkout/infrastructure/payment"
	checkouthttp "github.com/wyfcoding/trainly/internal/checkout/interfaces/http"
	"github.com/wyfcoding/trainly/internal/notification"
	orderapp "github.com/wyfcoding/trainly/internal/order/application"
	orderdomain "github.com/wyfcoding/trainly/internal/order/domain"
	ordermsg "github.com/wyfcoding/trainly/internal/order/infrastructure/messaging"
	ordermysql "github.com/wyfcoding/trainly/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/trainly/internal/order/interfaces/http"
	"github.com/wyfcoding/trainly/pkg/cache"
	"github.com/wyfcoding/trainly/pkg/config"
	"github.com/wyfcoding/trainly/pkg/db"
	"github.com/wyfcoding/trainly/pkg/idgen"
	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/metrics"
	"github.com/wyfcoding/trainly/pkg/middleware"
	"github.com/wyfcoding/trainly/pkg/mq"
	"github.com/wyfcoding/trainly/pkg/ratelimit"
)

func main() {
	// 1. 加载配置
	configPath := "configs/storefront/config.toml"
	if p := os.Getenv("APP_CONFIG"); p != "" {
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting Storefront",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化 ID 生成器
	if err := idgen.Init(1); err != nil {
		logger.Fatal(ctx, "Failed to initialize id generator", "error", err)
	}

	// 4. 初始化数据库
	dbCfg := db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	}
	database, err := db.Init(dbCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&catalogdomain.Product{},
		&cartdomain.CartLine{},
		&orderdomain.Order{},
		&orderdomain.OrderLine{},
		&orderdomain.Payment{},
		&ordermsg.OutboxMessage{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database schema", "error", err)
	}

	// 5. 初始化 Redis
	redisCfg := cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
	redisCache, err := cache.New(redisCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()

	// 6. 初始化 Kafka 生产者
	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
	producer, err := mq.NewProducer(kafkaCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka producer", "error", err)
	}
	defer producer.Close()

	// 7. 初始化限流器
	rateLimiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())

	// 8. 初始化指标
	metricsInstance := metrics.New("storefront")
	if err := metricsInstance.Register(); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics HTTP server", "error", err)
		}
	}

	// 9. 初始化仓储
	productRepo := catalogredis.NewCachedProductRepository(
		catalogmysql.NewProductRepository(database.DB), redisCache)
	cartRepo := cartmysql.NewCartRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	outboxPublisher := ordermsg.NewOutboxEventPublisher(database.DB)

	// 10. 初始化应用服务
	productSvc := catalogapp.NewProductService(productRepo)
	cartSvc := cartapp.NewCartService(cartRepo, productSvc,
		cartmsg.NewKafkaEventPublisher(producer), metricsInstance)
	orderSvc := orderapp.NewOrderService(orderRepo, outboxPublisher)

	gateway := payment.NewResilientGateway(payment.NewSimulatedGateway(), payment.Config{
		ChargeTimeout: time.Duration(cfg.Payment.ChargeTimeout) * time.Second,
		MaxRetries:    cfg.Payment.MaxRetries,
		RetryBackoff:  time.Duration(cfg.Payment.RetryBackoff) * time.Millisecond,
	})
	checkoutSvc := checkoutapp.NewCheckoutService(
		cartRepo, productSvc, orderRepo, outboxPublisher, gateway, metricsInstance)

	// 11. 启动 outbox 中继与通知监听
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	relay := ordermsg.NewOutboxRelay(outboxPublisher, producer, metricsInstance,
		time.Duration(cfg.Kafka.OutboxPollInterval)*time.Millisecond)
	go relay.Run(workerCtx)

	orderConsumer, err := mq.NewConsumer(kafkaCfg, "order-events")
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka consumer", "error", err)
	}
	defer orderConsumer.Close()
	go notification.NewListener(orderConsumer).Run(workerCtx)

	// 12. 创建并启动 HTTP 服务器
	httpServer := createHTTPServer(cfg, metricsInstance, rateLimiter,
		productSvc, cartSvc, checkoutSvc, orderSvc)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		logger.Info(ctx, "Starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()

	// 13. 优雅关停
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "Shutting down Storefront")

	stopWorkers()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown error", "error", err)
	}

	logger.Info(ctx, "Storefront stopped")
}

// createHTTPServer 创建 HTTP 服务器
func createHTTPServer(
	cfg *config.Config,
	m *metrics.Metrics,
	rateLimiter ratelimit.RateLimiter,
	productSvc *catalogapp.ProductService,
	cartSvc *cartapp.CartService,
	checkoutSvc *checkoutapp.CheckoutService,
	orderSvc *orderapp.OrderService,
) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 添加中间件
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinMetricsMiddleware(m))
	router.Use(middleware.RateLimitMiddleware(rateLimiter, cfg.RateLimit))

	productHandler := cataloghttp.NewProductHandler(productSvc)
	cartHandler := carthttp.NewCartHandler(cartSvc)
	checkoutHandler := checkouthttp.NewCheckoutHandler(checkoutSvc)
	orderHandler := orderhttp.NewOrderHandler(orderSvc)

	// 公开路由
	public := router.Group("/api/v1")
	productHandler.RegisterRoutes(public)

	// 登录态路由
	authed := router.Group("/api/v1")
	authed.Use(middleware.AuthRequired(cfg.Auth.JWTSecret))
	cartHandler.RegisterRoutes(authed)
	checkoutHandler.RegisterRoutes(authed)
	orderHandler.RegisterRoutes(authed)

	// 管理端路由
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.AuthRequired(cfg.Auth.JWTSecret), middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}
