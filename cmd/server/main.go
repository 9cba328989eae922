package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	accountAdapter "github.com/lekhsewa/payment-service/internal/adapters/account"
	"github.com/lekhsewa/payment-service/internal/adapters/esewa"
	"github.com/lekhsewa/payment-service/internal/adapters/postgres"
	"github.com/lekhsewa/payment-service/internal/config"
	paymentHandler "github.com/lekhsewa/payment-service/internal/handlers/payment"
	paymentService "github.com/lekhsewa/payment-service/internal/services/payment"
	httppkg "github.com/lekhsewa/payment-service/pkg/http"
	"github.com/lekhsewa/payment-service/pkg/middleware"
	"github.com/lekhsewa/payment-service/pkg/observability"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting payment service",
		zap.String("version", "0.1.0"),
		zap.String("esewa_environment", cfg.Esewa.Environment),
	)

	ctx := context.Background()

	// Database connection pool
	dbPool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		ConnString: cfg.Database.ConnectionString(),
		MaxConns:   cfg.Database.MaxConns,
		MinConns:   cfg.Database.MinConns,
	})
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	// Resolve the eSewa signing secret via the configured backend
	secretKey, err := resolveEsewaSecret(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to resolve eSewa secret key", zap.Error(err))
	}

	// eSewa gateway adapter
	esewaCfg := esewa.DefaultConfig(cfg.Esewa.Environment)
	esewaCfg.MerchantCode = cfg.Esewa.MerchantCode
	esewaCfg.SecretKey = secretKey
	esewaCfg.SuccessURL = cfg.Esewa.SuccessURL
	esewaCfg.FailureURL = cfg.Esewa.FailureURL

	esewaClient := httppkg.NewHTTPClient(httppkg.EsewaClientConfig(), time.Duration(cfg.Esewa.Timeout)*time.Second)
	gateway, err := esewa.NewGatewayAdapter(esewaCfg, esewaClient, logger)
	if err != nil {
		logger.Fatal("Failed to initialize eSewa gateway", zap.Error(err))
	}

	// Account service client for plan upgrades
	accountClient := httppkg.NewHTTPClient(httppkg.AccountClientConfig(), time.Duration(cfg.Account.Timeout)*time.Second)
	account := accountAdapter.NewClient(cfg.Account.BaseURL, accountClient, logger)

	// Repository and service
	repo := postgres.NewPendingPaymentRepository(dbPool)
	svc := paymentService.NewService(gateway, repo, account, logger)

	// HTTP handlers
	handler := paymentHandler.NewHandler(svc, logger)

	// Rate limiter (10 requests per second per IP, burst of 20)
	rateLimiter := middleware.NewRateLimiter(10, 20)
	defer rateLimiter.Shutdown()

	mux := http.NewServeMux()
	mux.HandleFunc("/payment/initiate", handler.HandleInitiate)
	mux.HandleFunc("/payment/verify", handler.HandleVerify)
	mux.HandleFunc("/payment/checkout", handler.HandleCheckoutPage)

	chain := middleware.Recovery(logger)(
		observability.HTTPMetricsMiddleware(
			rateLimiter.Middleware(mux),
		),
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics and health server on a separate port
	healthChecker := observability.NewHealthChecker(dbPool)
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)

	go func() {
		logger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

// initLogger initializes the logger
func initLogger(cfg config.LoggerConfig) *zap.Logger {
	if cfg.Development {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	level := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(cfg.Level); err == nil {
		level = parsed
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, _ := zapCfg.Build()
	return logger
}
