// cmd/dashboard-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loan-dashboard/internal/common/auth"
	"loan-dashboard/internal/common/aws"
	"loan-dashboard/internal/common/camunda"
	"loan-dashboard/internal/common/config"
	"loan-dashboard/internal/common/database"
	"loan-dashboard/internal/common/loanservice"
	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/common/observability"
	"loan-dashboard/internal/dashboard"
	"loan-dashboard/internal/models"
	"loan-dashboard/internal/server"
	buildsummary "loan-dashboard/internal/workers/dashboard/build-summary"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting dashboard server...",
		zap.String("loanService", cfg.LoanService.BaseURL),
		zap.Int("port", cfg.Server.Port),
	)

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	sessions := auth.NewSessionStore(redis.Client, cfg.Session.KeyPrefix, log)
	gateway := loanservice.NewClient(cfg.LoanService.BaseURL, cfg.LoanService.TimeoutDuration(), log)

	notifiers := dashboard.MultiNotifier{dashboard.NewLogNotifier(log)}
	var snsNotifier *dashboard.SNSNotifier
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		snsNotifier = dashboard.NewSNSNotifier(snsClient, log)
		notifiers = append(notifiers, snsNotifier)
		zapLog.Info("SNS notifications enabled", zap.String("topicArn", cfg.Notifications.SNS.TopicARN))
	}

	registry := server.NewRegistry(func(principal *models.Principal) *dashboard.View {
		return dashboard.NewView(dashboard.ViewOptions{
			Principal: principal,
			Gateway:   gateway,
			Notifier:  notifiers,
			Logger:    log,
		})
	}, cfg.Server.ViewTTLDuration(), log)
	go registry.RunJanitor(ctx, time.Minute)

	ready := map[string]server.ReadinessCheck{
		"redis": redis.Ping,
	}

	// --- Camunda worker (optional) ---
	var summaryWorker *buildsummary.Handler
	if cfg.Camunda.Enabled {
		var camundaClient *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			camundaClient, err = camunda.NewClientWithConfig(camunda.ConfigFromApp(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer camundaClient.Close()
		ready["camunda"] = camundaClient.HealthCheck

		summaryWorker, err = buildsummary.NewHandler(buildsummary.HandlerOptions{
			AppConfig:     cfg,
			Camunda:       camundaClient,
			Gateway:       gateway,
			Logger:        log,
			Observability: obs,
		})
		if err != nil {
			zapLog.Fatal("summary worker setup failed", zap.Error(err))
		}
		if err := summaryWorker.Register(); err != nil {
			zapLog.Fatal("summary worker registration failed", zap.Error(err))
		}
	}

	srv := server.New(server.Options{
		Sessions: sessions,
		Registry: registry,
		Ready:    ready,
		Logger:   log,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("Dashboard server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if summaryWorker != nil {
		summaryWorker.Close()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if snsNotifier != nil {
		snsNotifier.Wait()
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}

	zapLog.Info("Dashboard server stopped gracefully")
}
