package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"llamabridge/internal/config"
	"llamabridge/internal/container"
	"llamabridge/internal/services"
	"llamabridge/internal/store"
	"llamabridge/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	c, err := container.BuildContainer()
	if err != nil {
		logrus.Fatalf("Failed to build container: %v", err)
	}

	if err := c.Invoke(run); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(
	cfg *config.Manager,
	engine *gin.Engine,
	logService *services.RequestLogService,
	aliasWatcher *services.AliasWatcher,
	st store.Store,
	database *gorm.DB,
) error {
	utils.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if err := logService.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: engine,
		// No WriteTimeout: SSE responses stay open for the whole
		// generation. The channel bounds backend time instead.
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"backend": cfg.OllamaBaseURL,
		}).Info("llamabridge listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Forced shutdown before all requests finished")
	}

	if aliasWatcher != nil {
		aliasWatcher.Stop()
	}
	logService.Stop()
	if err := st.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close store")
	}
	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}

	logrus.Info("Shutdown complete")
	return nil
}
