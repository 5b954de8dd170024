package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/taskconsole/internal/config"
	httpx "github.com/you/taskconsole/internal/http"
	"github.com/you/taskconsole/internal/http/handlers"
	"github.com/you/taskconsole/internal/http/middleware"
)

const shutdownTimeout = 10 * time.Second

// NewLogger returns the process JSON logger at level
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// NewRouter wires the console's handlers and middleware onto a gin engine
func NewRouter(c *Container) *gin.Engine {
	cfg := c.Config
	slots := middleware.NewSlotMW(c.SlotTokens, cfg.SlotCookie, cfg.SlotTTL, cfg.SecureCookie)
	sessions := middleware.NewAuthMW(c.Sessions)

	return httpx.BuildRouter(httpx.Deps{
		Auth:     handlers.NewAuthHandlers(c.FlowSvc, sessions, slots),
		Pages:    handlers.NewPageHandlers(),
		Users:    handlers.NewUserHandlers(c.Backend),
		Tasks:    handlers.NewTaskHandlers(c.Backend),
		Policies: handlers.NewPolicyHandlers(c.PolicySvc),
		Slots:    slots,
		Sessions: sessions,
		Guard:    middleware.NewGuardMW(sessions, cfg.Areas, c.Audit),
		Casbin:   middleware.NewCasbinMW(c.Casbin.E, c.Audit),
	})
}

// Run serves the web console until ctx is done
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	logger := NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(c),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "backend", cfg.BackendURL,
			"session_driver", cfg.SessionDriver, "flow_driver", cfg.FlowDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
