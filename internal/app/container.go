package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/config"
	"github.com/you/taskconsole/internal/infrastructure/auth"
	"github.com/you/taskconsole/internal/infrastructure/backend"
	"github.com/you/taskconsole/internal/infrastructure/database"
	"github.com/you/taskconsole/internal/infrastructure/repositories"
	"github.com/you/taskconsole/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Backend     *backend.Client
	Casbin      *auth.CasbinService

	// Repositories
	Sessions domain.SessionProvider
	Flows    domain.FlowRepository

	// Services
	SlotTokens domain.SlotTokenService
	Audit      domain.AuditLogger
	PolicySvc  domain.PolicyService
	FlowSvc    domain.AuthFlowService
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initDatabase(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRepositories(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initServices(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) needsRedis() bool {
	return c.Config.SessionDriver == "redis" || c.Config.FlowDriver == "redis"
}

// initDatabase opens postgres when sessions live there or a DSN is configured for casbin policies
func (c *Container) initDatabase() error {
	if c.Config.SessionDriver != "postgres" && c.Config.DSN == "" {
		return nil
	}
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	c.DB = db
	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	if !c.needsRedis() {
		return nil
	}
	rc := database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	c.RedisClient = rc.Client
	if err := rc.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach redis at %s: %w", c.Config.RedisAddr, err)
	}
	return nil
}

func (c *Container) initRepositories() error {
	switch c.Config.SessionDriver {
	case "postgres":
		c.Sessions = repositories.NewSQLSessionProvider(c.DB)
	case "redis":
		c.Sessions = repositories.NewRedisSessionProvider(c.RedisClient, c.Config.SessionTTL)
	default:
		return fmt.Errorf("unknown session driver %q", c.Config.SessionDriver)
	}

	switch c.Config.FlowDriver {
	case "redis":
		c.Flows = repositories.NewRedisFlowRepository(c.RedisClient, c.Config.FlowTTL)
	case "memory":
		c.Flows = repositories.NewMemoryFlowRepository(c.Config.FlowTTL)
	default:
		return fmt.Errorf("unknown flow driver %q", c.Config.FlowDriver)
	}
	return nil
}

func (c *Container) initServices() error {
	client, err := backend.NewClient(c.Config.BackendURL, c.Config.BackendTimeout)
	if err != nil {
		return err
	}
	c.Backend = client

	cas, err := auth.NewCasbinService(c.DB, c.Config.CasbinModelPath)
	if err != nil {
		return fmt.Errorf("failed to initialize casbin: %w", err)
	}
	c.Casbin = cas

	c.SlotTokens = auth.NewSlotTokenService(c.Config.SlotSecret, c.Config.SlotIssuer, c.Config.SlotTTL)
	c.Audit = services.NewSlogAuditLogger(c.Logger)
	c.PolicySvc = services.NewPolicyService(cas.E)
	c.FlowSvc = services.NewAuthFlowService(client, c.Flows, c.Audit, services.FlowConfig{
		OTPLength:      c.Config.OTPLength,
		ResendCooldown: c.Config.OTPResendCooldown,
	})
	return nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}
