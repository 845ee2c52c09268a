package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	fcmodule "github.com/stake-plus/trustek/src/actions/factcheck"
	"github.com/stake-plus/trustek/src/ai/core"
	"github.com/stake-plus/trustek/src/api/webserver"
	"github.com/stake-plus/trustek/src/auth"
	"github.com/stake-plus/trustek/src/config"
	"github.com/stake-plus/trustek/src/data"
	"github.com/stake-plus/trustek/src/factcheck"
	"gorm.io/gorm"
)

// Runtime holds the shared dependencies every module is built from.
type Runtime struct {
	Config  *config.Config
	Service *factcheck.Service
	DB      *gorm.DB
	Redis   *redis.Client
	Logger  *slog.Logger
}

// Bootstrap connects the optional stores, overlays database settings on cfg
// and builds the fact-check service.
func Bootstrap(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: log}

	if cfg.MySQLDSN != "" {
		db, err := data.ConnectMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("actions: mysql: %w", err)
		}
		rt.DB = db
		if err := data.MigrateSettings(db); err != nil {
			log.Warn("actions: settings migration failed", "err", err)
		}
		if err := data.LoadSettings(db); err != nil {
			log.Warn("actions: settings load failed, using env fallbacks", "err", err)
		} else {
			cfg.ApplySettings()
		}
	}

	if cfg.RedisURL != "" {
		rdb, err := data.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("actions: %w", err)
		}
		rt.Redis = rdb
	}

	analyzer, err := core.NewAnalyzer(cfg.FactoryConfig())
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("actions: analyzer: %w", err)
	}

	var slots factcheck.Slots
	if rt.Redis != nil {
		slots = factcheck.NewRedisSlots(rt.Redis, cfg.SlotTTL())
	}
	rt.Service = factcheck.NewService(analyzer, factcheck.Config{
		Slots:  slots,
		Logger: log,
	})
	log.Info("actions: runtime ready", "provider", cfg.AI.Provider,
		"mysql", rt.DB != nil, "redis", rt.Redis != nil, "retry_policy", cfg.Retry.Policy)
	return rt, nil
}

// Close releases store connections.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// StartAll wires up enabled modules and starts the manager.
func StartAll(ctx context.Context, rt *Runtime) (*Manager, error) {
	cfg := rt.Config
	mgr := NewManager()

	var sessions auth.Sessions
	if rt.Redis != nil {
		sessions = auth.NewRedisSessions(rt.Redis)
	}
	router := webserver.New(webserver.Deps{
		Service:     rt.Service,
		States:      auth.NewJWTStateProvider([]byte(cfg.Server.JWTSecret), sessions),
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
		RateWindow:  cfg.Server.RateWindow.Std(),
		Logger:      rt.Logger,
	})
	if err := mgr.Add(webserver.NewModule(fmt.Sprintf(":%d", cfg.Server.Port), router, rt.Logger)); err != nil {
		return nil, fmt.Errorf("actions: add http module: %w", err)
	}

	if cfg.Discord.Token != "" {
		mod, err := fcmodule.NewModule(fcmodule.Config{
			Token:   cfg.Discord.Token,
			GuildID: cfg.Discord.GuildID,
			RoleID:  cfg.Discord.RoleID,
		}, rt.Service, rt.Logger)
		if err != nil {
			return nil, fmt.Errorf("actions: init discord module: %w", err)
		}
		if err := mgr.Add(mod); err != nil {
			return nil, fmt.Errorf("actions: add discord module: %w", err)
		}
	} else {
		rt.Logger.Info("actions: discord module disabled, no token configured")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}
