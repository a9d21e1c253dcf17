package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/analytics"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/config"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/curve"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/events"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger/postgres"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/liveness"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/logger"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/trading"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "zeroglazed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	if cfg.LogFile != "" {
		logCfg.LogFile = cfg.LogFile
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting zeroglazed")

	pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate ledger: %w", err)
	}

	bus := events.NewBus(log.WithComponent("bus"), cfg.EventBufferSize)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := bus.Shutdown(shutdownCtx); err != nil {
			log.Warn("Event bus shutdown incomplete", zap.Error(err))
		}
	}()

	svc := trading.NewService(store, curve.DefaultConfig(), bus, log.WithComponent("trading"))

	if cfg.ClickHouseURL != "" {
		conn, err := analytics.NewConn(ctx, cfg.ClickHouseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to clickhouse: %w", err)
		}
		defer conn.Close()

		recorder := analytics.NewRecorder(conn, log.Logger)
		if err := recorder.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate analytics: %w", err)
		}
		sub := recorder.Attach(bus)
		defer sub.Unsubscribe()
	}

	tokens := liveness.NewTokenSource(cfg.TwitchClientID, cfg.TwitchClientSecret)
	twitch := liveness.NewClient(tokens, cfg.TwitchClientID, log.Logger)
	watcher := liveness.NewWatcher(store, twitch, bus,
		time.Duration(cfg.PollIntervalSec)*time.Second, log.Logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Run(gctx)
	})

	if cfg.EventSubEnabled {
		esub := liveness.NewEventSubConn(
			func(ctx context.Context, sessionID string) error {
				return registerStreamSubscriptions(ctx, store, twitch, sessionID)
			},
			func(ctx context.Context, login string, isLive bool) {
				if err := watcher.ApplyPush(ctx, login, isLive); err != nil {
					log.Error("Failed to apply pushed stream status",
						zap.String("login", login), zap.Error(err))
				}
			},
			log.Logger)
		g.Go(func() error {
			return esub.Run(gctx)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(time.Duration(cfg.SweepIntervalSec) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := svc.SweepGraduations(gctx); err != nil {
					log.Error("Graduation sweep failed", zap.Error(err))
				}
			}
		}
	})

	log.Info("zeroglazed running",
		zap.Int("poll_interval_sec", cfg.PollIntervalSec),
		zap.Int("sweep_interval_sec", cfg.SweepIntervalSec))

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("Shutting down")
	return nil
}

// registerStreamSubscriptions binds stream.online/offline subscriptions
// for every active token's channel to a fresh EventSub session.
func registerStreamSubscriptions(ctx context.Context, store ledger.Store, twitch *liveness.Client, sessionID string) error {
	tokens, err := store.ListActive(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for _, tc := range tokens {
		if tc.TwitchLogin == "" {
			continue
		}
		if _, ok := seen[tc.TwitchLogin]; ok {
			continue
		}
		seen[tc.TwitchLogin] = struct{}{}

		userID, err := twitch.VerifyUsername(ctx, tc.TwitchLogin)
		if err != nil {
			return err
		}
		if err := twitch.SubscribeStreamStatus(ctx, sessionID, userID); err != nil {
			return err
		}
	}
	return nil
}
