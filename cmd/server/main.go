package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/val-draft-backend/internal/broadcast"
	"github.com/DoyleJ11/val-draft-backend/internal/config"
	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/httpapi"
	"github.com/DoyleJ11/val-draft-backend/internal/hub"
	"github.com/DoyleJ11/val-draft-backend/internal/lobby"
	"github.com/DoyleJ11/val-draft-backend/internal/logging"
	"github.com/DoyleJ11/val-draft-backend/internal/seats"
	"github.com/DoyleJ11/val-draft-backend/internal/timer"
)

func main() {
	_ = godotenv.Load()

	configPath := pflag.StringP("config", "c", os.Getenv("VALDRAFT_CONFIG"), "path to a YAML config file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	loader, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg := loader.Get()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := timer.New(cfg.Timer.Seconds(), cfg.Timer.Tick, logger.Named("timer"))
	lb := lobby.NewLobby(ctx, engine.NewState(cfg.Tournament.Engine()), clock, logger.Named("lobby"))
	clock.Subscribe(lb.NotifyTimer)
	h := hub.NewHub(ctx, lb, clock, logger.Named("hub"), cfg.Hub.OutboxSize)

	loader.Watch(func(c config.Config) {
		clock.SetDefaultSeconds(c.Timer.Seconds())
		logger.Info("config reloaded", zap.Int("timer_seconds", c.Timer.Seconds()))
	}, func(err error) {
		logger.Warn("config reload failed", zap.Error(err))
	})

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Lobby:  lb,
			Hub:    h,
			Seats:  seats.NewManager(),
			Logger: logger,
		}),
	}

	g, gctx := errgroup.WithContext(ctx)

	var sink *broadcast.Redis
	if rc := cfg.Broadcast.Redis; rc.Enabled() {
		sink, err = broadcast.NewRedis(rc.Addr, rc.Password, rc.DB, rc.Channel, logger.Named("redis"))
		if err != nil {
			return err
		}
		g.Go(func() error { return sink.Run(gctx, h) })
	}

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		case <-lb.Done():
		}
		return err
	})

	err = g.Wait()
	if sink != nil {
		err = multierr.Append(err, sink.Close())
	}
	return err
}
