package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"campus-events/internal/alert"
	"campus-events/internal/approval"
	"campus-events/internal/cache"
	"campus-events/internal/config"
	"campus-events/internal/connectivity"
	"campus-events/internal/handler"
	"campus-events/internal/health"
	"campus-events/internal/host"
	"campus-events/internal/kv"
	applog "campus-events/internal/log"
	"campus-events/internal/middleware"
	"campus-events/internal/refresher"
	"campus-events/internal/reminder"
	"campus-events/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	log := slog.New(applog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: applog.ParseLevel(cfg.LogLevel),
	})))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	st := store.New(pool)

	monitor := connectivity.NewMonitor(false, log)
	migrator := store.NewMigrator(pool, "db/migrations/001_init.sql", log.With("component", "migrate"))
	if connectivity.Check(ctx, monitor, st, 5*time.Second) {
		log.Info("connected to postgres")
		if err := migrator.Apply(ctx); err != nil {
			log.Warn("migration failed", "err", err)
		}
	} else {
		log.Warn("postgres unreachable, starting offline")
	}
	// registered before the refresher so a reconnect migrates first
	unmigrate := migrator.ApplyWhenOnline(ctx, monitor)
	defer unmigrate()

	area, closeArea, err := openArea(cfg)
	if err != nil {
		return err
	}
	defer closeArea()

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}
	signals := host.Runtime{Connectivity: monitor, Notifier: notifier}

	events := cache.New(st, area, signals, log.With("component", "cache"))
	reminders := reminder.New(area, signals, notifier, reminder.SystemClock{}, log.With("component", "reminder"))
	workflow := approval.New(st, monitor, log.With("component", "approval"))
	job := refresher.New(events, reminders, log.With("component", "refresher"))

	if perm, err := notifier.RequestPermission(ctx); err != nil {
		log.Warn("alert permission request failed", "err", err)
	} else {
		log.Info("alert permission", "permission", perm)
	}
	if _, err := reminders.RestoreAll(); err != nil {
		log.Error("failed to restore reminders", "err", err)
	}
	if _, err := job.Sync(ctx); err != nil {
		log.Warn("initial refresh failed", "err", err)
	}
	unwatch := job.WatchConnectivity(ctx, monitor)
	defer unwatch()

	// grpc health
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rl.Stop()
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.UnaryRateLimit(rl)))
	reporter := health.Register(srv, monitor)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}

	h := handler.New(handler.Deps{
		Directory: job,
		Cache:     events,
		Events:    st,
		Workflow:  workflow,
		Reminders: reminders,
		Notifier:  notifier,
		Log:       log.With("component", "http"),
	})
	httpSrv := &http.Server{
		Addr: ":" + cfg.WebPort,
		Handler: middleware.RequestLogger(log)(
			middleware.CORS(middleware.RateLimit(rl)(h.Routes(cfg.JWTSecret))),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("grpc listening", "port", cfg.GRPCPort)
		return srv.Serve(lis)
	})
	g.Go(func() error {
		log.Info("http listening", "port", cfg.WebPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		connectivity.Probe(ctx, monitor, st, cfg.ProbeInterval, 5*time.Second)
		return nil
	})
	g.Go(func() error {
		return job.Run(ctx, cfg.RefreshCron)
	})

	// graceful shutdown
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		reporter.Shutdown()
		srv.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openArea(cfg *config.Config) (kv.Store, func(), error) {
	if cfg.KV.Backend == "redis" {
		r, err := kv.NewRedis(cfg.KV.RedisAddr, cfg.KV.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}
	f, err := kv.NewFile(cfg.KV.Path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {}, nil
}

func newNotifier(cfg *config.Config, log *slog.Logger) (alert.Notifier, error) {
	if cfg.Telegram.Token == "" {
		return alert.NewLog(log.With("component", "alert"), cfg.AlertsEnabled), nil
	}
	return alert.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log.With("component", "alert"))
}
