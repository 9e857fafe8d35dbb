package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/geomap-sync/internal/cache/descriptor"
	"github.com/mohammed-shakir/geomap-sync/internal/cache/redisstore"
	"github.com/mohammed-shakir/geomap-sync/internal/core/config"
	"github.com/mohammed-shakir/geomap-sync/internal/core/health"
	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/router"
	"github.com/mohammed-shakir/geomap-sync/internal/core/server"
	"github.com/mohammed-shakir/geomap-sync/internal/logger"
	h3mapper "github.com/mohammed-shakir/geomap-sync/internal/mapper/h3"
	"github.com/mohammed-shakir/geomap-sync/internal/metrics"
	"github.com/mohammed-shakir/geomap-sync/internal/viewevents"
	"github.com/mohammed-shakir/geomap-sync/internal/viewheat"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()
	addr := flag.String("addr", cfg.Addr, "listen address")
	level := flag.String("log-level", cfg.LogLevel, "log level")
	session := flag.String("session", "default", "session id reported in view events")
	flag.Parse()
	cfg.Addr = strings.TrimSpace(*addr)
	cfg.LogLevel = *level

	build := metrics.CurrentBuild()
	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "geomap-sync",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting geomap server",
		"addr", cfg.Addr,
		"version", build.Version,
		"revision", build.Revision,
		"center", cfg.Center.String(),
		"zoom", cfg.Zoom,
		"h3_res", cfg.H3Res)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts server.Options
	if cfg.MetricsEnabled {
		p, err := metrics.Init(metrics.Config{Enabled: true, Build: build})
		if err != nil {
			appLog.Error("metrics init failed", "err", err)
			return 1
		}
		opts.Metrics = p.Handler()
	}

	// redis is optional; without it descriptors live in the local LRU only
	var remote descriptor.Remote
	if cfg.RedisAddr != "" {
		rc, err := redisstore.New(ctx, cfg.RedisAddr,
			redisstore.WithPoolSize(cfg.RedisPoolSize),
			redisstore.WithMinIdleConns(cfg.RedisMinIdle),
			redisstore.WithDialTimeout(cfg.RedisDialTimeout),
			redisstore.WithReadTimeout(cfg.RedisOpTimeout),
			redisstore.WithWriteTimeout(cfg.RedisOpTimeout),
		)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		remote = rc
		opts.Ready = append(opts.Ready, health.Check{Name: "redis", Probe: rc.Ping})
	}
	store := descriptor.New(descriptor.Config{
		Size:      cfg.DescriptorLRUSize,
		TTL:       cfg.DescriptorTTL,
		OpTimeout: cfg.RedisOpTimeout,
	}, remote, appLog)

	deps := router.Deps{
		Logger:        appLog,
		Descriptors:   store,
		Cells:         h3mapper.New(cfg.H3Res),
		Heat:          viewheat.New(cfg.HeatHalfLife),
		LayerDefaults: []layer.DecodeOption{cfg.HostedData.Apply},
	}
	if cfg.ViewEvents.Enabled {
		pub, err := viewevents.NewPublisher(cfg.ViewEvents.Brokers, cfg.ViewEvents.Topic, cfg.ViewEvents.QueueSize, appLog)
		if err != nil {
			appLog.Error("view events publisher failed", "brokers", cfg.ViewEvents.Brokers, "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("view events close", "err", err)
			}
		}()
		deps.Events = pub
	}

	sess, err := router.NewSession(*session, cfg.Center, cfg.Zoom, deps)
	if err != nil {
		appLog.Error("session setup failed", "err", err)
		return 1
	}
	defer sess.Close()

	if err := server.Run(ctx, cfg, appLog, server.NewHandler(appLog, sess, opts)); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
