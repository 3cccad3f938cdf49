package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/flashnote/internal/config"
	"github.com/1broseidon/flashnote/internal/ipc"
	"github.com/1broseidon/flashnote/internal/overlay"
	"github.com/1broseidon/flashnote/internal/raster"
	"github.com/1broseidon/flashnote/internal/runtimepath"
	"github.com/1broseidon/flashnote/internal/x11"
)

// shutdownGrace is added to the longest possible notification when waiting
// for in-flight requests on shutdown.
const shutdownGrace = 5 * time.Second

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/flashnote/config.yaml)")
	listen := fs.String("listen", "", "Override the listen address (host:port)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: flashnote serve [--path PATH] [--listen ADDR]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Connect to the X display and serve GET /notify?message=... until interrupted.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "serve takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config
	if *listen != "" {
		cfg.Listen = *listen
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid --listen: %v", err)
		}
	}

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	env, err := x11.ResolveEnv(os.Environ(), cfg.Display, cfg.XAuthority)
	if err != nil {
		log.Fatalf("Failed to resolve X display: %v", err)
	}
	if err := env.Apply(); err != nil {
		log.Fatalf("Failed to apply X environment: %v", err)
	}

	conn, err := x11.NewConnection(env.Display, logger)
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer conn.Close()

	rasterizer, err := raster.New(raster.DefaultSize)
	if err != nil {
		log.Fatalf("Failed to load fonts: %v", err)
	}
	defer rasterizer.Close()

	notifier := overlay.NewNotifier(conn, rasterizer, cfg.Timing(), logger)

	server := ipc.NewServer(cfg.Listen, notifier, logger)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start HTTP server: %v", err)
	}

	pid := os.Getpid()
	if err := runtimepath.WriteState(runtimepath.State{
		PID:     pid,
		Listen:  server.Addr(),
		Display: env.Display,
		Started: time.Now(),
	}); err != nil {
		logger.Warn("failed to write state file", "error", err)
	}
	defer func() {
		if err := runtimepath.RemoveState(pid); err != nil {
			logger.Warn("failed to remove state file", "error", err)
		}
	}()

	applyConfig := func(newCfg *config.Config) {
		notifier.SetTiming(newCfg.Timing())
		level.Set(newCfg.SlogLevel())
		if newCfg.Listen != cfg.Listen || newCfg.Display != cfg.Display || newCfg.XAuthority != cfg.XAuthority {
			logger.Warn("listen, display and xauthority changes take effect after a restart")
		}
		logger.Info("configuration applied",
			"min_visible", notifier.Timing().MinVisible,
			"max_visible", notifier.Timing().MaxVisible,
			"log_level", newCfg.LogLevel,
		)
	}

	if res.Path != "" {
		watcher, err := config.NewWatcher(res.Path, func(r *config.LoadResult) { applyConfig(r.Config) }, logger)
		if err != nil {
			logger.Warn("config watcher unavailable", "error", err)
		} else if err := watcher.Start(); err != nil {
			logger.Warn("config watcher unavailable", "path", res.Path, "error", err)
			watcher.Stop()
		} else {
			defer watcher.Stop()
		}
	}

	logger.Info("flashnote daemon started", "listen", server.Addr(), "display", env.Display)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			logger.Info("received SIGHUP, reloading config")
			newRes, err := loadConfig(*path)
			if err != nil {
				logger.Warn("config reload failed", "error", err)
				continue
			}
			applyConfig(newRes.Config)
			continue
		}
		break
	}

	logger.Info("shutting down", "busy", notifier.Busy())
	ctx, cancel := context.WithTimeout(context.Background(), notifier.Timing().MaxVisible+shutdownGrace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	return 0
}
