// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/streamkit/playctl/internal/api"
	"github.com/streamkit/playctl/internal/buffer"
	"github.com/streamkit/playctl/internal/cache"
	"github.com/streamkit/playctl/internal/cleanup"
	"github.com/streamkit/playctl/internal/config"
	ctllog "github.com/streamkit/playctl/internal/log"
	"github.com/streamkit/playctl/internal/memory"
	"github.com/streamkit/playctl/internal/perf"
	"github.com/streamkit/playctl/internal/platform"
	"github.com/streamkit/playctl/internal/playback"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	simulate := flag.Bool("simulate", false, "drive a synthetic media pipeline for demos")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded.
	ctllog.Configure(ctllog.Config{
		Level:   "info",
		Service: "playctl",
		Version: version,
	})
	logger := ctllog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(ctllog.FieldEvent, "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}

	// Re-configure logger with the loaded configuration.
	ctllog.Configure(ctllog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: version,
	})

	holder := config.NewHolder(cfg, loader, *configPath)

	// Memory reader: real sysinfo unless the simulator scripts pressure.
	var reader memory.ReaderFunc
	var adjustable *platform.AdjustableReader
	if *simulate {
		adjustable = platform.NewAdjustableReader(memory.Sample{
			AvailableBytes: 2 << 30,
			TotalBytes:     8 << 30,
			UsedBytes:      6 << 30,
		})
		reader = adjustable.Read
	} else {
		reader = platform.SystemReader()
	}

	monitor := memory.NewMonitor(reader, cfg.Memory, memory.WithPollInterval(cfg.MemoryPollInterval))
	bufferMgr := buffer.NewManager()
	perfSvc := perf.NewService(cfg.Perf)
	machine := playback.NewMachine()
	coordinator := cleanup.NewCoordinator(monitor)

	// Stock cleaners. High priority is expected to free the most.
	segments := cache.NewSegmentCache("segments", cleanup.PriorityHigh, cfg.SegmentCacheTTL, time.Minute)
	defer segments.Stop()
	artwork := cache.NewSegmentCache("artwork", cleanup.PriorityLow, 30*time.Minute, time.Minute)
	defer artwork.Stop()
	coordinator.Register(segments)
	coordinator.Register(artwork)

	if cfg.DiskCache {
		disk, err := cache.OpenDiskCache("prefetch", cleanup.PriorityMedium,
			filepath.Join(cfg.DataDir, "prefetch"), cfg.SegmentCacheTTL)
		if err != nil {
			logger.Fatal().
				Err(err).
				Str(ctllog.FieldEvent, "cache.open_failed").
				Msg("failed to open disk cache")
		}
		defer func() { _ = disk.Close() }()
		coordinator.Register(disk)
	}

	// Tunables follow config reloads.
	holder.OnReload(func(c config.Config) {
		monitor.SetThresholds(c.Memory)
		perfSvc.SetThresholds(c.Perf)
	})
	if *configPath != "" {
		if err := holder.Watch(); err != nil {
			logger.Warn().
				Err(err).
				Str(ctllog.FieldEvent, "config.watch_failed").
				Msg("config hot reload disabled")
		} else {
			defer holder.StopWatching()
		}
	}

	wiring := newWiring(machine, monitor, bufferMgr, perfSvc)
	wiring.start()
	defer wiring.stop()

	monitor.StartMonitoring()
	defer monitor.Close()
	coordinator.EnableAutoCleanup()
	defer coordinator.Close()
	defer perfSvc.Close()
	defer bufferMgr.Close()
	defer machine.Close()

	server := api.New(api.Options{
		Machine:           machine,
		Perf:              perfSvc,
		BufferManager:     bufferMgr,
		Monitor:           monitor,
		Coordinator:       coordinator,
		Version:           version,
		RequestsPerMinute: cfg.APIRequestsPerMinute,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str(ctllog.FieldEvent, "daemon.listening").
			Str("addr", cfg.ListenAddr).
			Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if *simulate {
		sim := newSimulator(machine, perfSvc, bufferMgr, holder, adjustable)
		g.Go(func() error {
			sim.run(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().
			Err(err).
			Str(ctllog.FieldEvent, "daemon.failed").
			Msg("daemon exited with error")
		os.Exit(1)
	}

	logger.Info().Str(ctllog.FieldEvent, "daemon.stopped").Msg("shutdown complete")
}
