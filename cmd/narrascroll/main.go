package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"narrascroll/internal/api"
	"narrascroll/pkg/audio"
	"narrascroll/pkg/clock"
	"narrascroll/pkg/config"
	"narrascroll/pkg/db"
	"narrascroll/pkg/db/maintenance"
	"narrascroll/pkg/logging"
	"narrascroll/pkg/narration"
	"narrascroll/pkg/page"
	"narrascroll/pkg/probe"
	"narrascroll/pkg/registry"
	"narrascroll/pkg/sequencer"
	"narrascroll/pkg/store"
	"narrascroll/pkg/version"
)

const defaultConfigPath = "configs/narrascroll.yaml"

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

func main() {
	flag.Parse()

	// A missing .env is fine; the process environment still applies.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Narrascroll Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := maintenance.Run(ctx, st, dbConn, appCfg.DB.EventRetention.Std()); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	catalog, err := registry.LoadDir(appCfg.Stories.Dir)
	if err != nil {
		return fmt.Errorf("failed to load stories: %w", err)
	}

	// Startup Probes
	probes := []probe.Probe{
		{
			Name:     "Story Catalog",
			Check:    probe.StoryCatalog(catalog),
			Critical: true,
		},
		{
			Name: "Narration Assets",
			Check: probe.NarrationAssets(catalog,
				narration.NewResolver(appCfg.Stories.MediaRoot),
				audio.GetDuration,
				appCfg.Narration.ProbeWorkers),
			Critical: false, // Failing clips are skipped during playback.
			Timeout:  30 * time.Second,
		},
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	prefs := config.NewProvider(appCfg, st)
	audioMgr := audio.New(prefs.Volume(ctx), appCfg.Narration.MuteFade.Std())

	pages := page.NewManager(catalog, audioMgr, clock.New(), pageConfig(ctx, appCfg, prefs), prefs, st)
	defer pages.Shutdown()

	return runServer(ctx, cancel, appCfg, catalog, pages, audioMgr, prefs, st)
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func pageConfig(ctx context.Context, appCfg *config.Config, prefs config.Provider) page.Config {
	return page.Config{
		SettleWindow:     prefs.SettleWindow(ctx),
		Margin:           appCfg.Visibility.Margin,
		ProgressInterval: prefs.ProgressInterval(ctx),
		Timings: sequencer.Timings{
			EndedDelay: appCfg.Sequencer.EndedDelay.Std(),
			ErrorDelay: appCfg.Sequencer.ErrorDelay.Std(),
			DwellDelay: appCfg.Sequencer.DwellDelay.Std(),
		},
		MediaRoot: appCfg.Stories.MediaRoot,
	}
}

func runServer(ctx context.Context, shutdown context.CancelFunc, cfg *config.Config, catalog *registry.Catalog, pages *page.Manager, audioMgr *audio.Manager, prefs config.Provider, st store.Store) error {
	srv := api.NewServer(cfg.Server.Address,
		api.NewStoryHandler(catalog),
		api.NewPageHandler(pages),
		api.NewEventHandler(st),
		api.NewAudioHandler(audioMgr, prefs),
		cfg.Stories.MediaRoot,
		shutdown,
	)
	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv)
}

func runServerLifecycle(ctx context.Context, srv *http.Server) error {
	slog.Info("Starting server", "addr", srv.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
