package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menuopt/internal/api"
	"menuopt/internal/config"
	"menuopt/internal/engine"
	"menuopt/internal/export"
	"menuopt/internal/loader"
	"menuopt/internal/logger"
	"menuopt/internal/metrics"
	"menuopt/internal/monitoring"
	"menuopt/internal/terminal"

	"github.com/gin-gonic/gin"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	chatMode    = flag.Bool("chat", false, "Run the interactive terminal assistant instead of the API")
	exportDir   = flag.String("export", "", "Write the menu CSV, an empty chat transcript and a SQLite snapshot into this directory and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort > 0 {
		cfg.MetricsConfig.Port = *metricsPort
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Log)
	defer appLogger.Close()
	log := appLogger.WithComponent("main")

	rows, err := loader.LoadFile(cfg.Data.File, cfg.LoaderOptions())
	if err != nil {
		var loadErr *loader.LoadError
		if errors.As(err, &loadErr) {
			log.Error("Failed to load menu dataset", "op", loadErr.Op, "path", loadErr.Path, "error", loadErr.Err)
		} else {
			log.Error("Failed to load menu dataset", "error", err)
		}
		os.Exit(1)
	}
	eng := engine.New(rows, cfg.EngineOptions()...)
	log.Info("Menu dataset loaded", "file", cfg.Data.File, "dishes", eng.Len())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *exportDir != "":
		if err := export.WriteDir(*exportDir, eng.Rows(), nil, cfg.Data.Columns); err != nil {
			log.Error("Export failed", "dir", *exportDir, "error", err)
			os.Exit(1)
		}
		log.Info("Export written", "dir", *exportDir)
	case *chatMode:
		opts := terminal.Options{
			Columns:   cfg.Data.Columns,
			ExportDir: cfg.Export.Dir,
			Logger:    appLogger.WithComponent("terminal"),
		}
		if err := terminal.Run(ctx, os.Stdin, os.Stdout, eng, opts); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Terminal session failed", "error", err)
			os.Exit(1)
		}
	default:
		if err := serve(ctx, cfg, eng, appLogger); err != nil {
			log.Error("API server error", "error", err)
			os.Exit(1)
		}
	}
}

// serve runs the API and metrics servers until ctx is cancelled
func serve(ctx context.Context, cfg *config.Config, eng *engine.Engine, appLogger *logger.Logger) error {
	log := appLogger.WithComponent("main")
	gin.SetMode(gin.ReleaseMode)

	metricsCollector := metrics.NewMetricsCollector()
	monitor := monitoring.NewMonitor()
	monitor.RecordDatasetLoad(cfg.Data.File, eng.Len())

	menuAPI := api.NewMenuAPI(eng, api.Options{
		JWTSecret: cfg.Auth.JWTSecret,
		Columns:   cfg.Data.Columns,
		Logger:    appLogger,
		Metrics:   metricsCollector,
		Monitor:   monitor,
	})

	servers := []*http.Server{{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: menuAPI.Router,
	}}
	if cfg.MetricsConfig.Enabled {
		servers = append(servers, metricsServer(cfg, metricsCollector))
	}

	errs := make(chan error, len(servers))
	for _, server := range servers {
		server := server
		go func() {
			log.Info("Starting server", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errs <- err
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down servers...")
	case serveErr = <-errs:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", "addr", server.Addr, "error", err)
		}
	}
	return serveErr
}

func metricsServer(cfg *config.Config, collector *metrics.MetricsCollector) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.GET(cfg.MetricsConfig.Path, gin.WrapH(collector.Handler()))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsConfig.Port),
		Handler: metricsRouter,
	}
}
