package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stacklok/toolhive-console/internal/api"
	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/git"
	"github.com/stacklok/toolhive-console/internal/kubernetes"
	"github.com/stacklok/toolhive-console/internal/service"
	"github.com/stacklok/toolhive-console/internal/sources"
	consolesync "github.com/stacklok/toolhive-console/internal/sync"
	"github.com/stacklok/toolhive-console/internal/sync/coordinator"
	"github.com/stacklok/toolhive-console/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the console server",
	Long: `Start the console server to serve MCP registry data.

The server requires a configuration file (--config) that specifies:
- The registries to browse and their data sources (Git, ConfigMap, API, or File)
- Sync policies per registry
- Telemetry and all other operational settings

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time
	serverReadTimeout      = 10 * time.Second // Enough for headers and small requests
	serverWriteTimeout     = 15 * time.Second // Must cover manifest rendering of large registries
	serverIdleTimeout      = 60 * time.Second // Keep connections alive for reuse
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	address := viper.GetString("address")
	if address == "" {
		address = cfg.GetAddress()
	}

	slog.Info("Loaded configuration",
		"path", configPath,
		"registries", len(cfg.Registries),
		"address", address,
	)

	// Kubernetes is optional: without it the console still browses registries,
	// but ConfigMap sources and deployment operations are unavailable.
	var k8sClient client.Client
	var deploymentProvider kubernetes.DeploymentProvider
	if restConfig, err := kubernetes.NewRESTConfig(); err != nil {
		slog.Warn("Failed to create Kubernetes config", "error", err)
		slog.Warn("ConfigMap sources and deployment operations will not be available")
	} else if k8sClient, err = kubernetes.NewClient(restConfig); err != nil {
		slog.Warn("Failed to create Kubernetes client", "error", err)
		slog.Warn("ConfigMap sources and deployment operations will not be available")
	} else {
		deploymentProvider = kubernetes.NewK8sDeploymentProvider(k8sClient)
	}

	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	syncMetrics, err := telemetry.NewSyncMetrics(tel.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create sync metrics: %w", err)
	}
	registryMetrics, err := telemetry.NewRegistryMetrics(tel.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create registry metrics: %w", err)
	}

	sourceHandlerFactory := sources.NewSourceHandlerFactory(k8sClient)
	storageManager := sources.NewFileStorageManager(dataDir)
	syncManager := consolesync.NewDefaultSyncManager(sourceHandlerFactory, storageManager)

	syncCoordinator := coordinator.New(syncManager, cfg,
		coordinator.WithSyncMetrics(syncMetrics),
		coordinator.WithRegistryMetrics(registryMetrics),
	)

	syncCtx, syncCancel := context.WithCancel(context.Background())
	defer syncCancel()
	go func() {
		if err := syncCoordinator.Start(syncCtx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
	}()

	svcOpts := []service.Option{
		service.WithTracer(tel.Tracer(service.TracerName)),
	}
	if deploymentProvider != nil {
		svcOpts = append(svcOpts, service.WithDeploymentProvider(deploymentProvider))
	}
	if k8sClient != nil {
		svcOpts = append(svcOpts, service.WithKubernetesClient(k8sClient))
	}
	svc := service.New(cfg, storageManager, syncCoordinator, svcOpts...)

	metricsMiddleware, err := telemetry.MetricsMiddleware(tel.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create metrics middleware: %w", err)
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(
			telemetry.TracingMiddleware(tel.TracerProvider()),
			metricsMiddleware,
			api.LoggingMiddleware,
		),
		api.WithGitValidator(git.NewValidator(git.NewDefaultGitClient())),
	}
	if cfg.Telemetry.PrometheusEnabled() {
		serverOpts = append(serverOpts, api.WithMetricsHandler(promhttp.Handler()))
	}

	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		slog.Info("Shutting down server", "signal", sig.String())
	}

	if err := syncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}

	if err := tel.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down telemetry", "error", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}
