package ada

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/igorsilveira/ada/pkg/audit"
	"github.com/igorsilveira/ada/pkg/config"
	"github.com/igorsilveira/ada/pkg/gateway"
	"github.com/igorsilveira/ada/pkg/live"
	"github.com/igorsilveira/ada/pkg/store"
	"github.com/igorsilveira/ada/pkg/telemetry"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Ada relay",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg := config.Current()

	if err := config.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format, nil)
	logger.Info("starting ada relay",
		slog.String("version", version),
		slog.Int("port", cfg.Gateway.Port),
		slog.String("bind", cfg.Gateway.Bind),
		slog.String("model", cfg.Live.Model),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = telemetry.WithLogger(ctx, logger)

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Version:     version,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := store.New(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = db.Close() }()

	auditLog, err := audit.New(db.DB())
	if err != nil {
		return fmt.Errorf("initializing audit logger: %w", err)
	}

	dialer, err := live.NewGenAIDialer(ctx, cfg.Live.APIKey(), cfg.Live.APIVersion)
	if err != nil {
		return fmt.Errorf("%w (set %s)", err, cfg.Live.APIKeyEnv)
	}
	sessions := live.NewRegistry(dialer, live.OptionsFromConfig(cfg.Live, logger))

	gw := gateway.New(gateway.Config{
		Bind:           cfg.Gateway.Bind,
		Port:           cfg.Gateway.Port,
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
		Sessions:       sessions,
		Store:          db,
		Audit:          auditLog,
		Logger:         logger,
	})

	if err := gw.Start(ctx); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
