package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/semcube/config"
	documentquery "github.com/c360studio/semcube/processor/document-query"
	jsonprojection "github.com/c360studio/semcube/processor/json-projection"
)

// lifecycle is the part of a component the serve command drives.
type lifecycle interface {
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the projection and document query components",
		Long: `Run the json-projection component against NATS.

Entities arriving on graph.ingest.entity are accumulated and projected with
the configured profile; each projected document is published on
graph.export.json. Indexed documents stored in NATS KV are answered on the
index.query request subject. Prometheus metrics are served on
metrics.address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if profilePath == "" {
				profilePath = cfg.Profile
			}
			if profilePath == "" {
				return fmt.Errorf("no profile: pass --profile or set profile in %s", config.ProjectConfigFile)
			}
			return serve(cmd.Context(), cfg, profilePath, logger)
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "Schema profile YAML (default: profile from config)")

	return cmd
}

func serve(parent context.Context, cfg *config.Config, profilePath string, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	natsClient, err := connectToNATS(ctx, cfg.NATS.URL, logger)
	if err != nil {
		return err
	}
	defer natsClient.Close(context.Background())

	if err := ensureStreams(ctx, natsClient, logger); err != nil {
		return err
	}

	rawConfig, err := json.Marshal(map[string]any{
		"profile":    profilePath,
		"conversion": cfg.Conversion,
	})
	if err != nil {
		return fmt.Errorf("marshal component config: %w", err)
	}

	deps := component.Dependencies{
		NATSClient: natsClient,
		Logger:     logger,
	}
	components := []struct {
		name    string
		factory func(json.RawMessage, component.Dependencies) (component.Discoverable, error)
		config  json.RawMessage
	}{
		{name: "json-projection", factory: jsonprojection.NewComponent, config: rawConfig},
		{name: "document-query", factory: documentquery.NewComponent, config: json.RawMessage(`{}`)},
	}

	for _, def := range components {
		comp, err := startComponent(ctx, def.name, def.factory, def.config, deps)
		if err != nil {
			return err
		}
		defer func(name string) {
			if err := comp.Stop(10 * time.Second); err != nil {
				logger.Error("Error stopping component", "component", name, "error", err)
			}
		}(def.name)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Serving metrics", "address", cfg.Metrics.Address)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	logger.Info("Semcube ready", "version", Version, "profile", profilePath)

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error stopping metrics server", "error", err)
		}
	}

	logger.Info("Semcube shutdown complete")
	return nil
}

func startComponent(ctx context.Context, name string, factory func(json.RawMessage, component.Dependencies) (component.Discoverable, error), rawConfig json.RawMessage, deps component.Dependencies) (lifecycle, error) {
	discoverable, err := factory(rawConfig, deps)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	comp, ok := discoverable.(lifecycle)
	if !ok {
		return nil, fmt.Errorf("%s does not support start and stop", name)
	}
	if err := comp.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", name, err)
	}
	if err := comp.Start(ctx); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return comp, nil
}
