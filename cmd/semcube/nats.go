package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ssconfig "github.com/c360studio/semstreams/config"
	"github.com/c360studio/semstreams/natsclient"
)

func connectToNATS(ctx context.Context, url string, logger *slog.Logger) (*natsclient.Client, error) {
	if url == "" {
		url = "nats://localhost:4222"
	}

	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	// Check for common connection errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or set SEMCUBE_NATS_URL to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

// graphStreams declares the GRAPH stream carrying entity ingest messages and
// projected documents.
func graphStreams() *ssconfig.Config {
	return &ssconfig.Config{
		Streams: ssconfig.StreamConfigs{
			"GRAPH": ssconfig.StreamConfig{
				Subjects: []string{
					"graph.ingest.entity",
					"graph.export.>",
				},
				MaxAge:   "24h",
				Storage:  "memory",
				Replicas: 1,
			},
		},
	}
}

func ensureStreams(ctx context.Context, natsClient *natsclient.Client, logger *slog.Logger) error {
	logger.Debug("Creating JetStream streams")
	streamsManager := ssconfig.NewStreamsManager(natsClient, logger)

	if err := streamsManager.EnsureStreams(ctx, graphStreams()); err != nil {
		return fmt.Errorf("ensure streams: %w", err)
	}

	logger.Debug("JetStream streams ready")
	return nil
}
