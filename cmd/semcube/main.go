// Package main provides the semcube binary entry point.
// Semcube projects typed RDF graphs into JSON documents, from the command
// line, into indexes, or as a streaming semstreams component.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/c360studio/semcube/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semcube"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "semcube",
		Short: "Typed graph to JSON document projection",
		Long: `Semcube projects typed RDF graphs into JSON documents.

Starting from one node, it follows the attributes declared in a schema
profile and emits the node under "data" and every node it reaches under
"included", each exactly once.

It provides:
- convert: project one node of an N-Triples file
- index:   fill document indexes from folder definitions
- publish: send graph entities to the GRAPH stream
- serve:   project streamed graph entities as a semstreams component`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		convertCmd(flags),
		indexCmd(flags),
		publishCmd(flags),
		serveCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

// setup loads the configuration and installs the default logger. Logs go to
// stderr so that documents written to stdout stay clean.
func (f *globalFlags) setup(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.NewLoader(nil).LoadWithFile(f.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}
