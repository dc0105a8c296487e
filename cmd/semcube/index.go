package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/semcube/config"
	"github.com/c360studio/semcube/index"
	"github.com/c360studio/semcube/storage"
	"github.com/c360studio/semcube/store"
)

func indexCmd(flags *globalFlags) *cobra.Command {
	var (
		folder      string
		dataPath    string
		indexes     []string
		collections []string
		uris        []string
		query       string
		clear       bool
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Fill document indexes from an N-Triples dataset",
		Long: `Fill document indexes from an N-Triples dataset.

The definition folder holds one directory per index and one directory per
collection inside it:

  <folder>/<index>/index.yaml                  optional description
  <folder>/<index>/<collection>/collection.yaml profile, conversion, select

Documents go to NATS KV when nats.url is configured and stay in memory
otherwise. A JSON run summary is written to stdout.`,
		Example: `  semcube index --folder indexes --data dataset.nt --clear
  semcube index --folder indexes --data dataset.nt --index people --collection person --uri http://example.org/P1
  semcube index --folder indexes --data dataset.nt --index people --collection person --query "?s a <http://example.org/Person>"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if folder == "" {
				folder = cfg.Index.Folder
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			g, err := readGraph(cmd.InOrStdin(), dataPath)
			if err != nil {
				return err
			}
			dataset := store.NewDataset(logger)
			defer dataset.Delete()
			if err := dataset.AddData(ctx, g); err != nil {
				return err
			}

			sink, closeSink, err := openSink(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeSink()

			svc, err := index.NewService(folder, dataset, sink, index.WithLogger(logger))
			if err != nil {
				return err
			}

			req := indexRequest{
				indexes:     indexes,
				collections: collections,
				uris:        uris,
				query:       query,
				clear:       clear,
			}
			if err := req.run(ctx, svc, cmd.OutOrStdout()); err != nil {
				return err
			}
			if !watch && !cfg.Index.Watch {
				return nil
			}
			return watchAndReindex(ctx, svc, req, cfg.Index.DebounceDelay, cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Definition folder (default: index.folder from config)")
	cmd.Flags().StringVar(&dataPath, "data", "-", "N-Triples dataset, - for stdin")
	cmd.Flags().StringSliceVar(&indexes, "index", nil, "Index to fill (repeatable, default: all)")
	cmd.Flags().StringSliceVar(&collections, "collection", nil, "Collection to fill (requires exactly one --index)")
	cmd.Flags().StringSliceVar(&uris, "uri", nil, "URI to index (requires --index and --collection)")
	cmd.Flags().StringVar(&query, "query", "", "Pattern selecting URIs to index (requires --index and --collection)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear each index before filling it")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload definitions and re-index on changes until interrupted")

	return cmd
}

// indexRequest maps the command flags onto one service operation.
type indexRequest struct {
	indexes     []string
	collections []string
	uris        []string
	query       string
	clear       bool
}

func (r indexRequest) run(ctx context.Context, svc *index.Service, out io.Writer) error {
	var (
		result *index.Run
		err    error
	)

	targeted := len(r.collections) > 0 || len(r.uris) > 0 || r.query != ""
	switch {
	case targeted && len(r.indexes) != 1:
		return fmt.Errorf("--collection, --uri and --query need exactly one --index")
	case (len(r.uris) > 0 || r.query != "") && len(r.collections) != 1:
		return fmt.Errorf("--uri and --query need exactly one --collection")
	case len(r.uris) > 0:
		result, err = svc.IndexURIs(ctx, r.indexes[0], r.collections[0], r.uris)
	case r.query != "":
		result, err = svc.IndexURIsFromQuery(ctx, r.indexes[0], r.collections[0], r.query)
	case len(r.collections) > 0:
		result, err = svc.IndexByCollection(ctx, r.indexes[0], r.collections)
	case len(r.indexes) > 0:
		result, err = svc.IndexByName(ctx, r.indexes, r.clear)
	default:
		result, err = svc.IndexAll(ctx, r.clear)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// openSink returns the NATS KV document store when configured and a memory
// sink otherwise.
func openSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (index.Sink, func(), error) {
	if !cfg.UseKV() {
		logger.Info("Indexing into memory; configure nats.url to persist documents")
		return index.NewMemorySink(), func() {}, nil
	}

	natsClient, err := connectToNATS(ctx, cfg.NATS.URL, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = natsClient.Close(context.Background()) }

	js, err := natsClient.JetStream()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("get JetStream: %w", err)
	}
	return storage.NewStore(js), closeFn, nil
}

func watchAndReindex(ctx context.Context, svc *index.Service, req indexRequest, debounce time.Duration, out io.Writer, logger *slog.Logger) error {
	w, err := index.NewWatcher(svc, debounce, logger)
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return err
	}

	for event := range w.Events() {
		if event.Err != nil {
			continue // already logged; previous definitions stay active
		}
		logger.Info("Definitions changed, re-indexing", "paths", event.Paths)
		if err := req.run(ctx, svc, out); err != nil {
			logger.Error("Re-index failed", "error", err)
		}
	}
	return nil
}
