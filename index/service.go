// Package index fills document indexes from the dataset.
//
// A definition folder names the indexes and their collections. Each
// collection pairs a schema profile and a projection configuration with a
// pattern that selects the URIs to index. Runs project every selected URI
// and hand the documents to a Sink; one failing URI never stops a run.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/semcube/graph"
	"github.com/c360studio/semcube/metrics"
	"github.com/c360studio/semcube/store"
)

// Document outcome labels.
const (
	statusIndexed = "indexed"
	statusFailed  = "failed"
)

// Failure records a URI that could not be indexed.
type Failure struct {
	Index      string `json:"index"`
	Collection string `json:"collection"`
	URI        string `json:"uri"`
	Error      string `json:"error"`
}

// Run summarises a finished indexing run.
type Run struct {
	ID       string        `json:"id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Indexed  int           `json:"indexed"`
	Failures []Failure     `json:"failures,omitempty"`
}

// Failed returns the number of URIs that could not be indexed.
func (r *Run) Failed() int {
	return len(r.Failures)
}

// Service runs indexing over a dataset.
type Service struct {
	folder  string
	dataset *store.Dataset
	sink    Sink
	logger  *slog.Logger

	mu   sync.RWMutex
	defs *Definitions

	running atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService loads the definitions in folder and returns a Service that
// reads from dataset and writes to sink.
func NewService(folder string, dataset *store.Dataset, sink Sink, opts ...Option) (*Service, error) {
	if dataset == nil {
		return nil, fmt.Errorf("dataset required")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink required")
	}

	s := &Service{
		folder:  folder,
		dataset: dataset,
		sink:    sink,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Folder returns the definition folder.
func (s *Service) Folder() string {
	return s.folder
}

// Reload rereads the definition folder. On error the current definitions
// stay in place.
func (s *Service) Reload() error {
	defs, err := LoadDefinitions(s.folder, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.defs = defs
	s.mu.Unlock()

	s.logger.Info("Index definitions loaded",
		"folder", s.folder,
		"indexes", defs.Names())
	return nil
}

func (s *Service) definitions() *Definitions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defs
}

// IsIndexRunning reports whether a run is in progress.
func (s *Service) IsIndexRunning() bool {
	return s.running.Load()
}

// IndexNames returns the sorted names of all indexes.
func (s *Service) IndexNames() []string {
	return s.definitions().Names()
}

// CollectionNames returns the sorted collection names of index.
func (s *Service) CollectionNames(index string) ([]string, error) {
	idx, err := s.definitions().Index(index)
	if err != nil {
		return nil, err
	}
	return idx.CollectionNames(), nil
}

// IndexAll fills every index, clearing each one first when clear is set.
func (s *Service) IndexAll(ctx context.Context, clear bool) (*Run, error) {
	return s.IndexByName(ctx, s.IndexNames(), clear)
}

// IndexByName fills the named indexes, clearing each one first when clear
// is set.
func (s *Service) IndexByName(ctx context.Context, names []string, clear bool) (*Run, error) {
	defs := s.definitions()
	indexes := make([]*Index, 0, len(names))
	for _, name := range names {
		idx, err := defs.Index(name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}

	return s.run(ctx, func(ctx context.Context, run *Run) error {
		for _, idx := range indexes {
			if err := s.fillIndex(ctx, run, idx, clear); err != nil {
				return err
			}
		}
		return nil
	})
}

// IndexByCollection fills the named collections of index without clearing
// it.
func (s *Service) IndexByCollection(ctx context.Context, index string, collections []string) (*Run, error) {
	idx, err := s.definitions().Index(index)
	if err != nil {
		return nil, err
	}
	targets := make([]*Collection, 0, len(collections))
	for _, name := range collections {
		c, err := idx.Collection(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, c)
	}

	return s.run(ctx, func(ctx context.Context, run *Run) error {
		start := time.Now()
		defer func() {
			metrics.IndexRunDuration.WithLabelValues(idx.Name).Observe(time.Since(start).Seconds())
		}()
		for _, c := range targets {
			if err := s.fillCollection(ctx, run, idx, c, c.Select.Subjects); err != nil {
				return err
			}
		}
		return nil
	})
}

// IndexURIsFromQuery indexes the URIs matched by query into collection.
// URIs are processed one by one.
func (s *Service) IndexURIsFromQuery(ctx context.Context, index, collection, query string) (*Run, error) {
	idx, c, err := s.collection(index, collection)
	if err != nil {
		return nil, err
	}
	pattern, err := store.ParsePattern(query)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, func(ctx context.Context, run *Run) error {
		return s.fillCollection(ctx, run, idx, c, pattern.Subjects)
	})
}

// IndexURIs indexes the given URIs into collection. URIs are processed one
// by one.
func (s *Service) IndexURIs(ctx context.Context, index, collection string, uris []string) (*Run, error) {
	idx, c, err := s.collection(index, collection)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, func(ctx context.Context, run *Run) error {
		return s.fillCollection(ctx, run, idx, c, func(*graph.Graph) []string { return uris })
	})
}

func (s *Service) collection(index, collection string) (*Index, *Collection, error) {
	idx, err := s.definitions().Index(index)
	if err != nil {
		return nil, nil, err
	}
	c, err := idx.Collection(collection)
	if err != nil {
		return nil, nil, err
	}
	return idx, c, nil
}

// run executes fn as the single active run.
func (s *Service) run(ctx context.Context, fn func(ctx context.Context, run *Run) error) (*Run, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrIndexRunning
	}
	metrics.IndexRunning.Set(1)
	defer func() {
		metrics.IndexRunning.Set(0)
		s.running.Store(false)
	}()

	run := &Run{ID: uuid.New().String(), Started: time.Now()}
	s.logger.Info("Index run started", "run_id", run.ID)

	err := fn(ctx, run)
	run.Duration = time.Since(run.Started)
	if err != nil {
		s.logger.Error("Index run aborted",
			"run_id", run.ID,
			"indexed", run.Indexed,
			"failed", run.Failed(),
			"error", err)
		return run, err
	}

	s.logger.Info("Index run finished",
		"run_id", run.ID,
		"indexed", run.Indexed,
		"failed", run.Failed(),
		"duration", run.Duration)
	return run, nil
}

func (s *Service) fillIndex(ctx context.Context, run *Run, idx *Index, clear bool) error {
	start := time.Now()
	defer func() {
		metrics.IndexRunDuration.WithLabelValues(idx.Name).Observe(time.Since(start).Seconds())
	}()

	if clear {
		if err := s.sink.Clear(ctx, idx.Name); err != nil {
			return fmt.Errorf("clear index %s: %w", idx.Name, err)
		}
	}
	for _, name := range idx.CollectionNames() {
		c, err := idx.Collection(name)
		if err != nil {
			return err
		}
		if err := s.fillCollection(ctx, run, idx, c, c.Select.Subjects); err != nil {
			return err
		}
	}
	return nil
}

// fillCollection projects the URIs chosen by selectURIs inside one read
// transaction. selectURIs sees the same union graph the projection reads.
func (s *Service) fillCollection(ctx context.Context, run *Run, idx *Index, c *Collection, selectURIs func(*graph.Graph) []string) error {
	return s.dataset.Read(ctx, func(ctx context.Context, tx *store.Tx) error {
		g := tx.Union()
		uris := selectURIs(g)
		s.logger.Debug("Indexing collection",
			"index", idx.Name,
			"collection", c.Name,
			"uris", len(uris))

		for _, uri := range uris {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.indexURI(ctx, run, idx, c, g, uri)
		}
		return nil
	})
}

func (s *Service) indexURI(ctx context.Context, run *Run, idx *Index, c *Collection, g *graph.Graph, uri string) {
	err := s.writeDocument(ctx, idx, c, g, uri)
	if err == nil {
		run.Indexed++
		metrics.IndexedDocuments.WithLabelValues(idx.Name, c.Name, statusIndexed).Inc()
		return
	}

	metrics.IndexedDocuments.WithLabelValues(idx.Name, c.Name, statusFailed).Inc()
	run.Failures = append(run.Failures, Failure{
		Index:      idx.Name,
		Collection: c.Name,
		URI:        uri,
		Error:      err.Error(),
	})
	s.logger.Warn("Failed to index URI",
		"run_id", run.ID,
		"index", idx.Name,
		"collection", c.Name,
		"uri", uri,
		"error", err)
}

func (s *Service) writeDocument(ctx context.Context, idx *Index, c *Collection, g *graph.Graph, uri string) error {
	doc, err := c.Converter.Convert(g, uri)
	if err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := s.sink.Put(ctx, idx.Name, uri, data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
