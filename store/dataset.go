// Package store keeps graphs in memory as a dataset of one default graph and
// any number of named graphs, and guards access with nested read and write
// transactions.
//
// Transactions nest through the context: a Read or Write started with a
// context that already carries a transaction on the same dataset joins it.
// A Write nested in a Read fails with ErrWriteInRead. A Write works on a
// copy-on-write snapshot that replaces the dataset's graphs only when the
// function returns nil.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/c360studio/semcube/graph"
)

var (
	// ErrWriteInRead is returned when a write transaction is started inside
	// a read transaction.
	ErrWriteInRead = errors.New("write transaction nested inside read transaction")

	// ErrGraphNotFound is returned for an unknown named graph.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrClosed is returned by a dataset after Delete.
	ErrClosed = errors.New("dataset closed")

	// ErrTransactionClosed is returned when a context carrying a finished
	// transaction is used to start another one.
	ErrTransactionClosed = errors.New("obsolete transaction state")

	// ErrReadOnly is returned when a read transaction tries to modify the
	// dataset.
	ErrReadOnly = errors.New("read-only transaction")
)

// Mode is the access mode of a transaction.
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// Dataset is an in-memory set of graphs.
type Dataset struct {
	mu     sync.RWMutex
	def    *graph.Graph
	named  map[string]*graph.Graph
	closed bool
	logger *slog.Logger

	// union of def and named, built on first use and dropped on commit.
	unionMu sync.Mutex
	union   *graph.Graph
}

// NewDataset returns an empty dataset. A nil logger uses slog.Default().
func NewDataset(logger *slog.Logger) *Dataset {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dataset{
		def:    graph.New(),
		named:  make(map[string]*graph.Graph),
		logger: logger,
	}
}

type txKey struct{ d *Dataset }

// Tx is a transaction on a dataset.
type Tx struct {
	d     *Dataset
	id    string
	mode  Mode
	def   *graph.Graph
	named map[string]*graph.Graph
	done  bool
}

// ID returns the transaction id.
func (tx *Tx) ID() string { return tx.id }

// Mode returns the transaction mode.
func (tx *Tx) Mode() Mode { return tx.mode }

// DefaultGraph returns the default graph. In a read transaction it must not
// be modified.
func (tx *Tx) DefaultGraph() *graph.Graph { return tx.def }

// Graph returns a named graph.
func (tx *Tx) Graph(uri string) (*graph.Graph, error) {
	g, ok := tx.named[uri]
	if !ok {
		return nil, ErrGraphNotFound
	}
	return g, nil
}

// GraphNames returns the named graph URIs in order.
func (tx *Tx) GraphNames() []string {
	names := make([]string, 0, len(tx.named))
	for uri := range tx.named {
		names = append(names, uri)
	}
	sort.Strings(names)
	return names
}

// Union returns a graph holding the default graph and every named graph.
// Read transactions share one union per committed state of the dataset, so
// it must not be modified; a write transaction gets a fresh copy.
func (tx *Tx) Union() *graph.Graph {
	if tx.mode == ModeRead {
		return tx.d.cachedUnion(tx)
	}
	return tx.buildUnion()
}

func (tx *Tx) buildUnion() *graph.Graph {
	u := tx.def.Clone()
	for _, uri := range tx.GraphNames() {
		u.Merge(tx.named[uri])
	}
	return u
}

func (d *Dataset) cachedUnion(tx *Tx) *graph.Graph {
	d.unionMu.Lock()
	defer d.unionMu.Unlock()
	if d.union == nil {
		d.union = tx.buildUnion()
	}
	return d.union
}

func (d *Dataset) dropUnion() {
	d.unionMu.Lock()
	d.union = nil
	d.unionMu.Unlock()
}

// SetDefaultGraph replaces the default graph.
func (tx *Tx) SetDefaultGraph(g *graph.Graph) error {
	if tx.mode != ModeWrite {
		return ErrReadOnly
	}
	if g == nil {
		g = graph.New()
	}
	tx.def = g
	return nil
}

// SetGraph replaces or adds a named graph.
func (tx *Tx) SetGraph(uri string, g *graph.Graph) error {
	if tx.mode != ModeWrite {
		return ErrReadOnly
	}
	if g == nil {
		g = graph.New()
	}
	tx.named[uri] = g
	return nil
}

// RemoveGraph deletes a named graph.
func (tx *Tx) RemoveGraph(uri string) error {
	if tx.mode != ModeWrite {
		return ErrReadOnly
	}
	if _, ok := tx.named[uri]; !ok {
		return ErrGraphNotFound
	}
	delete(tx.named, uri)
	return nil
}

// Read runs fn in a read transaction. Reads may run concurrently with each
// other but not with a write.
func (d *Dataset) Read(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	if parent, ok := ctx.Value(txKey{d}).(*Tx); ok {
		if parent.done {
			return ErrTransactionClosed
		}
		return fn(ctx, parent)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	tx := &Tx{d: d, id: uuid.NewString(), mode: ModeRead, def: d.def, named: d.named}
	defer func() { tx.done = true }()

	if err := fn(context.WithValue(ctx, txKey{d}, tx), tx); err != nil {
		d.logger.Info("Failure in read transaction, ending", "tx", tx.id, "error", err)
		return err
	}
	return nil
}

// Write runs fn in a write transaction. Changes made through tx become
// visible when fn returns nil and are discarded otherwise.
func (d *Dataset) Write(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	if parent, ok := ctx.Value(txKey{d}).(*Tx); ok {
		if parent.done {
			return ErrTransactionClosed
		}
		if parent.mode == ModeRead {
			return ErrWriteInRead
		}
		return fn(ctx, parent)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	named := make(map[string]*graph.Graph, len(d.named))
	for uri, g := range d.named {
		named[uri] = g.Clone()
	}
	tx := &Tx{d: d, id: uuid.NewString(), mode: ModeWrite, def: d.def.Clone(), named: named}
	defer func() { tx.done = true }()

	if err := fn(context.WithValue(ctx, txKey{d}, tx), tx); err != nil {
		d.logger.Info("Failure in write transaction, aborting", "tx", tx.id, "error", err)
		return err
	}

	d.def = tx.def
	d.named = tx.named
	d.dropUnion()
	return nil
}

// AddData replaces the default graph.
func (d *Dataset) AddData(ctx context.Context, g *graph.Graph) error {
	return d.Write(ctx, func(_ context.Context, tx *Tx) error {
		return tx.SetDefaultGraph(g)
	})
}

// AddNamedData replaces or adds the named graph uri.
func (d *Dataset) AddNamedData(ctx context.Context, uri string, g *graph.Graph) error {
	return d.Write(ctx, func(_ context.Context, tx *Tx) error {
		return tx.SetGraph(uri, g)
	})
}

// Delete closes the dataset and drops its graphs. Later transactions fail
// with ErrClosed.
func (d *Dataset) Delete() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.def = graph.New()
	d.named = make(map[string]*graph.Graph)
	d.dropUnion()
}
