package index

import (
	"context"
	"sort"
	"sync"

	"github.com/c360studio/semcube/storage"
)

// Sink receives the documents written by indexing runs.
type Sink interface {
	// Put stores the document for uri in index, replacing any previous
	// version.
	Put(ctx context.Context, index, uri string, doc []byte) error
	// Clear removes every document of index.
	Clear(ctx context.Context, index string) error
}

var _ Sink = (*storage.Store)(nil)

// MemorySink keeps documents in memory.
type MemorySink struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{docs: make(map[string]map[string][]byte)}
}

// Put implements Sink.
func (m *MemorySink) Put(_ context.Context, index, uri string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.docs[index]
	if !ok {
		docs = make(map[string][]byte)
		m.docs[index] = docs
	}
	docs[uri] = append([]byte(nil), doc...)
	return nil
}

// Clear implements Sink.
func (m *MemorySink) Clear(_ context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, index)
	return nil
}

// Get returns the document stored for uri in index.
func (m *MemorySink) Get(index, uri string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[index][uri]
	return doc, ok
}

// URIs returns the sorted URIs stored in index.
func (m *MemorySink) URIs(index string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uris := make([]string, 0, len(m.docs[index]))
	for uri := range m.docs[index] {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
