// Package storage persists projected JSON documents in NATS KV.
//
// Every index gets its own bucket. Documents are keyed by the URI of their
// root node; since URIs carry characters KV keys do not allow, keys are the
// URL-safe base64 encoding of the URI.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nats-io/nats.go/jetstream"
)

// BucketPrefix is prepended to the bucket name of every index.
const BucketPrefix = "SEMCUBE_INDEX_"

// Store provides document storage operations backed by NATS KV.
type Store struct {
	js jetstream.JetStream

	mu      sync.Mutex
	buckets map[string]jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context. Buckets are
// created on the first write to an index; reads never create them.
func NewStore(js jetstream.JetStream) *Store {
	return &Store{
		js:      js,
		buckets: make(map[string]jetstream.KeyValue),
	}
}

// BucketName returns the KV bucket name holding the documents of index.
// ASCII letters, digits and '-' are kept; every other byte is written as
// '_' followed by its two hex digits, so distinct indexes never share a
// bucket.
func BucketName(index string) string {
	var b strings.Builder
	b.WriteString(BucketPrefix)
	for i := 0; i < len(index); i++ {
		c := index[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	return b.String()
}

// DocumentKey returns the KV key for a document URI.
func DocumentKey(uri string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(uri))
}

// URIFromKey reverses DocumentKey.
func URIFromKey(key string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidKey, key, err)
	}
	return string(raw), nil
}

// bucket returns the bucket of index. Without create, a missing bucket is
// reported as a nil KeyValue.
func (s *Store) bucket(ctx context.Context, index string, create bool) (jetstream.KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kv, ok := s.buckets[index]; ok {
		return kv, nil
	}

	var (
		kv  jetstream.KeyValue
		err error
	)
	if create {
		kv, err = getOrCreateBucket(ctx, s.js, index)
	} else {
		kv, err = s.js.KeyValue(ctx, BucketName(index))
		if errors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open bucket for index %s: %w", index, err)
	}
	s.buckets[index] = kv
	return kv, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, index string) (jetstream.KeyValue, error) {
	name := BucketName(index)
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Semcube %s documents", index),
		History:     5, // Keep last 5 revisions
	})
}

// Put stores the document for uri in index, replacing any previous version.
func (s *Store) Put(ctx context.Context, index, uri string, doc []byte) error {
	kv, err := s.bucket(ctx, index, true)
	if err != nil {
		return err
	}
	if _, err := kv.Put(ctx, DocumentKey(uri), doc); err != nil {
		return fmt.Errorf("store document %s: %w", uri, err)
	}
	return nil
}

// Get retrieves the document for uri in index.
func (s *Store) Get(ctx context.Context, index, uri string) ([]byte, error) {
	kv, err := s.bucket(ctx, index, false)
	if err != nil {
		return nil, err
	}
	if kv == nil {
		return nil, ErrNotFound
	}
	entry, err := kv.Get(ctx, DocumentKey(uri))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s: %w", uri, err)
	}
	return entry.Value(), nil
}

// Delete removes the document for uri from index.
func (s *Store) Delete(ctx context.Context, index, uri string) error {
	kv, err := s.bucket(ctx, index, false)
	if err != nil || kv == nil {
		return err
	}
	if err := kv.Delete(ctx, DocumentKey(uri)); err != nil {
		return fmt.Errorf("delete document %s: %w", uri, err)
	}
	return nil
}

// URIs returns the sorted URIs of every document in index.
func (s *Store) URIs(ctx context.Context, index string) ([]string, error) {
	kv, err := s.bucket(ctx, index, false)
	if err != nil || kv == nil {
		return nil, err
	}
	keys, err := kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list document keys: %w", err)
	}

	uris := make([]string, 0, len(keys))
	for _, key := range keys {
		uri, err := URIFromKey(key)
		if err != nil {
			continue // Skip keys not written by this store
		}
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris, nil
}

// Clear purges every document of index.
func (s *Store) Clear(ctx context.Context, index string) error {
	kv, err := s.bucket(ctx, index, false)
	if err != nil || kv == nil {
		return err
	}
	keys, err := kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("list document keys: %w", err)
	}
	for _, key := range keys {
		if err := kv.Purge(ctx, key); err != nil {
			return fmt.Errorf("purge %s: %w", key, err)
		}
	}
	return nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, jetstream.ErrKeyNotFound) || strings.Contains(err.Error(), "key not found")
}
