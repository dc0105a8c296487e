//go:build integration

package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tc := natsclient.NewTestClient(t, natsclient.WithJetStream())
	js, err := tc.Client.JetStream()
	if err != nil {
		t.Fatalf("JetStream() error = %v", err)
	}
	return NewStore(js)
}

func TestStore_PutGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	uri := "http://example.org/P1"
	doc := []byte(`{"data":{"uri":"http://example.org/P1"}}`)
	if err := store.Put(ctx, "people", uri, doc); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "people", uri)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("Get() = %s, want %s", got, doc)
	}

	if err := store.Delete(ctx, "people", uri); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "people", uri); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_URIsAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	uris, err := store.URIs(ctx, "empty")
	if err != nil {
		t.Fatalf("URIs() on empty index error = %v", err)
	}
	if len(uris) != 0 {
		t.Errorf("expected no URIs, got %v", uris)
	}

	for _, uri := range []string{"http://example.org/P2", "http://example.org/P1"} {
		if err := store.Put(ctx, "people", uri, []byte(`{}`)); err != nil {
			t.Fatalf("Put(%s) error = %v", uri, err)
		}
	}

	uris, err = store.URIs(ctx, "people")
	if err != nil {
		t.Fatalf("URIs() error = %v", err)
	}
	if len(uris) != 2 || uris[0] != "http://example.org/P1" || uris[1] != "http://example.org/P2" {
		t.Errorf("URIs() = %v", uris)
	}

	if err := store.Clear(ctx, "people"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	uris, err = store.URIs(ctx, "people")
	if err != nil {
		t.Fatalf("URIs() after clear error = %v", err)
	}
	if len(uris) != 0 {
		t.Errorf("expected no URIs after clear, got %v", uris)
	}
}

func TestStore_ReadsDoNotCreateBuckets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "ghost", "http://example.org/P1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if uris, err := store.URIs(ctx, "ghost"); err != nil || len(uris) != 0 {
		t.Errorf("URIs() = %v, %v, want none", uris, err)
	}
	if err := store.Delete(ctx, "ghost", "http://example.org/P1"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := store.Clear(ctx, "ghost"); err != nil {
		t.Errorf("Clear() error = %v", err)
	}

	if _, err := store.js.KeyValue(ctx, BucketName("ghost")); !errors.Is(err, jetstream.ErrBucketNotFound) {
		t.Errorf("bucket lookup error = %v, want ErrBucketNotFound", err)
	}

	if err := store.Put(ctx, "ghost", "http://example.org/P1", []byte(`{}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := store.Get(ctx, "ghost", "http://example.org/P1"); err != nil {
		t.Errorf("Get() after Put error = %v", err)
	}
}
