package storage

import (
	"errors"
	"testing"
)

func TestBucketName(t *testing.T) {
	tests := []struct {
		index    string
		expected string
	}{
		{"people", "SEMCUBE_INDEX_people"},
		{"Case-Law", "SEMCUBE_INDEX_Case-Law"},
		{"my index.v2", "SEMCUBE_INDEX_my_20index_2Ev2"},
		{"snake_case", "SEMCUBE_INDEX_snake_5Fcase"},
		{"café", "SEMCUBE_INDEX_caf_C3_A9"},
	}

	for _, tc := range tests {
		t.Run(tc.index, func(t *testing.T) {
			if got := BucketName(tc.index); got != tc.expected {
				t.Errorf("BucketName(%q) = %q, want %q", tc.index, got, tc.expected)
			}
		})
	}
}

func TestBucketName_DistinctIndexes(t *testing.T) {
	names := []string{"a.b", "a_b", "a b", "A.B", "a_2Eb", "a-b"}
	seen := make(map[string]string)
	for _, name := range names {
		bucket := BucketName(name)
		if other, dup := seen[bucket]; dup {
			t.Fatalf("indexes %q and %q share bucket %q", other, name, bucket)
		}
		seen[bucket] = name
	}
}

func TestDocumentKey(t *testing.T) {
	t.Run("round trips URIs", func(t *testing.T) {
		uris := []string{
			"http://example.org/P1",
			"https://example.org/doc#section?x=1&y=2",
			"urn:uuid:6e8bc430-9c3a-11d9-9669-0800200c9a66",
			"http://example.org/café",
		}
		for _, uri := range uris {
			key := DocumentKey(uri)
			got, err := URIFromKey(key)
			if err != nil {
				t.Fatalf("URIFromKey(%q): %v", key, err)
			}
			if got != uri {
				t.Errorf("round trip = %q, want %q", got, uri)
			}
		}
	})

	t.Run("keys are valid KV keys", func(t *testing.T) {
		key := DocumentKey("http://example.org/a b/c:d")
		for _, r := range key {
			valid := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
			if !valid {
				t.Fatalf("key %q contains %q", key, r)
			}
		}
	})

	t.Run("rejects foreign keys", func(t *testing.T) {
		_, err := URIFromKey("not*base64")
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("expected ErrInvalidKey, got %v", err)
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if isNotFound(nil) {
		t.Error("nil is not a not-found error")
	}
	if !isNotFound(errors.New("nats: key not found")) {
		t.Error("expected key not found message to match")
	}
	if isNotFound(errors.New("nats: timeout")) {
		t.Error("timeout is not a not-found error")
	}
}
