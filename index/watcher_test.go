package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForReload(t *testing.T, w *Watcher) ReloadEvent {
	t.Helper()
	select {
	case event, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return ReloadEvent{}
	}
}

// replaceFile writes content next to path and renames it into place, so
// the watcher never sees a half-written file.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	svc := newTestService(t, NewMemorySink())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := NewWatcher(svc, 20*time.Millisecond, discardLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	replaceFile(t, filepath.Join(svc.Folder(), "people", "team", CollectionFile),
		"profile: ../profile.yaml\nselect: \"?s a <http://example.org/Person>\"\n")

	event := waitForReload(t, w)
	require.NoError(t, event.Err)
	assert.Contains(t, event.Paths, filepath.Join("people", "team", CollectionFile))

	run, err := svc.IndexByCollection(ctx, "people", []string{"team"})
	require.NoError(t, err)
	assert.Equal(t, 2, run.Indexed, "team now selects persons")
}

func TestWatcher_ReportsReloadErrors(t *testing.T) {
	svc := newTestService(t, NewMemorySink())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := NewWatcher(svc, 20*time.Millisecond, discardLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	replaceFile(t, filepath.Join(svc.Folder(), "people", "team", CollectionFile), "profile: [\n")

	event := waitForReload(t, w)
	assert.ErrorIs(t, event.Err, ErrInvalidDefinition)

	names, err := svc.CollectionNames("people")
	require.NoError(t, err)
	assert.Equal(t, []string{"person", "team"}, names)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	svc := newTestService(t, NewMemorySink())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := NewWatcher(svc, 20*time.Millisecond, discardLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(svc.Folder(), "people", "notes.txt"), []byte("x"), 0644))

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected reload for %v", event.Paths)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, int64(0), w.DroppedEvents())
}

func TestNewWatcher_DefaultDebounce(t *testing.T) {
	svc := newTestService(t, NewMemorySink())
	w, err := NewWatcher(svc, 0, nil)
	require.NoError(t, err)
	defer w.Stop()
	assert.Equal(t, DefaultDebounceDelay, w.debounce)
}
