package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xcqrs/discovery"
)

var (
	fixtureClassmap = filepath.Join("..", "..", "discovery", "testdata", "classmap.json")
	fixtureManifest = filepath.Join("..", "..", "discovery", "testdata", "manifest.yaml")
)

// testConfig writes a config pointing the file store into a temp dir.
func testConfig(t *testing.T) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "xcqrs.yaml")
	body := "message-bus:\n" +
		"  paths:\n" +
		"    command_handlers: " + filepath.Join(dir, "cache", "commands.json") + "\n" +
		"    query_handlers: " + filepath.Join(dir, "cache", "queries.json") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return cfgPath, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// TestCacheListClear runs the full file-store lifecycle.
func TestCacheListClear(t *testing.T) {
	cfg, dir := testConfig(t)

	out, err := run(t, "--config", cfg, "handlers:cache", "--classmap", fixtureClassmap, "--manifest", fixtureManifest)
	require.NoError(t, err)
	assert.Contains(t, out, "Cached 6 command handler(s) and 4 query handler(s).")
	assert.FileExists(t, filepath.Join(dir, "cache", "commands.json"))
	assert.FileExists(t, filepath.Join(dir, "cache", "queries.json"))

	out, err = run(t, "--config", cfg, "handlers:list", "--type", "query-handlers", "--json")
	require.NoError(t, err)
	var listed map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Contains(t, listed, "query-handlers")
	assert.Len(t, listed["query-handlers"], 4)
	assert.NotContains(t, listed, "command-handlers")

	out, err = run(t, "--config", cfg, "handlers:list")
	require.NoError(t, err)
	assert.Contains(t, out, `Monolith\Commands\DeleteUserCommand`)
	assert.Contains(t, out, "handleDeleteUser")

	out, err = run(t, "--config", cfg, "handlers:clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Handler maps cleared.")
	assert.NoFileExists(t, filepath.Join(dir, "cache", "commands.json"))

	out, err = run(t, "--config", cfg, "handlers:list")
	require.NoError(t, err)
	assert.Contains(t, out, "(not cached)")
}

// TestCache_MissingClassmap reports unreadable sources instead of caching empty maps.
func TestCache_MissingClassmap(t *testing.T) {
	cfg, dir := testConfig(t)

	_, err := run(t, "--config", cfg, "handlers:cache", "--classmap", filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, discovery.ErrSourceUnavailable)
	assert.NoFileExists(t, filepath.Join(dir, "cache", "commands.json"))
}

// TestCache_MissingManifestKeepsCache leaves an existing cache alone when the manifest path is wrong.
func TestCache_MissingManifestKeepsCache(t *testing.T) {
	cfg, dir := testConfig(t)

	_, err := run(t, "--config", cfg, "handlers:cache", "--classmap", fixtureClassmap, "--manifest", fixtureManifest)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(dir, "cache", "commands.json"))
	require.NoError(t, err)

	typo := filepath.Join(filepath.Dir(fixtureManifest), "manifset.yaml")
	_, err = run(t, "--config", cfg, "handlers:cache", "--classmap", fixtureClassmap, "--manifest", typo)
	assert.ErrorIs(t, err, discovery.ErrSourceUnavailable)

	after, err := os.ReadFile(filepath.Join(dir, "cache", "commands.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	var cached map[string]string
	require.NoError(t, json.Unmarshal(after, &cached))
	assert.Len(t, cached, 6)
}

// TestList_BadType rejects unknown handler types.
func TestList_BadType(t *testing.T) {
	cfg, _ := testConfig(t)

	_, err := run(t, "--config", cfg, "handlers:list", "--type", "event-handlers")
	assert.Error(t, err)
}

// TestUnsupportedStore checks the --store guard.
func TestUnsupportedStore(t *testing.T) {
	cfg, _ := testConfig(t)

	_, err := run(t, "--config", cfg, "--store", "memcached", "handlers:clear")
	assert.ErrorContains(t, err, `unsupported store "memcached"`)
}

// TestWatcher signals once for a burst of writes to a watched file.
func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "classmap.json")
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(watched, []byte("{}"), 0o644))

	w, err := newWatcher([]string{watched, ""}, 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := w.Run(ctx)

	require.NoError(t, os.WriteFile(other, []byte("{}"), 0o644))
	select {
	case <-changes:
		t.Fatal("unexpected signal for an unwatched file")
	case <-time.After(200 * time.Millisecond):
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(watched, []byte(`{"a": "b"}`), 0o644))
	}
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal")
	}
}
