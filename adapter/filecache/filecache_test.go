package filecache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xcqrs/handlercache"
)

func newTestStore(t *testing.T) (*Store, Config) {
	dir := t.TempDir()
	cfg := Config{
		CommandHandlers: filepath.Join(dir, "cache", "command-handlers.json"),
		QueryHandlers:   filepath.Join(dir, "cache", "query-handlers.json"),
	}
	s, err := NewStore(cfg)
	require.NoError(t, err)
	return s, cfg
}

// TestStore_MissingFile reports nothing cached.
func TestStore_MissingFile(t *testing.T) {
	s, _ := newTestStore(t)

	m, ok, err := s.Load(context.Background(), handlercache.CommandHandlers)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, m)
}

// TestStore_RoundTrip saves and loads both maps into separate files.
func TestStore_RoundTrip(t *testing.T) {
	s, cfg := newTestStore(t)
	ctx := context.Background()

	cmds := map[string]string{
		`Monolith\Commands\UpdateUserCommand`: `Monolith\Modern\Application\Command\Handlers\UpdateUserHandler`,
		`Monolith\Commands\DeleteUserCommand`: `Monolith\Modern\Application\Command\Handlers\MethodLevelCommandHandler#handleDeleteUser`,
	}
	queries := map[string]string{`Monolith\Queries\GetUserQuery`: `Monolith\Legacy\Application\QueryHandler\GetUserQueryHandler`}

	require.NoError(t, s.Save(ctx, handlercache.CommandHandlers, cmds))
	require.NoError(t, s.Save(ctx, handlercache.QueryHandlers, queries))

	got, ok, err := s.Load(ctx, handlercache.CommandHandlers)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, cmds, got)

	got, ok, err = s.Load(ctx, handlercache.QueryHandlers)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, queries, got)

	assert.FileExists(t, cfg.CommandHandlers)
	assert.FileExists(t, cfg.QueryHandlers)

	entries, err := os.ReadDir(filepath.Dir(cfg.CommandHandlers))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

// TestStore_EmptyMapIsCached checks that an empty saved map still counts as cached.
func TestStore_EmptyMapIsCached(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, handlercache.QueryHandlers, nil))
	m, ok, err := s.Load(ctx, handlercache.QueryHandlers)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, m)
}

// TestStore_SortedOutput checks the file layout.
func TestStore_SortedOutput(t *testing.T) {
	s, cfg := newTestStore(t)
	require.NoError(t, s.Save(context.Background(), handlercache.CommandHandlers, map[string]string{"b": "B", "a": "A"}))

	data, err := os.ReadFile(cfg.CommandHandlers)
	require.NoError(t, err)
	out := string(data)
	assert.Less(t, strings.Index(out, `"a"`), strings.Index(out, `"b"`))
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

// TestStore_Clear removes files and tolerates missing ones.
func TestStore_Clear(t *testing.T) {
	s, cfg := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, handlercache.CommandHandlers, map[string]string{"a": "A"}))
	require.NoError(t, handlercache.ClearAll(ctx, s))
	assert.NoFileExists(t, cfg.CommandHandlers)
	assert.NoError(t, s.Clear(ctx, handlercache.CommandHandlers))
}

// TestStore_Corrupt reports decode errors.
func TestStore_Corrupt(t *testing.T) {
	s, cfg := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.QueryHandlers), 0o755))
	require.NoError(t, os.WriteFile(cfg.QueryHandlers, []byte("{not json"), 0o644))

	_, _, err := s.Load(context.Background(), handlercache.QueryHandlers)
	assert.Error(t, err)
}

// TestStore_InvalidHandlerType checks fail-fast validation.
func TestStore_InvalidHandlerType(t *testing.T) {
	s, _ := newTestStore(t)
	_, _, err := s.Load(context.Background(), "events")
	assert.ErrorIs(t, err, handlercache.ErrInvalidHandlerType)
}

// TestConfig checks defaults, map parsing and validation.
func TestConfig(t *testing.T) {
	assert.Equal(t, Defaults(), ConfigFromMap(nil))
	c := ConfigFromMap(map[string]any{"command_handlers": "c.json", "query_handlers": "q.json"})
	assert.Equal(t, Config{CommandHandlers: "c.json", QueryHandlers: "q.json"}, c)

	_, err := NewStore(Config{CommandHandlers: "x.json", QueryHandlers: "./x.json"})
	assert.Error(t, err)

	bad, err := handlercache.NewStore(StoreName, map[string]any{"command_handlers": "x.json", "query_handlers": "./x.json"})
	assert.Error(t, err)
	// assert.Nil also accepts a typed nil pointer inside the interface.
	assert.True(t, bad == nil)

	st, err := handlercache.NewStore(StoreName, map[string]any{"command_handlers": "c.json", "query_handlers": "q.json"})
	require.NoError(t, err)
	assert.IsType(t, &Store{}, st)
}
