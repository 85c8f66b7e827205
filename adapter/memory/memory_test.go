package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xcqrs/handlercache"
)

// TestStore_CopiesMaps checks that callers cannot mutate stored maps.
func TestStore_CopiesMaps(t *testing.T) {
	s := NewStore(Config{})
	ctx := context.Background()

	in := map[string]string{"a": "A"}
	require.NoError(t, s.Save(ctx, handlercache.CommandHandlers, in))
	in["b"] = "B"

	got, ok, err := s.Load(ctx, handlercache.CommandHandlers)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"a": "A"}, got)

	got["c"] = "C"
	again, _, _ := s.Load(ctx, handlercache.CommandHandlers)
	assert.Len(t, again, 1)
}

// TestStore_Clear checks that cleared maps are gone.
func TestStore_Clear(t *testing.T) {
	s := NewStore(Config{})
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, handlercache.QueryHandlers, nil))
	_, ok, _ := s.Load(ctx, handlercache.QueryHandlers)
	assert.True(t, ok)

	require.NoError(t, s.Clear(ctx, handlercache.QueryHandlers))
	_, ok, _ = s.Load(ctx, handlercache.QueryHandlers)
	assert.False(t, ok)
}

// TestStore_TTL checks expiry.
func TestStore_TTL(t *testing.T) {
	s := NewStore(Config{TTL: 20 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, handlercache.CommandHandlers, map[string]string{"a": "A"}))
	assert.Eventually(t, func() bool {
		_, ok, _ := s.Load(ctx, handlercache.CommandHandlers)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

// TestConfigFromMap checks ttl parsing.
func TestConfigFromMap(t *testing.T) {
	assert.Equal(t, Config{}, ConfigFromMap(nil))
	assert.Equal(t, time.Minute, ConfigFromMap(map[string]any{"ttl": "1m"}).TTL)
	assert.Equal(t, time.Second, ConfigFromMap(map[string]any{"ttl": time.Second}).TTL)
	assert.Equal(t, time.Duration(0), ConfigFromMap(map[string]any{"ttl": "-1s"}).TTL)

	st, err := handlercache.NewStore(StoreName, nil)
	require.NoError(t, err)
	assert.IsType(t, &Store{}, st)
}
