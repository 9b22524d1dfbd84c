package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	status string
	err    error
	calls  int
}

func (f *fakeChecker) CheckMembership(ctx context.Context, channel, userID string) (string, error) {
	f.calls++
	return f.status, f.err
}

type fakeCache struct {
	allows map[string]bool
	getErr error
	setErr error
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{allows: make(map[string]bool)}
}

func (f *fakeCache) GetAllow(ctx context.Context, channel, userID string) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	return f.allows[channel+"/"+userID], nil
}

func (f *fakeCache) SetAllow(ctx context.Context, channel, userID string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.allows[channel+"/"+userID] = true
	return nil
}

func TestAllowedNoChannelConfigured(t *testing.T) {
	checker := &fakeChecker{status: "left"}
	g := New("", checker, nil)

	assert.True(t, g.Allowed(context.Background(), "42"))
	assert.Equal(t, 0, checker.calls, "no gate means no lookup at all")
	assert.False(t, g.Configured())
}

func TestAllowedByStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"member", true},
		{"administrator", true},
		{"creator", true},
		{"left", false},
		{"kicked", false},
		{"restricted", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("status "+tt.status, func(t *testing.T) {
			g := New("@channel", &fakeChecker{status: tt.status}, nil)
			got := g.Allowed(context.Background(), "42")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowedFailsClosed(t *testing.T) {
	g := New("@channel", &fakeChecker{err: errors.New("api timeout")}, nil)
	assert.False(t, g.Allowed(context.Background(), "42"))

	// A configured channel with no checker wired also denies.
	g = New("@channel", nil, nil)
	assert.False(t, g.Allowed(context.Background(), "42"))
}

func TestAllowedCacheHitSkipsChecker(t *testing.T) {
	checker := &fakeChecker{status: "member"}
	cache := newFakeCache()
	cache.allows["@channel/42"] = true

	g := New("@channel", checker, nil)
	g.SetCache(cache, time.Minute)

	assert.True(t, g.Allowed(context.Background(), "42"))
	assert.Equal(t, 0, checker.calls)
}

func TestAllowedPopulatesCacheOnAllow(t *testing.T) {
	checker := &fakeChecker{status: "member"}
	cache := newFakeCache()

	g := New("@channel", checker, nil)
	g.SetCache(cache, time.Minute)

	require.True(t, g.Allowed(context.Background(), "42"))
	assert.Equal(t, 1, cache.sets)

	// Second call is served from the cache.
	require.True(t, g.Allowed(context.Background(), "42"))
	assert.Equal(t, 1, checker.calls)
}

func TestAllowedNeverCachesDenials(t *testing.T) {
	checker := &fakeChecker{status: "left"}
	cache := newFakeCache()

	g := New("@channel", checker, nil)
	g.SetCache(cache, time.Minute)

	require.False(t, g.Allowed(context.Background(), "42"))
	assert.Equal(t, 0, cache.sets)

	// The user joins; the next message re-checks and passes.
	checker.status = "member"
	assert.True(t, g.Allowed(context.Background(), "42"))
}

func TestAllowedCacheErrorsFallThrough(t *testing.T) {
	checker := &fakeChecker{status: "member"}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")

	g := New("@channel", checker, nil)
	g.SetCache(cache, time.Minute)

	assert.True(t, g.Allowed(context.Background(), "42"))
	assert.Equal(t, 1, checker.calls, "cache failure degrades to a direct check")
}
