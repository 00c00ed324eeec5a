package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/webgate/authportal/internal/core/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var alice = domain.Identity{Username: "alice", Email: "a@x.com"}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager(cfg Config) (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	m := NewManager(cfg, zerolog.Nop())
	m.now = clock.Now
	return m, clock
}

func TestManager_CreateValidateDestroy(t *testing.T) {
	m, _ := newManager(Config{})

	token, err := m.Create(alice)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	got, ok := m.Validate(token)
	require.True(t, ok)
	assert.Equal(t, alice, got)

	m.Destroy(token)
	_, ok = m.Validate(token)
	assert.False(t, ok)

	// Destroy is idempotent.
	assert.NotPanics(t, func() { m.Destroy(token) })
	assert.NotPanics(t, func() { m.Destroy("") })
	assert.Equal(t, 0, m.Len())
}

func TestManager_TokensAreUniqueAndOpaque(t *testing.T) {
	m, _ := newManager(Config{})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, err := m.Create(alice)
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token")
		assert.NotContains(t, token, alice.Email)
		assert.Len(t, token, 43) // 32 bytes, unpadded base64url
		seen[token] = true
	}
}

func TestManager_UnknownToken(t *testing.T) {
	m, _ := newManager(Config{})

	_, ok := m.Validate("")
	assert.False(t, ok)
	_, ok = m.Validate("nope")
	assert.False(t, ok)
}

func TestManager_AbsoluteTTL(t *testing.T) {
	m, clock := newManager(Config{TTL: time.Hour})

	token, err := m.Create(alice)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, ok := m.Validate(token)
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = m.Validate(token)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len(), "expired session is removed on lookup")
}

func TestManager_IdleTimeout(t *testing.T) {
	m, clock := newManager(Config{IdleTimeout: 10 * time.Minute})

	token, err := m.Create(alice)
	require.NoError(t, err)

	// Activity keeps the session alive past the idle window.
	for i := 0; i < 5; i++ {
		clock.Advance(9 * time.Minute)
		_, ok := m.Validate(token)
		require.True(t, ok)
	}

	clock.Advance(10 * time.Minute)
	_, ok := m.Validate(token)
	assert.False(t, ok)
}

func TestManager_NoExpiryWhenDisabled(t *testing.T) {
	m, clock := newManager(Config{})

	token, err := m.Create(alice)
	require.NoError(t, err)

	clock.Advance(365 * 24 * time.Hour)
	_, ok := m.Validate(token)
	assert.True(t, ok)
}

func TestManager_NegativeSelectsDefaults(t *testing.T) {
	m := NewManager(Config{TTL: -1, IdleTimeout: -1}, zerolog.Nop())
	assert.Equal(t, DefaultTTL, m.TTL())
	assert.Equal(t, DefaultIdleTimeout, m.idle)
	assert.Equal(t, DefaultSweepInterval, m.sweep)
}

func TestManager_Sweep(t *testing.T) {
	m, clock := newManager(Config{TTL: time.Hour})

	old, err := m.Create(alice)
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	fresh, err := m.Create(alice)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	_, ok := m.Validate(old)
	assert.False(t, ok)
	_, ok = m.Validate(fresh)
	assert.True(t, ok)
}

func TestManager_RunStopsWithContext(t *testing.T) {
	m := NewManager(Config{TTL: time.Millisecond, SweepInterval: 5 * time.Millisecond}, zerolog.Nop())
	_, err := m.Create(alice)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m, _ := newManager(Config{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := m.Create(alice)
			if err != nil {
				t.Error(err)
				return
			}

			// Validate and Destroy race on the same token; Validate must
			// either see the full identity or nothing.
			var inner sync.WaitGroup
			inner.Add(2)
			go func() {
				defer inner.Done()
				if id, ok := m.Validate(token); ok && id != alice {
					t.Errorf("torn read: %+v", id)
				}
			}()
			go func() {
				defer inner.Done()
				m.Destroy(token)
			}()
			inner.Wait()

			if _, ok := m.Validate(token); ok {
				t.Error("session survived Destroy")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Len())
}
