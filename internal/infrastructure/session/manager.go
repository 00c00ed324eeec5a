// Package session keeps authenticated browser sessions in process memory.
//
// Tokens are 32 random bytes handed to the client; the table is keyed by the
// token's SHA-256 so a dump of the table cannot be replayed as cookies.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/pkg/metrics"
)

const tokenBytes = 32

// Defaults used when Config leaves a field unset.
const (
	DefaultTTL           = 12 * time.Hour
	DefaultIdleTimeout   = time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

// Config bounds session lifetime. A zero TTL or IdleTimeout disables that
// bound; a negative value selects the default.
type Config struct {
	TTL           time.Duration
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

type entry struct {
	identity  domain.Identity
	createdAt time.Time
	lastSeen  time.Time
}

// Manager issues, validates and destroys sessions. All operations on the
// table take one mutex, so a Destroy racing a Validate for the same token
// either happens before it (Validate misses) or after it (Validate hits).
type Manager struct {
	mu       sync.Mutex
	sessions map[[sha256.Size]byte]*entry

	ttl   time.Duration
	idle  time.Duration
	sweep time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

func NewManager(cfg Config, log zerolog.Logger) *Manager {
	m := &Manager{
		sessions: make(map[[sha256.Size]byte]*entry),
		ttl:      cfg.TTL,
		idle:     cfg.IdleTimeout,
		sweep:    cfg.SweepInterval,
		now:      time.Now,
		log:      log,
	}
	if m.ttl < 0 {
		m.ttl = DefaultTTL
	}
	if m.idle < 0 {
		m.idle = DefaultIdleTimeout
	}
	if m.sweep <= 0 {
		m.sweep = DefaultSweepInterval
	}
	return m
}

// TTL returns the absolute session lifetime, zero when unbounded.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create mints a token bound to identity.
func (m *Manager) Create(identity domain.Identity) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := m.now()
	m.mu.Lock()
	m.sessions[sha256.Sum256([]byte(token))] = &entry{identity: identity, createdAt: now, lastSeen: now}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	return token, nil
}

// Validate returns the identity bound to token. Unknown or expired tokens
// yield false; expired ones are removed. A hit refreshes the idle clock.
func (m *Manager) Validate(token string) (domain.Identity, bool) {
	if token == "" {
		return domain.Identity{}, false
	}
	key := sha256.Sum256([]byte(token))
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[key]
	if !ok {
		return domain.Identity{}, false
	}
	if m.expired(e, now) {
		delete(m.sessions, key)
		metrics.SessionsExpiredTotal.Inc()
		metrics.SessionsActive.Set(float64(len(m.sessions)))
		return domain.Identity{}, false
	}
	e.lastSeen = now
	return e.identity, true
}

// Destroy removes the session. Destroying an unknown token is a no-op.
func (m *Manager) Destroy(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	delete(m.sessions, sha256.Sum256([]byte(token)))
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
}

// Len returns the number of sessions currently held, expired ones included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run sweeps expired sessions every SweepInterval until ctx is done.
// Nothing to do when neither bound is set.
func (m *Manager) Run(ctx context.Context) {
	if m.ttl == 0 && m.idle == 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.Debug().Int("removed", n).Msg("expired sessions swept")
			}
		}
	}
}

// Sweep removes expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	removed := 0
	for key, e := range m.sessions {
		if m.expired(e, now) {
			delete(m.sessions, key)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		metrics.SessionsExpiredTotal.Add(float64(removed))
	}
	metrics.SessionsActive.Set(float64(n))
	return removed
}

func (m *Manager) expired(e *entry, now time.Time) bool {
	if m.ttl > 0 && now.Sub(e.createdAt) >= m.ttl {
		return true
	}
	if m.idle > 0 && now.Sub(e.lastSeen) >= m.idle {
		return true
	}
	return false
}
