package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// replayTTL outlives the verification service's own token lifetime (two minutes).
const replayTTL = 5 * time.Minute

// ReplayGuard records captcha tokens in Redis so each one is accepted once.
// Key format: captcha:used:<sha256(token)>
type ReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReplayGuard creates a ReplayGuard wrapping the given Redis client.
func NewReplayGuard(client *redis.Client) *ReplayGuard {
	return &ReplayGuard{client: client, ttl: replayTTL}
}

// Claim atomically marks token as used and reports whether it was unused before.
func (g *ReplayGuard) Claim(ctx context.Context, token string) (bool, error) {
	fresh, err := g.client.SetNX(ctx, key(token), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim captcha token: %w", err)
	}
	return fresh, nil
}

// Ping satisfies the readiness check.
func (g *ReplayGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// key never stores the raw token.
func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "captcha:used:" + hex.EncodeToString(sum[:])
}
