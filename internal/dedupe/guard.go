// Package dedupe suppresses accidental double submissions with a short-lived
// Redis fingerprint. The guard is best-effort: a Redis outage never blocks
// booking creation.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jcelest/orange-medical-transport/pkg/logging"
)

// Guard remembers recent booking fingerprints for a configured window.
type Guard struct {
	client *redis.Client
	window time.Duration
	logger *logging.Logger
}

// NewGuard returns nil when client is nil or the window is non-positive,
// which disables deduplication entirely.
func NewGuard(client *redis.Client, window time.Duration, logger *logging.Logger) *Guard {
	if client == nil || window <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Guard{client: client, window: window, logger: logger}
}

// Fingerprint derives a stable key from the fields that identify a
// submission: who, when. Case and surrounding whitespace are ignored.
func Fingerprint(phone, date, timeOfDay string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	sum := sha256.Sum256([]byte(norm(phone) + "|" + norm(date) + "|" + norm(timeOfDay)))
	return "booking:fp:" + hex.EncodeToString(sum[:])
}

// Seen reports whether the fingerprint was recorded inside the window, and
// the booking id it was recorded for. Errors are logged and treated as
// not-seen.
func (g *Guard) Seen(ctx context.Context, fingerprint string) (string, bool) {
	if g == nil {
		return "", false
	}
	id, err := g.client.Get(ctx, fingerprint).Result()
	if err != nil {
		if err != redis.Nil {
			g.logger.Warn("dedupe lookup failed", "error", err)
		}
		return "", false
	}
	return id, true
}

// Remember records the fingerprint for the guard's window. Best-effort.
func (g *Guard) Remember(ctx context.Context, fingerprint, bookingID string) {
	if g == nil {
		return
	}
	if err := g.client.SetNX(ctx, fingerprint, bookingID, g.window).Err(); err != nil {
		g.logger.Warn("dedupe record failed", "error", err)
	}
}
