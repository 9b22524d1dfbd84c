// Package gate restricts the bot to members of a required channel.
package gate

import (
	"context"
	"log/slog"
	"time"
)

// DenialMessage is sent as HTML when the gate turns a user away.
const DenialMessage = "🚨 <b>MUST JOIN OUR CHANNEL</b>\nJoin first, then message me again."

// Checker resolves a user's membership status in a channel. The telegram
// adapter implements it; status values follow the Bot API ("member",
// "administrator", "creator", "left", "kicked", ...).
type Checker interface {
	CheckMembership(ctx context.Context, channel, userID string) (string, error)
}

// VerdictCache remembers recent allow verdicts. Only allows are ever
// cached; a miss or a cache error both mean the caller re-checks.
type VerdictCache interface {
	GetAllow(ctx context.Context, channel, userID string) (bool, error)
	SetAllow(ctx context.Context, channel, userID string, ttl time.Duration) error
}

// Gate decides whether a user may talk to the bot. Any lookup failure
// denies: the gate fails closed.
type Gate struct {
	channel  string
	checker  Checker
	cache    VerdictCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// New creates a gate for the given channel. An empty channel disables the
// gate entirely.
func New(channel string, checker Checker, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{channel: channel, checker: checker, logger: logger}
}

// SetCache attaches a verdict cache. A non-positive ttl falls back to
// DefaultCacheTTL.
func (g *Gate) SetCache(cache VerdictCache, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	g.cache = cache
	g.cacheTTL = ttl
}

// Configured reports whether a required channel is set.
func (g *Gate) Configured() bool {
	return g.channel != ""
}

// Channel returns the normalized required-channel identifier.
func (g *Gate) Channel() string {
	return g.channel
}

// Allowed reports whether the user may use the bot. With no channel
// configured everyone passes. Statuses member, administrator and creator
// pass; everything else is denied, including lookup errors. Errors are
// logged at warn level so a bot that lost admin rights on the channel is
// distinguishable from genuine non-members.
func (g *Gate) Allowed(ctx context.Context, userID string) bool {
	if g.channel == "" {
		return true
	}

	if g.cache != nil {
		ok, err := g.cache.GetAllow(ctx, g.channel, userID)
		if err != nil {
			g.logger.Debug("verdict cache read failed", "error", err)
		} else if ok {
			return true
		}
	}

	if g.checker == nil {
		g.logger.Warn("membership check unavailable, denying",
			"channel", g.channel, "user_id", userID)
		return false
	}

	status, err := g.checker.CheckMembership(ctx, g.channel, userID)
	if err != nil {
		g.logger.Warn("membership check failed, denying",
			"channel", g.channel, "user_id", userID, "error", err)
		return false
	}

	switch status {
	case "member", "administrator", "creator":
		if g.cache != nil {
			if err := g.cache.SetAllow(ctx, g.channel, userID, g.cacheTTL); err != nil {
				g.logger.Debug("verdict cache write failed", "error", err)
			}
		}
		return true
	}

	return false
}
