package config

import (
    "slices"
    "strings"
    "time"
)

// Rate limit key strategies.  The church component of a key is the caller's
// active church, so one congregation cannot drain another's budget.
const (
    KeyByIP              = "ip"
    KeyByUser            = "user"
    KeyByRoute           = "route"
    KeyByChurch          = "church"
    KeyByIPRoute         = "ip_route"
    KeyByUserRoute       = "user_route"
    KeyByIPUserRoute     = "ip_user_route"
    KeyByUserChurchRoute = "user_church_route"
)

var keyStrategies = []string{
    KeyByIP, KeyByUser, KeyByRoute, KeyByChurch,
    KeyByIPRoute, KeyByUserRoute, KeyByIPUserRoute, KeyByUserChurchRoute,
}

// RateLimitConfig configures the Redis token bucket in front of the API.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int           // bucket size
    RefillTokens   int           // tokens added every RefillInterval
    RefillInterval time.Duration
    TTL            time.Duration // idle buckets expire after this
    KeyStrategy    string
    Prefix         string
    Debug          bool // expose X-RateLimit-Key
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Out of range values are
// clamped rather than rejected.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", KeyByUserChurchRoute),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    return cfg.normalized()
}

func (c RateLimitConfig) normalized() RateLimitConfig {
    c.Capacity = max(c.Capacity, 1)
    c.RefillTokens = max(c.RefillTokens, 1)
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    // A bucket must outlive a few refills or it resets to full too early.
    c.TTL = max(c.TTL, 5*c.RefillInterval)

    c.KeyStrategy = strings.ToLower(c.KeyStrategy)
    if !slices.Contains(keyStrategies, c.KeyStrategy) {
        c.KeyStrategy = KeyByUserChurchRoute
    }
    return c
}
