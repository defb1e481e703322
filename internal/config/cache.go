package config

import (
	"time"
)

// CacheConfig controls the Redis response cache used on the public
// catalog routes. TTL is the entry lifetime; MaxBodyBytes caps the
// size of responses worth storing.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* environment variables with defaults.
// The short default TTL keeps unavailable-date feeds close to live
// while still absorbing catalog read bursts.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
