package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestLoadCacheConfig_Defaults(t *testing.T) {
    cfg := LoadCacheConfig()

    assert.True(t, cfg.Enabled)
    assert.True(t, cfg.Methods["GET"])
    assert.False(t, cfg.Methods["POST"])
    assert.Equal(t, 30*time.Second, cfg.TTL)
    assert.Equal(t, "route_query", cfg.KeyStrategy)
    assert.Equal(t, "cache", cfg.Prefix)
    assert.Equal(t, 1048576, cfg.MaxBodyBytes)
}

func TestLoadCacheConfig_FromEnv(t *testing.T) {
    t.Setenv("CACHE_ENABLED", "false")
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("CACHE_TTL", "2m")
    t.Setenv("CACHE_KEY_STRATEGY", "method_route")

    cfg := LoadCacheConfig()

    assert.False(t, cfg.Enabled)
    assert.True(t, cfg.Methods["GET"], "methods are upper-cased and trimmed")
    assert.True(t, cfg.Methods["HEAD"])
    assert.Equal(t, 2*time.Minute, cfg.TTL)
    assert.Equal(t, "method_route", cfg.KeyStrategy)
}

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
    cfg := LoadRateLimitConfig()

    assert.True(t, cfg.Enabled)
    assert.Equal(t, 60, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, time.Second, cfg.RefillInterval)
    assert.Equal(t, 10*time.Minute, cfg.TTL)
    assert.Equal(t, "ip_user_route", cfg.KeyStrategy)
}

func TestLoadRateLimitConfig_BurstAndRefillShorthand(t *testing.T) {
    t.Setenv("RATE_LIMIT_BURST", "5")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "250ms")

    cfg := LoadRateLimitConfig()

    assert.Equal(t, 5, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, 250*time.Millisecond, cfg.RefillInterval)
}

func TestLoadRateLimitConfig_ClampsInvalidValues(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-2")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")

    cfg := LoadRateLimitConfig()

    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    // TTL must cover several refill intervals or bucket state expires mid-flight.
    assert.Equal(t, 50*time.Second, cfg.TTL)
}
