package config

import "time"

// ClientConfig configures API consumers such as churchctl.
type ClientConfig struct {
    APIURL        string        // base URL of the church API
    Timeout       time.Duration // per-request timeout
    ResourceStale time.Duration // freshness window of tenant scoped queries
    CacheSize     int           // max entries held by the query cache
    TokenFile     string        // where churchctl persists its token pair
}

// LoadClientConfig reads the CHURCH_* variables.
func LoadClientConfig() ClientConfig {
    cfg := ClientConfig{
        APIURL:        envStr("CHURCH_API_URL", "http://localhost:8080"),
        Timeout:       envDur("CHURCH_API_TIMEOUT", 10*time.Second),
        ResourceStale: envDur("CHURCH_RESOURCE_STALE", 5*time.Minute),
        CacheSize:     envInt("CHURCH_QUERY_CACHE_SIZE", 512),
        TokenFile:     envStr("CHURCH_TOKEN_FILE", ""),
    }
    if cfg.CacheSize < 1 {
        cfg.CacheSize = 512
    }
    if cfg.ResourceStale < 0 {
        cfg.ResourceStale = 0
    }
    return cfg
}
