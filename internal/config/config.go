package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"

    "github.com/go-playground/validator/v10"
)

type Server struct {
    Port              string `json:"port" validate:"required"`
    RequestTimeoutSec int    `json:"request_timeout_sec" validate:"gt=0"`
}

type Catalog struct {
    SnapshotFile string `json:"snapshot_file" validate:"required"`
}

type Cache struct {
    File           string `json:"file" validate:"required"`
    FreshnessHours int    `json:"freshness_hours" validate:"gt=0"`
}

type Matching struct {
    PrefixMinRatio   float64 `json:"prefix_min_ratio" validate:"gt=0,lte=1"`
    TokenMinJaccard  float64 `json:"token_min_jaccard" validate:"gt=0,lte=1"`
    FuzzyMaxDistance float64 `json:"fuzzy_max_distance" validate:"gt=0,lt=1"`
    MaxCandidates    int     `json:"max_candidates"`
}

type Fetch struct {
    Workers           int `json:"workers" validate:"gt=0"`
    PerCallTimeoutSec int `json:"per_call_timeout_sec" validate:"gt=0"`
}

// ProviderSettings is the shared per-provider knob set. Chain order follows
// Providers.Order, not struct layout.
type ProviderSettings struct {
    Enabled               bool   `json:"enabled"`
    Endpoint              string `json:"endpoint"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
}

type Providers struct {
    // Order is the fallback order the chain walks on a cache miss.
    Order   []string         `json:"order" validate:"min=1"`
    Yahoo   ProviderSettings `json:"yahoo"`
    Tencent ProviderSettings `json:"tencent"`
    Sina    ProviderSettings `json:"sina"`
    Netease ProviderSettings `json:"netease"`
}

type Config struct {
    Server    Server    `json:"server"`
    Catalog   Catalog   `json:"catalog"`
    Cache     Cache     `json:"cache"`
    Matching  Matching  `json:"matching"`
    Fetch     Fetch     `json:"fetch"`
    Providers Providers `json:"providers"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 30},
        Catalog: Catalog{
            SnapshotFile: "data/catalog.json",
        },
        Cache: Cache{
            File:           "data/quote_cache.json",
            FreshnessHours: 24,
        },
        Matching: Matching{
            PrefixMinRatio:   0.6,
            TokenMinJaccard:  0.5,
            FuzzyMaxDistance: 0.3,
            MaxCandidates:    5,
        },
        Fetch: Fetch{
            Workers:           5,
            PerCallTimeoutSec: 10,
        },
        Providers: Providers{
            Order:   []string{"yfinance", "tencent", "sina", "netease"},
            Yahoo:   ProviderSettings{Enabled: true, MaxRequestsPerMinute: 60, Burst: 5},
            Tencent: ProviderSettings{Enabled: true, MinRequestIntervalSec: 1},
            Sina:    ProviderSettings{Enabled: true, MinRequestIntervalSec: 1},
            Netease: ProviderSettings{Enabled: true, MinRequestIntervalSec: 1},
        },
    }
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    if err := validator.New().Struct(cfg); err != nil {
        return cfg, fmt.Errorf("validate config: %w", err)
    }
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("CATALOG_FILE"); v != "" { cfg.Catalog.SnapshotFile = v }
    if v := os.Getenv("QUOTE_CACHE_FILE"); v != "" { cfg.Cache.File = v }
    if v := os.Getenv("QUOTE_FRESHNESS_HOURS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.FreshnessHours = x }
    }
    if v := os.Getenv("FETCH_WORKERS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Fetch.Workers = x }
    }
    if v := os.Getenv("FETCH_PER_CALL_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Fetch.PerCallTimeoutSec = x }
    }
    if v := os.Getenv("PROVIDER_ORDER"); v != "" { cfg.Providers.Order = splitCSV(v) }

    applyProviderEnv("YAHOO", &cfg.Providers.Yahoo)
    applyProviderEnv("TENCENT", &cfg.Providers.Tencent)
    applyProviderEnv("SINA", &cfg.Providers.Sina)
    applyProviderEnv("NETEASE", &cfg.Providers.Netease)
}

func applyProviderEnv(prefix string, p *ProviderSettings) {
    if v := os.Getenv(prefix + "_ENABLED"); v != "" {
        switch strings.ToLower(v) {
        case "1", "true", "yes", "y": p.Enabled = true
        case "0", "false", "no", "n": p.Enabled = false
        }
    }
    if v := os.Getenv(prefix + "_ENDPOINT"); v != "" { p.Endpoint = v }
    if v := os.Getenv(prefix + "_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { p.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv(prefix + "_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { p.MinRequestIntervalSec = x }
    }
    if v := os.Getenv(prefix + "_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { p.Burst = x }
    }
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}
