package config

import (
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
    cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
    require.NoError(t, err)
    require.Equal(t, "8080", cfg.Server.Port)
    require.Equal(t, 24, cfg.Cache.FreshnessHours)
    require.Equal(t, 5, cfg.Fetch.Workers)
    require.Equal(t, []string{"yfinance", "tencent", "sina", "netease"}, cfg.Providers.Order)
    require.True(t, cfg.Providers.Yahoo.Enabled)
    require.Equal(t, 60, cfg.Providers.Yahoo.MaxRequestsPerMinute)
}

func TestLoad_FileOverrides(t *testing.T) {
    path := filepath.Join(t.TempDir(), "config.json")
    body := `{
        "server": {"port": "9090", "request_timeout_sec": 20},
        "fetch": {"workers": 3, "per_call_timeout_sec": 5},
        "providers": {"order": ["tencent", "sina"], "yahoo": {"enabled": false}}
    }`
    require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

    cfg, err := Load(path)
    require.NoError(t, err)
    require.Equal(t, "9090", cfg.Server.Port)
    require.Equal(t, 3, cfg.Fetch.Workers)
    require.Equal(t, []string{"tencent", "sina"}, cfg.Providers.Order)
    require.False(t, cfg.Providers.Yahoo.Enabled)
    // untouched sections keep defaults
    require.Equal(t, 0.6, cfg.Matching.PrefixMinRatio)
}

func TestLoad_EnvOverrides(t *testing.T) {
    t.Setenv("PORT", "7070")
    t.Setenv("FETCH_WORKERS", "8")
    t.Setenv("PROVIDER_ORDER", "sina, tencent")
    t.Setenv("YAHOO_ENABLED", "false")
    t.Setenv("TENCENT_MIN_INTERVAL_SEC", "2")

    cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
    require.NoError(t, err)
    require.Equal(t, "7070", cfg.Server.Port)
    require.Equal(t, 8, cfg.Fetch.Workers)
    require.Equal(t, []string{"sina", "tencent"}, cfg.Providers.Order)
    require.False(t, cfg.Providers.Yahoo.Enabled)
    require.Equal(t, 2, cfg.Providers.Tencent.MinRequestIntervalSec)
}

func TestLoad_InvalidRejected(t *testing.T) {
    path := filepath.Join(t.TempDir(), "config.json")
    require.NoError(t, os.WriteFile(path, []byte(`{"matching": {"prefix_min_ratio": 1.5}}`), 0o644))

    _, err := Load(path)
    require.Error(t, err)
}

func TestLoad_MalformedJSON(t *testing.T) {
    path := filepath.Join(t.TempDir(), "config.json")
    require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))

    _, err := Load(path)
    require.Error(t, err)
}
