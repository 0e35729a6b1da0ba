package app

import (
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "tickerquote/internal/config"
    "tickerquote/internal/httpx"
)

func TestBuildChain_DefaultOrder(t *testing.T) {
    c, err := BuildChain(config.Default(), httpx.New(2*time.Second))
    require.NoError(t, err)
    require.Equal(t, 4, c.Len())
}

func TestBuildChain_DisabledProvidersSkipped(t *testing.T) {
    cfg := config.Default()
    cfg.Providers.Yahoo.Enabled = false
    cfg.Providers.Netease.Enabled = false

    c, err := BuildChain(cfg, httpx.New(2*time.Second))
    require.NoError(t, err)
    require.Equal(t, 2, c.Len())
}

func TestBuildChain_OrderFiltersUnknownNames(t *testing.T) {
    cfg := config.Default()
    cfg.Providers.Order = []string{"tencent", "nonsense"}

    c, err := BuildChain(cfg, httpx.New(2*time.Second))
    require.NoError(t, err)
    require.Equal(t, 1, c.Len())
}

func TestBuildChain_NoneEnabled(t *testing.T) {
    cfg := config.Default()
    cfg.Providers.Yahoo.Enabled = false
    cfg.Providers.Tencent.Enabled = false
    cfg.Providers.Sina.Enabled = false
    cfg.Providers.Netease.Enabled = false

    _, err := BuildChain(cfg, httpx.New(2*time.Second))
    require.Error(t, err)
}
