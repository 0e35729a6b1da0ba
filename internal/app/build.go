package app

import (
    "errors"
    "fmt"
    "net/http"
    "time"

    "tickerquote/internal/config"
    "tickerquote/internal/httpx"
    "tickerquote/internal/quote"
    "tickerquote/internal/quote/chain"
    "tickerquote/internal/quote/netease"
    "tickerquote/internal/quote/ratelimit"
    "tickerquote/internal/quote/sina"
    "tickerquote/internal/quote/tencent"
    "tickerquote/internal/quote/yahoo"
)

// BuildChain wires the configured providers, each behind its rate limiter,
// into a fallback chain in the configured order.
func BuildChain(cfg config.Config, hc *httpx.Client) (*chain.Chain, error) {
    byName := make(map[string]quote.Provider, 4)

    if cfg.Providers.Yahoo.Enabled {
        opts := []yahoo.ChartAPIClientOption{
            yahoo.WithHTTPClient(hc.HTTP),
            yahoo.WithHeader(http.Header{"User-Agent": []string{hc.UserAgent}}),
        }
        if cfg.Providers.Yahoo.Endpoint != "" {
            opts = append(opts, yahoo.WithBaseURL(cfg.Providers.Yahoo.Endpoint))
        }
        client, err := yahoo.NewChartAPIClient(opts...)
        if err != nil {
            return nil, fmt.Errorf("yahoo client: %w", err)
        }
        byName["yfinance"] = wrap(yahoo.NewProvider(yahoo.Config{}, client), cfg.Providers.Yahoo)
    }
    if cfg.Providers.Tencent.Enabled {
        byName["tencent"] = wrap(tencent.New(tencent.Config{URL: cfg.Providers.Tencent.Endpoint}, hc), cfg.Providers.Tencent)
    }
    if cfg.Providers.Sina.Enabled {
        byName["sina"] = wrap(sina.New(sina.Config{URL: cfg.Providers.Sina.Endpoint}, hc), cfg.Providers.Sina)
    }
    if cfg.Providers.Netease.Enabled {
        byName["netease"] = wrap(netease.New(netease.Config{
            URL:     cfg.Providers.Netease.Endpoint,
            Timeout: time.Duration(cfg.Fetch.PerCallTimeoutSec) * time.Second,
        }), cfg.Providers.Netease)
    }

    ordered := make([]quote.Provider, 0, len(byName))
    for _, name := range cfg.Providers.Order {
        if p, ok := byName[name]; ok {
            ordered = append(ordered, p)
        }
    }
    if len(ordered) == 0 {
        return nil, errors.New("no providers enabled")
    }
    return chain.New("chain", time.Duration(cfg.Fetch.PerCallTimeoutSec)*time.Second, ordered...), nil
}

// wrap applies the provider's rate limiting. Prefer a token bucket with
// burst when RPM is set, otherwise use a min-interval gate.
func wrap(p quote.Provider, s config.ProviderSettings) quote.Provider {
    if s.MaxRequestsPerMinute > 0 {
        rate := float64(s.MaxRequestsPerMinute) / 60.0
        burst := s.Burst
        if burst <= 0 { burst = 1 }
        return &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(rate, burst)}
    }
    if s.MinRequestIntervalSec > 0 {
        return &ratelimit.MinInterval{P: p, Interval: time.Duration(s.MinRequestIntervalSec) * time.Second}
    }
    return p
}
