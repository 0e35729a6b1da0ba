package sina

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "golang.org/x/text/encoding/simplifiedchinese"
    "golang.org/x/text/transform"

    "tickerquote/internal/httpx"
    "tickerquote/internal/quote"
)

type Config struct {
    Name string
    URL  string
}

// Provider fetches quotes from the Sina finance endpoint (hq.sinajs.cn).
// The payload is GBK encoded; A-share and HK rows use different field
// layouts. US symbols are not served here.
type Provider struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
    if cfg.Name == "" { cfg.Name = "sina" }
    if cfg.URL == "" { cfg.URL = "https://hq.sinajs.cn/list=" }
    return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Fetch(ctx context.Context, ticker string) (quote.Quote, error) {
    sym, err := symbol(ticker)
    if err != nil {
        return quote.Quote{}, err
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+sym, http.NoBody)
    if err != nil {
        return quote.Quote{}, err
    }
    // Sina rejects requests without a finance.sina.com.cn referer.
    req.Header.Set("Referer", "https://finance.sina.com.cn")
    resp, err := p.client.Do(ctx, req)
    if err != nil {
        return quote.Quote{}, err
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return quote.Quote{}, fmt.Errorf("sina: GET %s -> %d", p.cfg.URL+sym, resp.StatusCode)
    }
    body, err := io.ReadAll(transform.NewReader(io.LimitReader(resp.Body, 64<<10), simplifiedchinese.GBK.NewDecoder()))
    if err != nil {
        return quote.Quote{}, fmt.Errorf("sina: decode: %w", err)
    }
    price, err := parsePayload(string(body), sym)
    if err != nil {
        return quote.Quote{}, err
    }
    return quote.Quote{
        Ticker:    ticker,
        Price:     price,
        Currency:  quote.CurrencySymbol(ticker),
        Source:    p.cfg.Name,
        FetchedAt: time.Now().UTC(),
    }, nil
}

// symbol maps a ticker to Sina's query symbol: sh600519 / sz000001 / rt_hk00700.
func symbol(ticker string) (string, error) {
    switch {
    case quote.IsA(ticker):
        code := quote.Code(ticker)
        if strings.HasSuffix(ticker, ".SH") {
            return "sh" + code, nil
        }
        return "sz" + code, nil
    case quote.IsHK(ticker):
        code := quote.Code(ticker)
        for len(code) < 5 {
            code = "0" + code
        }
        return "rt_hk" + code, nil
    default:
        return "", fmt.Errorf("sina: unsupported ticker %q: %w", ticker, quote.ErrNotFound)
    }
}

// parsePayload extracts the current price from a line shaped like
// var hq_str_sh600519="贵州茅台,1679.00,1675.00,1680.00,...";
// A-share rows carry the current price in field 3, HK rows in field 6.
func parsePayload(body, sym string) (string, error) {
    body = strings.TrimSpace(body)
    if body == "" || !strings.Contains(body, "var hq_str_") {
        return "", quote.ErrNotFound
    }
    parts := strings.Split(body, "\"")
    if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
        return "", quote.ErrNotFound
    }
    fields := strings.Split(parts[1], ",")
    idx := 3
    if strings.HasPrefix(sym, "rt_hk") {
        idx = 6
    }
    if len(fields) <= idx {
        return "", fmt.Errorf("sina: short payload (%d fields): %w", len(fields), quote.ErrNotFound)
    }
    price, err := quote.ParsePrice(fields[idx])
    if err != nil {
        return "", fmt.Errorf("sina: price %q: %w", fields[idx], err)
    }
    return price, nil
}
