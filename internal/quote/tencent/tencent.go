package tencent

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

// Provider fetches quotes from the Tencent stock endpoint (qt.gtimg.cn).
// The payload is a GBK-encoded assignment line with '~'-separated fields.
type Provider struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
    if cfg.Name == "" { cfg.Name = "tencent" }
    if cfg.URL == "" { cfg.URL = "https://qt.gtimg.cn/q=" }
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
    resp, err := p.client.Do(ctx, req)
    if err != nil {
        return quote.Quote{}, err
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return quote.Quote{}, fmt.Errorf("tencent: GET %s -> %d", p.cfg.URL+sym, resp.StatusCode)
    }
    // Response is GBK encoded
    body, err := io.ReadAll(transform.NewReader(io.LimitReader(resp.Body, 64<<10), simplifiedchinese.GBK.NewDecoder()))
    if err != nil {
        return quote.Quote{}, fmt.Errorf("tencent: decode: %w", err)
    }
    price, err := parsePayload(string(body))
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

// symbol maps an exchange-qualified ticker to Tencent's query symbol:
// sh600519 / sz000001 / hk00700 / AAPL.
func symbol(ticker string) (string, error) {
    switch {
    case quote.IsA(ticker):
        code := quote.Code(ticker)
        if strings.HasSuffix(ticker, ".SH") {
            return "sh" + code, nil
        }
        return "sz" + code, nil
    case quote.IsHK(ticker):
        return "hk" + pad5(quote.Code(ticker)), nil
    case quote.IsUS(ticker):
        return strings.ToUpper(ticker), nil
    default:
        return "", fmt.Errorf("tencent: unsupported ticker %q: %w", ticker, quote.ErrNotFound)
    }
}

// parsePayload extracts the current price from a line shaped like
// v_sh600519="1~贵州茅台~600519~1680.00~...";
func parsePayload(body string) (string, error) {
    body = strings.TrimSpace(body)
    if body == "" || !strings.Contains(body, "~") {
        return "", quote.ErrNotFound
    }
    parts := strings.Split(body, "\"")
    if len(parts) < 2 {
        return "", fmt.Errorf("tencent: malformed payload: %w", quote.ErrNotFound)
    }
    fields := strings.Split(parts[1], "~")
    if len(fields) < 4 {
        return "", fmt.Errorf("tencent: short payload (%d fields): %w", len(fields), quote.ErrNotFound)
    }
    price, err := quote.ParsePrice(fields[3])
    if err != nil {
        return "", fmt.Errorf("tencent: price %q: %w", fields[3], err)
    }
    return price, nil
}

func pad5(code string) string {
    for len(code) < 5 {
        code = "0" + code
    }
    return code
}
