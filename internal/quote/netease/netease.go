package netease

import (
    "context"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    "github.com/go-resty/resty/v2"

    "tickerquote/internal/httpx"
    "tickerquote/internal/quote"
)

type Config struct {
    Name    string
    URL     string
    Timeout time.Duration
}

// Provider fetches quotes from the NetEase feed (api.money.126.net).
// Only mainland A-shares are served; the payload is a JSONP callback
// wrapping a JSON object keyed by the prefixed code.
type Provider struct {
    cfg    Config
    client *resty.Client
}

func New(cfg Config) *Provider {
    if cfg.Name == "" { cfg.Name = "netease" }
    if cfg.URL == "" { cfg.URL = "https://api.money.126.net/data/feed/" }
    if cfg.Timeout <= 0 { cfg.Timeout = 10 * time.Second }
    client := resty.New()
    client.SetTimeout(cfg.Timeout)
    client.SetHeaders(httpx.BrowserHeaders())
    return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Fetch(ctx context.Context, ticker string) (quote.Quote, error) {
    sym, err := symbol(ticker)
    if err != nil {
        return quote.Quote{}, err
    }
    resp, err := p.client.R().SetContext(ctx).Get(p.cfg.URL + sym)
    if err != nil {
        return quote.Quote{}, err
    }
    if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
        return quote.Quote{}, fmt.Errorf("netease: GET %s -> %d", p.cfg.URL+sym, resp.StatusCode())
    }
    price, err := parsePayload(resp.String(), sym)
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

// symbol maps an A-share ticker to NetEase's prefixed code:
// 0 for Shanghai, 1 for Shenzhen.
func symbol(ticker string) (string, error) {
    if !quote.IsA(ticker) {
        return "", fmt.Errorf("netease: unsupported ticker %q: %w", ticker, quote.ErrNotFound)
    }
    code := quote.Code(ticker)
    if strings.HasSuffix(ticker, ".SH") {
        return "0" + code, nil
    }
    return "1" + code, nil
}

// parsePayload unwraps _ntes_quote_callback({...}); and pulls the price
// field for the requested code.
func parsePayload(body, sym string) (string, error) {
    body = strings.TrimSpace(body)
    if !strings.HasPrefix(body, "_ntes_quote_callback(") {
        return "", quote.ErrNotFound
    }
    start := strings.IndexByte(body, '{')
    end := strings.LastIndexByte(body, '}')
    if start < 0 || end <= start {
        return "", fmt.Errorf("netease: malformed payload: %w", quote.ErrNotFound)
    }
    var feed map[string]struct {
        Price json.Number `json:"price"`
    }
    if err := json.Unmarshal([]byte(body[start:end+1]), &feed); err != nil {
        return "", fmt.Errorf("netease: decode: %w", err)
    }
    entry, ok := feed[sym]
    if !ok {
        return "", quote.ErrNotFound
    }
    price, err := quote.ParsePrice(entry.Price.String())
    if err != nil {
        return "", fmt.Errorf("netease: price %q: %w", entry.Price, err)
    }
    return price, nil
}
