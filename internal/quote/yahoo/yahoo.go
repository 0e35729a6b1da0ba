package yahoo

import (
    "context"
    "fmt"
    "strings"
    "time"

    "tickerquote/internal/quote"
)

type Config struct {
    Name string
}

// Provider adapts the chart API client to the quote.Provider contract.
type Provider struct {
    cfg    Config
    client *ChartAPIClient
}

func NewProvider(cfg Config, client *ChartAPIClient) *Provider {
    if cfg.Name == "" { cfg.Name = "yfinance" }
    return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Fetch(ctx context.Context, ticker string) (quote.Quote, error) {
    sym, err := symbol(ticker)
    if err != nil {
        return quote.Quote{}, err
    }
    chart, err := p.client.GetChart(ctx, sym)
    if err != nil {
        return quote.Quote{}, fmt.Errorf("yahoo: %w", err)
    }
    if chart.RegularMarketPrice <= 0 {
        return quote.Quote{}, quote.ErrNotFound
    }
    return quote.Quote{
        Ticker:    ticker,
        Price:     quote.FormatPrice(chart.RegularMarketPrice),
        Currency:  quote.CurrencySymbol(ticker),
        Source:    p.cfg.Name,
        FetchedAt: time.Now().UTC(),
    }, nil
}

// symbol maps an exchange-qualified ticker to Yahoo's symbol form:
// Shanghai listings use .SS, Shenzhen keep .SZ, HK codes are 4-digit,
// US tickers pass through.
func symbol(ticker string) (string, error) {
    switch {
    case quote.IsA(ticker):
        code := quote.Code(ticker)
        if strings.HasSuffix(ticker, ".SH") {
            return code + ".SS", nil
        }
        return code + ".SZ", nil
    case quote.IsHK(ticker):
        code := quote.Code(ticker)
        for len(code) > 4 && code[0] == '0' {
            code = code[1:]
        }
        return code + ".HK", nil
    case quote.IsUS(ticker):
        return strings.ToUpper(ticker), nil
    default:
        return "", fmt.Errorf("yahoo: unsupported ticker %q: %w", ticker, quote.ErrNotFound)
    }
}
