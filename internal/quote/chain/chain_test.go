package chain

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "tickerquote/internal/quote"
)

type stubProvider struct {
    name  string
    quote quote.Quote
    err   error
    calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, ticker string) (quote.Quote, error) {
    s.calls++
    if s.err != nil {
        return quote.Quote{}, s.err
    }
    q := s.quote
    q.Ticker = ticker
    return q, nil
}

func TestFetch_FirstProviderWins(t *testing.T) {
    first := &stubProvider{name: "yfinance", quote: quote.Quote{Price: "1680.00", Source: "yfinance"}}
    second := &stubProvider{name: "tencent", quote: quote.Quote{Price: "1679.00", Source: "tencent"}}
    c := New("quotes", time.Second, first, second)

    q, err := c.Fetch(context.Background(), "600519.SH")
    require.NoError(t, err)
    require.Equal(t, "yfinance", q.Source)
    require.Equal(t, "600519.SH", q.Ticker)
    require.Equal(t, 1, first.calls)
    require.Equal(t, 0, second.calls)
}

func TestFetch_AdvancesPastFailure(t *testing.T) {
    first := &stubProvider{name: "yfinance", err: errors.New("upstream 429")}
    second := &stubProvider{name: "tencent", err: quote.ErrNotFound}
    third := &stubProvider{name: "sina", quote: quote.Quote{Price: "1680.00", Source: "sina"}}
    c := New("quotes", time.Second, first, second, third)

    q, err := c.Fetch(context.Background(), "600519.SH")
    require.NoError(t, err)
    require.Equal(t, "sina", q.Source)
    require.Equal(t, 1, first.calls)
    require.Equal(t, 1, second.calls)
    require.Equal(t, 1, third.calls)
}

func TestFetch_AllFail(t *testing.T) {
    first := &stubProvider{name: "yfinance", err: errors.New("timeout")}
    second := &stubProvider{name: "tencent", err: quote.ErrNotFound}
    c := New("quotes", time.Second, first, second)

    _, err := c.Fetch(context.Background(), "600519.SH")
    require.ErrorIs(t, err, ErrExhausted)
    require.ErrorIs(t, err, quote.ErrNotFound)
}

func TestFetch_NoProviders(t *testing.T) {
    c := New("quotes", time.Second)
    _, err := c.Fetch(context.Background(), "600519.SH")
    require.ErrorIs(t, err, ErrExhausted)
}

func TestFetch_CancelledContext(t *testing.T) {
    p := &stubProvider{name: "yfinance", quote: quote.Quote{Price: "1.00"}}
    c := New("quotes", time.Second, p)

    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    _, err := c.Fetch(ctx, "600519.SH")
    require.ErrorIs(t, err, context.Canceled)
    require.Equal(t, 0, p.calls)
}
