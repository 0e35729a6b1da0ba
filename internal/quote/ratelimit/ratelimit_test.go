package ratelimit

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "tickerquote/internal/quote"
)

type nopProvider struct{ calls int }

func (n *nopProvider) Name() string { return "nop" }
func (n *nopProvider) Fetch(ctx context.Context, ticker string) (quote.Quote, error) {
    n.calls++
    return quote.Quote{Ticker: ticker, Price: "1.00"}, nil
}

func TestMinInterval_SpacesCalls(t *testing.T) {
    inner := &nopProvider{}
    m := &MinInterval{P: inner, Interval: 50 * time.Millisecond}

    start := time.Now()
    _, err := m.Fetch(context.Background(), "600519.SH")
    require.NoError(t, err)
    _, err = m.Fetch(context.Background(), "600519.SH")
    require.NoError(t, err)
    require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
    require.Equal(t, 2, inner.calls)
}

func TestMinInterval_ZeroIntervalPassesThrough(t *testing.T) {
    inner := &nopProvider{}
    m := &MinInterval{P: inner}

    for i := 0; i < 3; i++ {
        _, err := m.Fetch(context.Background(), "600519.SH")
        require.NoError(t, err)
    }
    require.Equal(t, 3, inner.calls)
}

func TestMinInterval_ContextCanceled(t *testing.T) {
    inner := &nopProvider{}
    m := &MinInterval{P: inner, Interval: time.Minute}

    _, err := m.Fetch(context.Background(), "600519.SH")
    require.NoError(t, err)

    ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
    defer cancel()
    _, err = m.Fetch(ctx, "600519.SH")
    require.ErrorIs(t, err, context.DeadlineExceeded)
    require.Equal(t, 1, inner.calls)
}

func TestTokenBucket_BurstThenBlocks(t *testing.T) {
    inner := &nopProvider{}
    p := &TokenBucketProvider{P: inner, TB: NewTokenBucket(10, 2)}

    start := time.Now()
    for i := 0; i < 2; i++ {
        _, err := p.Fetch(context.Background(), "AAPL")
        require.NoError(t, err)
    }
    // burst of 2 should not block
    require.Less(t, time.Since(start), 50*time.Millisecond)

    // third call waits for a refill at 10 tokens/sec
    _, err := p.Fetch(context.Background(), "AAPL")
    require.NoError(t, err)
    require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
    require.Equal(t, 3, inner.calls)
}

func TestTokenBucket_ContextCanceled(t *testing.T) {
    p := &TokenBucketProvider{P: &nopProvider{}, TB: NewTokenBucket(0.001, 1)}

    _, err := p.Fetch(context.Background(), "AAPL")
    require.NoError(t, err)

    ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
    defer cancel()
    _, err = p.Fetch(ctx, "AAPL")
    require.ErrorIs(t, err, context.DeadlineExceeded)
}
