package ratelimit

import (
    "context"
    "sync"
    "time"

    "tickerquote/internal/quote"
)

// MinInterval wraps a provider and enforces a minimum time between calls.
// Concurrent calls will wait until the interval has elapsed since the last call,
// or return early if the context is canceled.
type MinInterval struct {
    P        quote.Provider
    Interval time.Duration
    mu       sync.Mutex
    last     time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Fetch(ctx context.Context, ticker string) (quote.Quote, error) {
    if m.Interval > 0 {
        // simple gate: ensure at least Interval since last
        m.mu.Lock()
        wait := time.Until(m.last.Add(m.Interval))
        m.mu.Unlock()
        if wait > 0 {
            t := time.NewTimer(wait)
            defer t.Stop()
            select {
            case <-ctx.Done():
                return quote.Quote{}, ctx.Err()
            case <-t.C:
            }
        }
    }
    q, err := m.P.Fetch(ctx, ticker)
    if m.Interval > 0 {
        m.mu.Lock()
        m.last = time.Now()
        m.mu.Unlock()
    }
    return q, err
}
