package chain

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/phuslu/log"

    "tickerquote/internal/quote"
)

// ErrExhausted reports that every provider in the chain failed for a ticker.
// The caller gets the resolved ticker with no price; a stale or fabricated
// price is never substituted.
var ErrExhausted = errors.New("chain: all providers exhausted")

// Chain tries an ordered list of providers and returns the first success.
// A provider failure (timeout, rate limit, malformed payload, not found) is
// non-fatal and advances to the next provider.
type Chain struct {
    providers []quote.Provider
    // perCallTimeout bounds each provider attempt; the surrounding context
    // still bounds the chain as a whole.
    perCallTimeout time.Duration
    name           string
}

func New(name string, perCallTimeout time.Duration, providers ...quote.Provider) *Chain {
    if name == "" {
        name = "chain"
    }
    if perCallTimeout <= 0 {
        perCallTimeout = 10 * time.Second
    }
    return &Chain{providers: providers, perCallTimeout: perCallTimeout, name: name}
}

func (c *Chain) Name() string { return c.name }

// Len reports the number of providers in the chain.
func (c *Chain) Len() int { return len(c.providers) }

func (c *Chain) Fetch(ctx context.Context, ticker string) (quote.Quote, error) {
    if len(c.providers) == 0 {
        return quote.Quote{}, fmt.Errorf("%w: no providers configured", ErrExhausted)
    }
    var lastErr error
    for _, p := range c.providers {
        if ctx.Err() != nil {
            return quote.Quote{}, ctx.Err()
        }
        attemptCtx, cancel := context.WithTimeout(ctx, c.perCallTimeout)
        started := time.Now()
        q, err := p.Fetch(attemptCtx, ticker)
        cancel()
        if err != nil {
            lastErr = err
            log.Warn().
                Str("provider", p.Name()).
                Str("ticker", ticker).
                Dur("elapsed", time.Since(started)).
                Err(err).
                Msg("provider attempt failed")
            continue
        }
        log.Debug().
            Str("provider", p.Name()).
            Str("ticker", ticker).
            Str("price", q.Display()).
            Dur("elapsed", time.Since(started)).
            Msg("quote fetched")
        return q, nil
    }
    return quote.Quote{}, fmt.Errorf("%w for %s: %w", ErrExhausted, ticker, lastErr)
}
