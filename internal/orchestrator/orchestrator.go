package orchestrator

import (
    "context"
    "errors"
    "time"

    "github.com/phuslu/log"
    "golang.org/x/sync/errgroup"
    "golang.org/x/sync/singleflight"

    "tickerquote/internal/catalog"
    "tickerquote/internal/matcher"
    "tickerquote/internal/quote"
    "tickerquote/internal/quote/cache"
)

// Mention is one free-text instrument reference, optionally tagged with the
// exchange the upstream extractor believes it trades on.
type Mention struct {
    Text string           `json:"text"`
    Hint catalog.Exchange `json:"hint,omitempty"`
}

// Record is the per-mention output. Empty Ticker means the mention was
// unresolved; a set Ticker with an empty Price means resolved but unpriced.
type Record struct {
    Text   string `json:"text"`
    Ticker string `json:"ticker,omitempty"`
    Name   string `json:"name,omitempty"`
    Tier   int    `json:"tier,omitempty"`
    Price  string `json:"price,omitempty"`
    Source string `json:"source,omitempty"`
}

// Options configures an Orchestrator. Provider is usually a *chain.Chain
// wrapped with rate limiting; tests substitute stubs.
type Options struct {
    Matcher  *matcher.Matcher
    Cache    *cache.Store
    Provider quote.Provider
    // Workers bounds batch concurrency. Defaults to 5.
    Workers int
    // Now is the clock used for freshness checks; defaults to time.Now.
    Now func() time.Time
}

// Orchestrator drives concurrent resolution and pricing over a batch of
// mentions. The quote cache is the only shared structure workers mutate;
// the in-flight registry guarantees at most one provider fetch per ticker
// per batch.
type Orchestrator struct {
    matcher  *matcher.Matcher
    cache    *cache.Store
    provider quote.Provider
    workers  int
    now      func() time.Time

    inflight singleflight.Group
}

func New(opts Options) (*Orchestrator, error) {
    if opts.Matcher == nil {
        return nil, errors.New("orchestrator: matcher is required")
    }
    if opts.Cache == nil {
        return nil, errors.New("orchestrator: cache is required")
    }
    if opts.Provider == nil {
        return nil, errors.New("orchestrator: provider is required")
    }
    if opts.Workers <= 0 {
        opts.Workers = 5
    }
    if opts.Now == nil {
        opts.Now = time.Now
    }
    return &Orchestrator{
        matcher:  opts.Matcher,
        cache:    opts.Cache,
        provider: opts.Provider,
        workers:  opts.Workers,
        now:      opts.Now,
    }, nil
}

// ResolveAndPrice processes the batch with a bounded worker pool and returns
// one record per mention, in input order. Unresolved mentions and exhausted
// provider chains degrade to partial records; only context cancellation
// stops the batch early, and even then every record slot is filled with
// whatever was completed.
func (o *Orchestrator) ResolveAndPrice(ctx context.Context, mentions []Mention) []Record {
    records := make([]Record, len(mentions))

    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(o.workers)
    for i, m := range mentions {
        i, m := i, m
        records[i] = Record{Text: m.Text}
        g.Go(func() error {
            if gctx.Err() != nil {
                return nil
            }
            records[i] = o.processOne(gctx, m)
            return nil
        })
    }
    _ = g.Wait()
    return records
}

func (o *Orchestrator) processOne(ctx context.Context, m Mention) Record {
    rec := Record{Text: m.Text}

    cands := o.matcher.Resolve(m.Text, m.Hint)
    if len(cands) == 0 {
        log.Debug().Str("mention", m.Text).Msg("unresolved mention")
        return rec
    }
    best := cands[0]
    rec.Ticker = best.Instrument.Ticker
    rec.Name = best.Instrument.Name
    rec.Tier = int(best.Tier)

    q, err := o.priceFor(ctx, rec.Ticker)
    if err != nil {
        log.Warn().Str("ticker", rec.Ticker).Err(err).Msg("no price available")
        return rec
    }
    rec.Price = q.Display()
    rec.Source = q.Source
    return rec
}

// priceFor returns a fresh quote for ticker, consulting the cache first and
// coalescing concurrent fetches for the same ticker onto a single provider
// chain invocation.
func (o *Orchestrator) priceFor(ctx context.Context, ticker string) (quote.Quote, error) {
    if q, ok := o.cache.Get(ticker); ok && o.cache.Fresh(q, o.now()) {
        return q, nil
    }
    v, err, _ := o.inflight.Do(ticker, func() (any, error) {
        // Re-check under the flight: a waiter queued behind the first
        // fetch must not trigger a second one.
        if q, ok := o.cache.Get(ticker); ok && o.cache.Fresh(q, o.now()) {
            return q, nil
        }
        q, err := o.provider.Fetch(ctx, ticker)
        if err != nil {
            return nil, err
        }
        o.cache.Put(q)
        return q, nil
    })
    if err != nil {
        return quote.Quote{}, err
    }
    return v.(quote.Quote), nil
}
