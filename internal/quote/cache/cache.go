package cache

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    "tickerquote/internal/quote"
)

// DefaultWindow is how long a cached quote counts as fresh.
const DefaultWindow = 24 * time.Hour

// Store is a durable ticker -> last-known-quote map. It is loaded once at
// start, mutated concurrently by workers during a run, and flushed back to
// disk. Stale records are superseded on the next successful fetch, never
// deleted.
type Store struct {
    path   string
    window time.Duration

    mu      sync.RWMutex
    entries map[string]quote.Quote
    dirty   bool
}

// Open loads the cache file at path. An absent file is a cold start. A
// file with individually unreadable entries keeps the readable ones; a
// wholly unreadable file also degrades to a cold start rather than
// aborting the run.
func Open(path string, window time.Duration) (*Store, error) {
    if window <= 0 {
        window = DefaultWindow
    }
    s := &Store{path: path, window: window, entries: make(map[string]quote.Quote)}

    b, err := os.ReadFile(path)
    if err != nil {
        if errors.Is(err, os.ErrNotExist) {
            return s, nil
        }
        return nil, fmt.Errorf("cache: read %s: %w", path, err)
    }

    var raw map[string]json.RawMessage
    if err := json.Unmarshal(b, &raw); err != nil {
        return s, nil
    }
    for ticker, msg := range raw {
        var q quote.Quote
        if err := json.Unmarshal(msg, &q); err != nil || q.Price == "" {
            continue // skip unreadable entries, keep the rest
        }
        q.Ticker = ticker
        s.entries[ticker] = q
    }
    return s, nil
}

// Window reports the configured freshness window.
func (s *Store) Window() time.Duration { return s.window }

// Len reports the number of loaded entries.
func (s *Store) Len() int {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return len(s.entries)
}

// Get returns the last known quote for ticker, fresh or stale.
func (s *Store) Get(ticker string) (quote.Quote, bool) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    q, ok := s.entries[ticker]
    return q, ok
}

// Put records a quote, superseding any previous record for the ticker.
func (s *Store) Put(q quote.Quote) {
    if q.Ticker == "" || q.Price == "" {
        return
    }
    s.mu.Lock()
    s.entries[q.Ticker] = q
    s.dirty = true
    s.mu.Unlock()
}

// Fresh reports whether q is younger than the freshness window at now.
func (s *Store) Fresh(q quote.Quote, now time.Time) bool {
    if q.FetchedAt.IsZero() {
        return false
    }
    return now.Sub(q.FetchedAt) < s.window
}

// Flush writes the store back to its file atomically (temp file + rename).
// It is a no-op when nothing changed since load.
func (s *Store) Flush() error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if !s.dirty {
        return nil
    }
    b, err := json.MarshalIndent(s.entries, "", "  ")
    if err != nil {
        return fmt.Errorf("cache: marshal: %w", err)
    }
    dir := filepath.Dir(s.path)
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("cache: mkdir %s: %w", dir, err)
    }
    tmp, err := os.CreateTemp(dir, ".cache-*")
    if err != nil {
        return fmt.Errorf("cache: temp file: %w", err)
    }
    tmpName := tmp.Name()
    if _, err := tmp.Write(b); err != nil {
        tmp.Close()
        os.Remove(tmpName)
        return fmt.Errorf("cache: write: %w", err)
    }
    if err := tmp.Close(); err != nil {
        os.Remove(tmpName)
        return fmt.Errorf("cache: close: %w", err)
    }
    if err := os.Rename(tmpName, s.path); err != nil {
        os.Remove(tmpName)
        return fmt.Errorf("cache: rename: %w", err)
    }
    s.dirty = false
    return nil
}
