package cache

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "tickerquote/internal/quote"
)

func TestOpen_ColdStart(t *testing.T) {
    s, err := Open(filepath.Join(t.TempDir(), "missing.json"), 0)
    require.NoError(t, err)
    require.Equal(t, 0, s.Len())
    require.Equal(t, DefaultWindow, s.Window())
}

func TestOpen_UnparsableFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "cache.json")
    require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

    s, err := Open(path, time.Hour)
    require.NoError(t, err)
    require.Equal(t, 0, s.Len())
}

func TestOpen_SkipsCorruptEntries(t *testing.T) {
    path := filepath.Join(t.TempDir(), "cache.json")
    body := `{
        "600519.SH": {"price": "1680.00", "currency": "¥", "source": "tencent", "fetched_at": "2026-08-29T10:00:00Z"},
        "0700.HK": "garbage",
        "AAPL": {"price": "", "source": "yfinance"}
    }`
    require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

    s, err := Open(path, time.Hour)
    require.NoError(t, err)
    require.Equal(t, 1, s.Len())

    q, ok := s.Get("600519.SH")
    require.True(t, ok)
    require.Equal(t, "600519.SH", q.Ticker)
    require.Equal(t, "1680.00", q.Price)

    _, ok = s.Get("0700.HK")
    require.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
    path := filepath.Join(t.TempDir(), "cache.json")

    s, err := Open(path, time.Hour)
    require.NoError(t, err)
    s.Put(quote.Quote{
        Ticker:    "600519.SH",
        Price:     "1680.00",
        Currency:  "¥",
        Source:    "tencent",
        FetchedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
    })
    require.NoError(t, s.Flush())

    reopened, err := Open(path, time.Hour)
    require.NoError(t, err)
    require.Equal(t, 1, reopened.Len())
    q, ok := reopened.Get("600519.SH")
    require.True(t, ok)
    require.Equal(t, "tencent", q.Source)
    require.Equal(t, "1680.00", q.Price)
}

func TestPut_IgnoresEmpty(t *testing.T) {
    s, err := Open(filepath.Join(t.TempDir(), "cache.json"), time.Hour)
    require.NoError(t, err)
    s.Put(quote.Quote{Ticker: "600519.SH"})
    s.Put(quote.Quote{Price: "1.00"})
    require.Equal(t, 0, s.Len())
}

func TestFresh(t *testing.T) {
    s, err := Open(filepath.Join(t.TempDir(), "cache.json"), time.Hour)
    require.NoError(t, err)

    now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
    require.True(t, s.Fresh(quote.Quote{FetchedAt: now.Add(-30 * time.Minute)}, now))
    require.False(t, s.Fresh(quote.Quote{FetchedAt: now.Add(-2 * time.Hour)}, now))
    require.False(t, s.Fresh(quote.Quote{}, now))
}

func TestFlush_NoopWhenClean(t *testing.T) {
    path := filepath.Join(t.TempDir(), "cache.json")
    s, err := Open(path, time.Hour)
    require.NoError(t, err)
    require.NoError(t, s.Flush())
    _, statErr := os.Stat(path)
    require.True(t, os.IsNotExist(statErr))
}
