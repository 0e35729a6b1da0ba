package quote

import (
    "context"
    "errors"
    "regexp"
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// Quote is the normalized shape returned by all providers.
// Price is kept as a formatted string to avoid float rounding; Currency is
// the display symbol for the instrument's exchange (¥, HK$, $).
type Quote struct {
    Ticker    string    `json:"ticker"`
    Price     string    `json:"price"`
    Currency  string    `json:"currency"`
    Source    string    `json:"source"`
    FetchedAt time.Time `json:"fetched_at"`
}

// Display renders the price with its currency marker, e.g. "¥1680.00".
func (q Quote) Display() string {
    if q.Price == "" {
        return ""
    }
    return q.Currency + q.Price
}

// ErrNotFound reports that the upstream had no quote for the ticker.
// It is a per-provider outcome; the chain advances past it.
var ErrNotFound = errors.New("quote: not found")

// Provider fetches a current quote for one ticker from one upstream source.
type Provider interface {
    Name() string
    Fetch(ctx context.Context, ticker string) (Quote, error)
}

var (
    tickerA  = regexp.MustCompile(`^\d{6}\.(SH|SZ)$`)
    tickerHK = regexp.MustCompile(`^\d{4,5}\.HK$`)
    tickerUS = regexp.MustCompile(`^[A-Z]{1,5}$`)
)

// IsA reports whether ticker is a mainland A-share symbol (600519.SH).
func IsA(ticker string) bool { return tickerA.MatchString(ticker) }

// IsHK reports whether ticker is a Hong Kong symbol (0700.HK).
func IsHK(ticker string) bool { return tickerHK.MatchString(ticker) }

// IsUS reports whether ticker is a US symbol (AAPL).
func IsUS(ticker string) bool { return tickerUS.MatchString(ticker) }

// Code returns the bare code portion of an exchange-qualified ticker,
// i.e. everything before the first dot.
func Code(ticker string) string {
    if i := strings.IndexByte(ticker, '.'); i > 0 {
        return ticker[:i]
    }
    return ticker
}

// CurrencySymbol maps an exchange-qualified ticker to its display currency
// marker. Unknown formats get no marker.
func CurrencySymbol(ticker string) string {
    switch {
    case tickerA.MatchString(ticker):
        return "¥"
    case tickerHK.MatchString(ticker):
        return "HK$"
    case tickerUS.MatchString(ticker):
        return "$"
    default:
        return ""
    }
}

// FormatPrice renders an absolute price with two decimal places.
func FormatPrice(v float64) string {
    return decimal.NewFromFloat(v).StringFixed(2)
}

// ParsePrice parses a provider's textual price field and normalizes it to
// two decimal places. Zero or non-numeric values are rejected: percentage
// and delta figures are never valid quote results.
func ParsePrice(s string) (string, error) {
    d, err := decimal.NewFromString(s)
    if err != nil {
        return "", err
    }
    if d.IsZero() || d.IsNegative() {
        return "", ErrNotFound
    }
    return d.StringFixed(2), nil
}
