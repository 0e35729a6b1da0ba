package catalog

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "sort"
    "strings"
    "unicode"
)

// Exchange identifies the listing venue of an instrument.
type Exchange string

const (
    ExchangeA  Exchange = "A"  // mainland A-shares (SSE/SZSE)
    ExchangeHK Exchange = "HK" // Hong Kong
    ExchangeUS Exchange = "US" // US listings
)

// Instrument is one listed security from the reference snapshot.
// Aliases may be shared across instruments; disambiguation happens at
// match time, never at load time.
type Instrument struct {
    Ticker   string   `json:"ticker"`
    Name     string   `json:"name"`
    Aliases  []string `json:"aliases,omitempty"`
    Exchange Exchange `json:"exchange"`
    // Tier is an optional liquidity/market-cap rank used as a tie-break.
    // Higher is more liquid. 0 means unknown.
    Tier int `json:"tier,omitempty"`

    // CleanName is Name with listing markers and corporate suffixes removed.
    // Populated at load.
    CleanName string `json:"-"`
}

// ErrEmptySnapshot indicates the snapshot parsed but contained no instruments.
var ErrEmptySnapshot = errors.New("catalog: empty snapshot")

// Store is an immutable-per-run snapshot of all known instruments,
// indexed for lookup. Read-only after Load; safe for concurrent use.
type Store struct {
    instruments []Instrument               // sorted by ticker for deterministic scans
    byTicker    map[string]int             // ticker -> index
    byNorm      map[string][]aliasRef      // normalized name/alias -> instruments
    tokenIndex  map[string]map[int]struct{} // token -> instrument index set
}

// aliasRef records which normalized alias text pointed at which instrument.
type aliasRef struct {
    idx   int
    alias string // original alias/name text that produced the key
}

// Load reads a JSON snapshot of instruments from path and builds the indexes.
// A missing, unreadable, unparsable, or empty snapshot is a construction
// error: resolution cannot proceed without a catalog.
func Load(path string) (*Store, error) {
    b, err := os.ReadFile(path)
    if err != nil {
        return nil, fmt.Errorf("catalog: read snapshot: %w", err)
    }
    var instruments []Instrument
    if err := json.Unmarshal(b, &instruments); err != nil {
        return nil, fmt.Errorf("catalog: parse snapshot: %w", err)
    }
    return New(instruments)
}

// New builds a Store from an in-memory instrument list.
func New(instruments []Instrument) (*Store, error) {
    if len(instruments) == 0 {
        return nil, ErrEmptySnapshot
    }
    s := &Store{
        instruments: make([]Instrument, len(instruments)),
        byTicker:    make(map[string]int, len(instruments)),
        byNorm:      make(map[string][]aliasRef),
        tokenIndex:  make(map[string]map[int]struct{}),
    }
    copy(s.instruments, instruments)
    sort.Slice(s.instruments, func(i, j int) bool {
        return s.instruments[i].Ticker < s.instruments[j].Ticker
    })
    for i := range s.instruments {
        in := &s.instruments[i]
        if in.Ticker == "" {
            return nil, fmt.Errorf("catalog: instrument %q has no ticker", in.Name)
        }
        if _, dup := s.byTicker[in.Ticker]; dup {
            return nil, fmt.Errorf("catalog: duplicate ticker %s", in.Ticker)
        }
        in.CleanName = CleanName(in.Name)
        s.byTicker[in.Ticker] = i

        s.indexAlias(in.Name, i)
        if in.CleanName != "" && in.CleanName != in.Name {
            s.indexAlias(in.CleanName, i)
        }
        for _, a := range in.Aliases {
            s.indexAlias(a, i)
        }
    }
    return s, nil
}

func (s *Store) indexAlias(text string, idx int) {
    norm := Normalize(text)
    if norm == "" {
        return
    }
    for _, ref := range s.byNorm[norm] {
        if ref.idx == idx {
            return
        }
    }
    s.byNorm[norm] = append(s.byNorm[norm], aliasRef{idx: idx, alias: text})
    for _, tok := range Tokenize(text) {
        set, ok := s.tokenIndex[tok]
        if !ok {
            set = make(map[int]struct{})
            s.tokenIndex[tok] = set
        }
        set[idx] = struct{}{}
    }
}

// Len reports the number of instruments in the snapshot.
func (s *Store) Len() int { return len(s.instruments) }

// ByTicker returns the instrument for an exact ticker, if present.
func (s *Store) ByTicker(ticker string) (Instrument, bool) {
    i, ok := s.byTicker[ticker]
    if !ok {
        return Instrument{}, false
    }
    return s.instruments[i], true
}

// Hit pairs an instrument with the alias text that matched.
type Hit struct {
    Instrument Instrument
    Alias      string
}

// LookupExact returns every instrument whose normalized name or alias equals
// the normalized input. Multiple results mean an ambiguous alias.
func (s *Store) LookupExact(text string) []Hit {
    refs := s.byNorm[Normalize(text)]
    out := make([]Hit, 0, len(refs))
    for _, r := range refs {
        out = append(out, Hit{Instrument: s.instruments[r.idx], Alias: r.alias})
    }
    return out
}

// ByPrefix returns instruments where the normalized input is a contiguous
// substring of a name/alias, or vice versa. Results are in ticker order.
func (s *Store) ByPrefix(text string) []Hit {
    norm := Normalize(text)
    if norm == "" {
        return nil
    }
    var out []Hit
    normLen := len([]rune(norm))
    seen := make(map[int]string)
    for key, refs := range s.byNorm {
        if !strings.Contains(key, norm) && !strings.Contains(norm, key) {
            continue
        }
        for _, r := range refs {
            // keep the alias closest in length to the input, i.e. the one
            // with the best coverage ratio
            if prev, ok := seen[r.idx]; !ok || closer(r.alias, prev, normLen) {
                seen[r.idx] = r.alias
            }
        }
    }
    idxs := make([]int, 0, len(seen))
    for i := range seen {
        idxs = append(idxs, i)
    }
    sort.Ints(idxs)
    for _, i := range idxs {
        out = append(out, Hit{Instrument: s.instruments[i], Alias: seen[i]})
    }
    return out
}

// closer reports whether alias a's rune length is nearer to target than b's.
// Equidistant aliases fall back to lexicographic order so the kept alias
// never depends on map iteration order.
func closer(a, b string, target int) bool {
    na, nb := Normalize(a), Normalize(b)
    da := len([]rune(na)) - target
    if da < 0 {
        da = -da
    }
    db := len([]rune(nb)) - target
    if db < 0 {
        db = -db
    }
    if da != db {
        return da < db
    }
    return na < nb
}

// ByTokens returns instruments sharing at least one token with the input
// token set. Results are in ticker order.
func (s *Store) ByTokens(tokens []string) []Hit {
    seen := make(map[int]struct{})
    for _, tok := range tokens {
        for idx := range s.tokenIndex[tok] {
            seen[idx] = struct{}{}
        }
    }
    idxs := make([]int, 0, len(seen))
    for i := range seen {
        idxs = append(idxs, i)
    }
    sort.Ints(idxs)
    out := make([]Hit, 0, len(idxs))
    for _, i := range idxs {
        out = append(out, Hit{Instrument: s.instruments[i], Alias: s.instruments[i].Name})
    }
    return out
}

// All returns the instruments sorted by ticker. The returned slice is the
// store's own backing array; callers must not mutate it.
func (s *Store) All() []Instrument { return s.instruments }

// corporate suffixes stripped by CleanName, longest first so that
// e.g. 集团有限公司 wins over 有限公司.
var nameSuffixes = []string{
    "集团股份有限公司", "集团有限公司", "科技有限公司", "控股有限公司",
    "股份有限公司", "有限公司", "控股", "集团", "科技", "股份", "公司",
}

// listing-state prefixes (special treatment markers on A-share names).
var namePrefixes = []string{"*ST", "ST", "N", "C"}

// CleanName strips listing markers and corporate suffixes from a display
// name so that 贵州茅台股份有限公司 and 贵州茅台 compare equal.
func CleanName(name string) string {
    out := strings.TrimSpace(name)
    for _, p := range namePrefixes {
        if strings.HasPrefix(out, p) && len(out) > len(p) {
            // markers only ever precede a Chinese listing name; leave
            // Latin names like "China Mobile" alone
            rest := strings.TrimSpace(out[len(p):])
            if r := []rune(rest); len(r) > 0 && unicode.Is(unicode.Han, r[0]) {
                out = rest
            }
            break
        }
    }
    for _, suf := range nameSuffixes {
        if strings.HasSuffix(out, suf) && len(out) > len(suf) {
            out = strings.TrimSpace(strings.TrimSuffix(out, suf))
            break
        }
    }
    return out
}

// Normalize lowercases, folds full-width ASCII to half-width and removes
// all whitespace, so catalog keys and mention text compare consistently.
func Normalize(text string) string {
    var b strings.Builder
    b.Grow(len(text))
    for _, r := range text {
        switch {
        case unicode.IsSpace(r):
            continue
        case r >= 0xFF01 && r <= 0xFF5E: // full-width ASCII block
            r = r - 0xFF01 + '!'
        case r == 0x3000: // ideographic space
            continue
        }
        b.WriteRune(unicode.ToLower(r))
    }
    return b.String()
}

// Tokenize splits mixed-script text into tokens: contiguous Latin/digit runs
// become one token each, and every Han rune is its own token. Punctuation
// and whitespace are boundaries.
func Tokenize(text string) []string {
    norm := Normalize(text)
    var tokens []string
    var run []rune
    flush := func() {
        if len(run) > 0 {
            tokens = append(tokens, string(run))
            run = run[:0]
        }
    }
    for _, r := range norm {
        switch {
        case unicode.Is(unicode.Han, r):
            flush()
            tokens = append(tokens, string(r))
        case unicode.IsLetter(r) || unicode.IsDigit(r):
            run = append(run, r)
        default:
            flush()
        }
    }
    flush()
    return tokens
}
