package matcher

import (
    "sort"

    "tickerquote/internal/catalog"
)

// Tier ranks how a match was produced. Lower is more confident.
type Tier int

const (
    TierExact  Tier = 1 // normalized mention equals a name or alias
    TierPrefix Tier = 2 // contiguous substring either direction
    TierToken  Tier = 3 // token-set overlap
    TierFuzzy  Tier = 4 // bounded edit distance
)

// Candidate is one possible resolution of a mention.
type Candidate struct {
    Instrument   catalog.Instrument
    Tier         Tier
    MatchedAlias string
    // Score is the within-tier match strength in (0,1]; exact matches are 1.
    Score float64
}

// Config holds the matching policy thresholds. The bounds are policy
// choices: substring matches need the shorter string to cover at least
// 60% of the longer one, token overlap needs Jaccard >= 0.5, and fuzzy
// matches allow at most 30% of the longer string edited.
type Config struct {
    PrefixMinRatio   float64
    TokenMinJaccard  float64
    FuzzyMaxDistance float64
    // MaxCandidates caps the returned slice per mention. <=0 means no cap.
    MaxCandidates int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
    return Config{
        PrefixMinRatio:   0.6,
        TokenMinJaccard:  0.5,
        FuzzyMaxDistance: 0.3,
        MaxCandidates:    5,
    }
}

// Matcher resolves free-text instrument mentions against a catalog snapshot.
// It is read-only and safe for concurrent use.
type Matcher struct {
    store *catalog.Store
    cfg   Config
}

func New(store *catalog.Store, cfg Config) *Matcher {
    if cfg.PrefixMinRatio <= 0 {
        cfg.PrefixMinRatio = 0.6
    }
    if cfg.TokenMinJaccard <= 0 {
        cfg.TokenMinJaccard = 0.5
    }
    if cfg.FuzzyMaxDistance <= 0 {
        cfg.FuzzyMaxDistance = 0.3
    }
    return &Matcher{store: store, cfg: cfg}
}

// Resolve maps a mention onto catalog instruments, best candidate first.
// Tiers are applied in order and the first tier producing any candidate
// above its threshold short-circuits the looser ones. An empty result means
// the mention is unresolved, which is a normal outcome, not an error.
// Identical input against identical catalog state yields identical output.
func (m *Matcher) Resolve(mention string, hint catalog.Exchange) []Candidate {
    norm := catalog.Normalize(mention)
    if norm == "" {
        return nil
    }
    for _, tier := range []func(string) []Candidate{
        m.exact, m.prefix, m.tokens, m.fuzzy,
    } {
        if cands := tier(mention); len(cands) > 0 {
            m.rank(cands, hint)
            if m.cfg.MaxCandidates > 0 && len(cands) > m.cfg.MaxCandidates {
                cands = cands[:m.cfg.MaxCandidates]
            }
            return cands
        }
    }
    return nil
}

func (m *Matcher) exact(mention string) []Candidate {
    hits := m.store.LookupExact(mention)
    if len(hits) == 0 {
        // a mention carrying the full corporate form (贵州茅台股份有限公司)
        // still names the instrument exactly once the suffix is stripped
        if cleaned := catalog.CleanName(mention); cleaned != mention {
            hits = m.store.LookupExact(cleaned)
        }
    }
    out := make([]Candidate, 0, len(hits))
    for _, h := range hits {
        out = append(out, Candidate{
            Instrument:   h.Instrument,
            Tier:         TierExact,
            MatchedAlias: h.Alias,
            Score:        1,
        })
    }
    return out
}

func (m *Matcher) prefix(mention string) []Candidate {
    norm := catalog.Normalize(mention)
    mentionLen := len([]rune(norm))
    var out []Candidate
    for _, h := range m.store.ByPrefix(mention) {
        aliasLen := len([]rune(catalog.Normalize(h.Alias)))
        short, long := mentionLen, aliasLen
        if short > long {
            short, long = long, short
        }
        if long == 0 {
            continue
        }
        ratio := float64(short) / float64(long)
        if ratio < m.cfg.PrefixMinRatio {
            continue
        }
        out = append(out, Candidate{
            Instrument:   h.Instrument,
            Tier:         TierPrefix,
            MatchedAlias: h.Alias,
            Score:        ratio,
        })
    }
    return out
}

func (m *Matcher) tokens(mention string) []Candidate {
    mentionTokens := catalog.Tokenize(mention)
    if len(mentionTokens) == 0 {
        return nil
    }
    var out []Candidate
    for _, h := range m.store.ByTokens(mentionTokens) {
        alias, score := bestTokenOverlap(mentionTokens, h.Instrument)
        if score < m.cfg.TokenMinJaccard {
            continue
        }
        out = append(out, Candidate{
            Instrument:   h.Instrument,
            Tier:         TierToken,
            MatchedAlias: alias,
            Score:        score,
        })
    }
    return out
}

func (m *Matcher) fuzzy(mention string) []Candidate {
    norm := []rune(catalog.Normalize(mention))
    var out []Candidate
    for _, in := range m.store.All() {
        alias, dist := bestEditDistance(norm, in)
        if dist > m.cfg.FuzzyMaxDistance {
            continue
        }
        out = append(out, Candidate{
            Instrument:   in,
            Tier:         TierFuzzy,
            MatchedAlias: alias,
            Score:        1 - dist,
        })
    }
    return out
}

// rank orders candidates best-first: score, then the exchange-hint
// preference, then liquidity tier, then most specific (shortest) alias,
// with ticker as the final key to keep the order fully deterministic.
func (m *Matcher) rank(cands []Candidate, hint catalog.Exchange) {
    sort.SliceStable(cands, func(i, j int) bool {
        a, b := cands[i], cands[j]
        if a.Score != b.Score {
            return a.Score > b.Score
        }
        if hint != "" {
            am, bm := a.Instrument.Exchange == hint, b.Instrument.Exchange == hint
            if am != bm {
                return am
            }
        }
        if a.Instrument.Tier != b.Instrument.Tier {
            return a.Instrument.Tier > b.Instrument.Tier
        }
        al, bl := len([]rune(a.MatchedAlias)), len([]rune(b.MatchedAlias))
        if al != bl {
            return al < bl
        }
        return a.Instrument.Ticker < b.Instrument.Ticker
    })
}

// aliasTexts lists every name variant of an instrument worth comparing.
func aliasTexts(in catalog.Instrument) []string {
    texts := make([]string, 0, 2+len(in.Aliases))
    texts = append(texts, in.Name)
    if in.CleanName != "" && in.CleanName != in.Name {
        texts = append(texts, in.CleanName)
    }
    texts = append(texts, in.Aliases...)
    return texts
}

func bestTokenOverlap(mentionTokens []string, in catalog.Instrument) (string, float64) {
    mset := make(map[string]struct{}, len(mentionTokens))
    for _, t := range mentionTokens {
        mset[t] = struct{}{}
    }
    bestAlias, bestScore := "", 0.0
    for _, text := range aliasTexts(in) {
        score := jaccard(mset, catalog.Tokenize(text))
        if score > bestScore {
            bestScore, bestAlias = score, text
        }
    }
    return bestAlias, bestScore
}

func jaccard(a map[string]struct{}, b []string) float64 {
    if len(a) == 0 || len(b) == 0 {
        return 0
    }
    bset := make(map[string]struct{}, len(b))
    for _, t := range b {
        bset[t] = struct{}{}
    }
    inter := 0
    for t := range bset {
        if _, ok := a[t]; ok {
            inter++
        }
    }
    union := len(a) + len(bset) - inter
    if union == 0 {
        return 0
    }
    return float64(inter) / float64(union)
}

func bestEditDistance(mention []rune, in catalog.Instrument) (string, float64) {
    bestAlias, bestDist := "", 1.0
    for _, text := range aliasTexts(in) {
        alias := []rune(catalog.Normalize(text))
        long := len(mention)
        if len(alias) > long {
            long = len(alias)
        }
        if long == 0 {
            continue
        }
        dist := float64(levenshtein(mention, alias)) / float64(long)
        if dist < bestDist {
            bestDist, bestAlias = dist, text
        }
    }
    return bestAlias, bestDist
}

// levenshtein is the classic two-row edit distance over runes.
func levenshtein(a, b []rune) int {
    if len(a) == 0 {
        return len(b)
    }
    if len(b) == 0 {
        return len(a)
    }
    prev := make([]int, len(b)+1)
    cur := make([]int, len(b)+1)
    for j := range prev {
        prev[j] = j
    }
    for i := 1; i <= len(a); i++ {
        cur[0] = i
        for j := 1; j <= len(b); j++ {
            cost := 1
            if a[i-1] == b[j-1] {
                cost = 0
            }
            cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
        }
        prev, cur = cur, prev
    }
    return prev[len(b)]
}

func min3(a, b, c int) int {
    if b < a {
        a = b
    }
    if c < a {
        a = c
    }
    return a
}
