package main

import (
    "bufio"
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/phuslu/log"

    "tickerquote/internal/app"
    "tickerquote/internal/catalog"
    "tickerquote/internal/config"
    "tickerquote/internal/httpx"
    "tickerquote/internal/matcher"
    "tickerquote/internal/orchestrator"
    "tickerquote/internal/quote/cache"
    "tickerquote/internal/report"
)

func main() {
    _ = godotenv.Load()

    var mentionsCSV string
    var inFile string
    var hint string
    var format string
    var outPath string
    var configPath string
    var timeoutSec int
    var verbose bool

    flag.StringVar(&mentionsCSV, "mentions", "", "comma-separated instrument mentions")
    flag.StringVar(&inFile, "in", "", "file with one mention per line")
    flag.StringVar(&hint, "hint", "", "exchange hint applied to all mentions (A|HK|US)")
    flag.StringVar(&format, "format", "csv", "output format: csv, xlsx or json")
    flag.StringVar(&outPath, "out", "", "output file (default stdout; required for xlsx)")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    flag.IntVar(&timeoutSec, "timeout", 0, "overall batch timeout seconds (0 = none)")
    flag.BoolVar(&verbose, "v", false, "debug logging")
    flag.Parse()

    level := log.InfoLevel
    if verbose {
        level = log.DebugLevel
    }
    log.DefaultLogger = log.Logger{
        Level:  level,
        Writer: &log.ConsoleWriter{ColorOutput: true},
    }

    cfg, err := config.Load(configPath)
    if err != nil {
        log.Fatal().Err(err).Msg("config")
    }

    mentions, err := collectMentions(mentionsCSV, inFile, catalog.Exchange(strings.ToUpper(hint)))
    if err != nil {
        log.Fatal().Err(err).Msg("read mentions")
    }
    if len(mentions) == 0 {
        log.Fatal().Msg("no mentions provided; use -mentions or -in")
    }

    // Catalog load failure is fatal: resolution cannot proceed without it.
    store, err := catalog.Load(cfg.Catalog.SnapshotFile)
    if err != nil {
        log.Fatal().Err(err).Msg("load catalog")
    }
    log.Info().Int("instruments", store.Len()).Msg("catalog loaded")

    qcache, err := cache.Open(cfg.Cache.File, time.Duration(cfg.Cache.FreshnessHours)*time.Hour)
    if err != nil {
        log.Fatal().Err(err).Msg("open quote cache")
    }
    log.Info().Int("entries", qcache.Len()).Msg("quote cache loaded")

    hc := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
    providerChain, err := app.BuildChain(cfg, hc)
    if err != nil {
        log.Fatal().Err(err).Msg("build provider chain")
    }

    orch, err := orchestrator.New(orchestrator.Options{
        Matcher: matcher.New(store, matcher.Config{
            PrefixMinRatio:   cfg.Matching.PrefixMinRatio,
            TokenMinJaccard:  cfg.Matching.TokenMinJaccard,
            FuzzyMaxDistance: cfg.Matching.FuzzyMaxDistance,
            MaxCandidates:    cfg.Matching.MaxCandidates,
        }),
        Cache:    qcache,
        Provider: providerChain,
        Workers:  cfg.Fetch.Workers,
    })
    if err != nil {
        log.Fatal().Err(err).Msg("orchestrator")
    }

    ctx := context.Background()
    if timeoutSec > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
        defer cancel()
    }

    started := time.Now()
    records := orch.ResolveAndPrice(ctx, mentions)
    log.Info().
        Int("mentions", len(mentions)).
        Dur("elapsed", time.Since(started)).
        Msg("batch complete")

    if err := qcache.Flush(); err != nil {
        log.Warn().Err(err).Msg("flush quote cache")
    }

    if err := writeOutput(records, format, outPath); err != nil {
        log.Fatal().Err(err).Msg("write output")
    }
}

func collectMentions(csvArg, inFile string, hint catalog.Exchange) ([]orchestrator.Mention, error) {
    var mentions []orchestrator.Mention
    for _, m := range splitCSV(csvArg) {
        mentions = append(mentions, orchestrator.Mention{Text: m, Hint: hint})
    }
    if inFile != "" {
        f, err := os.Open(inFile)
        if err != nil {
            return nil, err
        }
        defer f.Close()
        sc := bufio.NewScanner(f)
        for sc.Scan() {
            line := strings.TrimSpace(sc.Text())
            if line == "" {
                continue
            }
            mentions = append(mentions, orchestrator.Mention{Text: line, Hint: hint})
        }
        if err := sc.Err(); err != nil {
            return nil, err
        }
    }
    return mentions, nil
}

func writeOutput(records []orchestrator.Record, format, outPath string) error {
    switch strings.ToLower(format) {
    case "xlsx":
        if outPath == "" {
            return fmt.Errorf("xlsx output needs -out")
        }
        return report.WriteXLSX(outPath, records)
    case "json":
        w, closeFn, err := outWriter(outPath)
        if err != nil {
            return err
        }
        defer closeFn()
        enc := json.NewEncoder(w)
        enc.SetIndent("", "  ")
        return enc.Encode(struct {
            Records []orchestrator.Record `json:"records"`
        }{Records: records})
    case "csv":
        w, closeFn, err := outWriter(outPath)
        if err != nil {
            return err
        }
        defer closeFn()
        return report.WriteCSV(w, records)
    default:
        return fmt.Errorf("unknown format %q", format)
    }
}

func outWriter(path string) (*os.File, func(), error) {
    if path == "" {
        return os.Stdout, func() {}, nil
    }
    f, err := os.Create(path)
    if err != nil {
        return nil, nil, err
    }
    return f, func() { f.Close() }, nil
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
