package main

import (
    "context"
    "encoding/json"
    "net/http"
    "os"
    "os/signal"
    "syscall"
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
)

type resolveRequest struct {
    Mentions []orchestrator.Mention `json:"mentions"`
}

type resolveResponse struct {
    Records []orchestrator.Record `json:"records"`
}

func main() {
    _ = godotenv.Load()

    log.DefaultLogger = log.Logger{
        Level:  log.InfoLevel,
        Writer: &log.ConsoleWriter{ColorOutput: true},
    }

    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        log.Fatal().Err(err).Msg("config")
    }

    store, err := catalog.Load(cfg.Catalog.SnapshotFile)
    if err != nil {
        log.Fatal().Err(err).Msg("load catalog")
    }
    log.Info().Int("instruments", store.Len()).Msg("catalog loaded")

    qcache, err := cache.Open(cfg.Cache.File, time.Duration(cfg.Cache.FreshnessHours)*time.Hour)
    if err != nil {
        log.Fatal().Err(err).Msg("open quote cache")
    }

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

    mux := http.NewServeMux()
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte(`{"status":"ok"}`))
    })
    mux.HandleFunc("/v1/resolve", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodPost {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleResolve(w, r, orch, qcache, cfg.Server.RequestTimeoutSec)
    })

    srv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           withJSONHeaders(recoverPanic(limitBody(mux))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      time.Duration(cfg.Server.RequestTimeoutSec+5) * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Info().Str("port", cfg.Server.Port).Msg("server listening")
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("server")
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    if err := qcache.Flush(); err != nil {
        log.Warn().Err(err).Msg("flush quote cache")
    }
}

func handleResolve(w http.ResponseWriter, r *http.Request, orch *orchestrator.Orchestrator, qcache *cache.Store, timeoutSec int) {
    var body resolveRequest
    dec := json.NewDecoder(r.Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(&body); err != nil {
        http.Error(w, "invalid JSON body", http.StatusBadRequest)
        return
    }
    if len(body.Mentions) == 0 {
        http.Error(w, "mentions cannot be empty", http.StatusBadRequest)
        return
    }
    if len(body.Mentions) > 500 {
        http.Error(w, "too many mentions (max 500)", http.StatusBadRequest)
        return
    }

    ctx, cancel := context.WithTimeout(r.Context(), time.Duration(timeoutSec)*time.Second)
    defer cancel()

    records := orch.ResolveAndPrice(ctx, body.Mentions)
    if err := qcache.Flush(); err != nil {
        log.Warn().Err(err).Msg("flush quote cache")
    }

    w.WriteHeader(http.StatusOK)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(resolveResponse{Records: records})
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "POST,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
    const maxBody = 1 << 20 // 1MB
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method == http.MethodPost && r.Body != nil {
            r.Body = http.MaxBytesReader(w, r.Body, maxBody)
        }
        next.ServeHTTP(w, r)
    })
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
}

