// Package main implements the RIA question-answering API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/riadocs/ria/engine/catalog"
	"github.com/riadocs/ria/engine/corpus"
	"github.com/riadocs/ria/engine/domain"
	"github.com/riadocs/ria/engine/lexical"
	"github.com/riadocs/ria/engine/pipeline"
	"github.com/riadocs/ria/engine/retrieval"
	"github.com/riadocs/ria/engine/semantic"
	"github.com/riadocs/ria/engine/synthesis"
	"github.com/riadocs/ria/pkg/metrics"
	"github.com/riadocs/ria/pkg/mid"
	"github.com/riadocs/ria/pkg/ollama"
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	OllamaURL   string
	OllamaModel string
	Neo4jURL    string
	Neo4jUser   string
	Neo4jPass   string
	QdrantURL   string
	Collection  string
	CorpusPath  string
	CORSOrigin  string
	AskRPS      float64
}

func loadConfig() Config {
	return Config{
		Port:        envOr("PORT", "8080"),
		OllamaURL:   envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: envOr("OLLAMA_MODEL", ollama.DefaultModel),
		Neo4jURL:    envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:   envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:   envOr("NEO4J_PASS", "password"),
		QdrantURL:   envOr("QDRANT_URL", "localhost:6334"),
		Collection:  envOr("QDRANT_COLLECTION", "ria_chunks"),
		CorpusPath:  envOr("CORPUS_PATH", "data/chunks.jsonl"),
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),
		AskRPS:      10,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(loadConfig(), logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Corpus snapshot and lexical index ---
	store, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	logger.Info("corpus loaded", "path", cfg.CorpusPath, "chunks", store.Len())
	lexIndex := lexical.NewIndex(store.Texts())

	// --- Qdrant ---
	vectors, err := semantic.NewStore(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectors.Close()

	// --- Ollama embedder ---
	embedOpts := ollama.DefaultOptions()
	embedOpts.Model = cfg.OllamaModel
	embedder := ollama.New(cfg.OllamaURL, embedOpts)

	// --- Neo4j catalog ---
	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)
	cat := catalog.New(neo4jDriver, logger)

	// --- Pipeline ---
	retriever := retrieval.New(lexIndex, semantic.NewRanker(embedder, vectors), store, logger)
	svc := pipeline.New(retriever, synthesis.New(), pipeline.DefaultOptions(), logger)

	// --- Metrics ---
	reg := metrics.New()
	askLatency := reg.Histogram("ria_ask_seconds", "ask request latency", nil)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth(store))
	mux.Handle("POST /api/ask", mid.Chain(
		handleAsk(svc, reg, askLatency, logger),
		mid.RateLimit(cfg.AskRPS, 5),
	))
	mux.HandleFunc("GET /api/docs", handleDocs(cat, logger))
	mux.HandleFunc("GET /api/docs/{name}/sections", handleSections(cat, logger))
	mux.HandleFunc("GET /api/chunks/{id}", handleChunk(store))
	mux.HandleFunc("GET /api/stats", handleStats(cat, store, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("ria-api"),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(store *corpus.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"chunks": store.Len(),
		})
	}
}

// AskRequest is the JSON body for POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

func handleAsk(svc *pipeline.Service, reg *metrics.Registry, latency *metrics.Histogram, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		start := time.Now()
		resp, err := svc.Ask(r.Context(), req.Question)
		latency.Since(start)

		if err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) || errors.Is(err, domain.ErrEmptyQuestion) || errors.Is(err, domain.ErrQuestionTooLong) {
				http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadRequest)
				return
			}
			logger.Error("ask failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}

		reg.Counter(metrics.WithLabels("ria_asks_total", "stop_reason", string(resp.Trace.StopReason)), "ask outcomes by stop reason").Inc()
		if resp.Verification.NeedsConfirmation {
			reg.Counter("ria_ask_confirmations_total", "answers flagged for manual confirmation").Inc()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// DocsResponse is the JSON response for GET /api/docs.
type DocsResponse struct {
	Documents []DocEntry `json:"documents"`
}

// DocEntry is one catalog document with its cross-references.
type DocEntry struct {
	catalog.Document
	References []string `json:"references,omitempty"`
}

func handleSections(cat *catalog.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sections, err := cat.Sections(r.Context(), r.PathValue("name"))
		if err != nil {
			logger.Error("sections lookup failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"sections": sections})
	}
}

// handleChunk resolves a cited chunk ID back to its text and location.
func handleChunk(store *corpus.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := store.IndexOf(r.PathValue("id"))
		if err != nil {
			http.Error(w, `{"error":"unknown chunk"}`, http.StatusNotFound)
			return
		}
		chunk, err := store.Chunk(idx)
		if err != nil {
			http.Error(w, `{"error":"unknown chunk"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chunk)
	}
}

func handleStats(cat *catalog.Store, store *corpus.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := cat.Stats(r.Context())
		if err != nil {
			logger.Error("stats failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"catalog": stats,
			"chunks":  store.Len(),
		})
	}
}

func handleDocs(cat *catalog.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := cat.ListDocuments(r.Context())
		if err != nil {
			logger.Error("list documents failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}

		entries := make([]DocEntry, len(docs))
		for i, d := range docs {
			refs, err := cat.References(r.Context(), d.Name)
			if err != nil {
				logger.Warn("references lookup failed", "doc", d.Name, "err", err)
			}
			entries[i] = DocEntry{Document: d, References: refs}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(DocsResponse{Documents: entries})
	}
}
