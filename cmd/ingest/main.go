// Command ingest builds the retrieval corpus: it reads parsed manual
// JSON files from a directory and/or consumes them from NATS, runs each
// through the chunk-embed-store pipeline, and registers documents in the
// catalog.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/riadocs/ria/engine/catalog"
	"github.com/riadocs/ria/engine/ingest"
	"github.com/riadocs/ria/engine/semantic"
	"github.com/riadocs/ria/pkg/metrics"
	"github.com/riadocs/ria/pkg/natsutil"
	"github.com/riadocs/ria/pkg/ollama"
)

// vectorDims matches nomic-embed-text.
const vectorDims = 768

var met = metrics.New()

var (
	mDocsTotal    = met.Counter("ria_ingest_docs_total", "documents ingested")
	mDocsFailed   = met.Counter("ria_ingest_docs_failed_total", "documents that failed the pipeline")
	mChunksTotal  = met.Counter("ria_ingest_chunks_total", "chunks written to the corpus")
	mPipelineDur  = met.Histogram("ria_ingest_pipeline_seconds", "per-document pipeline time", nil)
	mCorpusChunks = met.Gauge("ria_ingest_corpus_chunks", "total chunks in the corpus snapshot")
)

func main() {
	var (
		dataDir     = flag.String("dir", "", "directory of parsed-doc JSON files to ingest once")
		natsURL     = flag.String("nats", "", "NATS URL to consume parsed docs from (empty disables)")
		corpusPath  = flag.String("corpus", "data/chunks.jsonl", "corpus JSONL output path")
		ollamaURL   = flag.String("ollama", "http://localhost:11434", "Ollama base URL")
		ollamaModel = flag.String("model", ollama.DefaultModel, "Ollama embedding model")
		neo4jURL    = flag.String("neo4j", "neo4j://localhost:7687", "Neo4j bolt URL")
		neo4jUser   = flag.String("neo4j-user", "neo4j", "Neo4j username")
		neo4jPass   = flag.String("neo4j-pass", "password", "Neo4j password")
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		collection  = flag.String("collection", "ria_chunks", "Qdrant collection name")
		enqueue     = flag.Bool("enqueue", false, "publish -dir files to NATS instead of ingesting locally")
		recreate    = flag.Bool("recreate", false, "drop and recreate the vector collection first")
		metricsPort = flag.Int("metrics-port", 9091, "metrics server port")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	met.ServeAsync(*metricsPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *enqueue {
		if *natsURL == "" || *dataDir == "" {
			log.Error("enqueue mode needs both -nats and -dir")
			os.Exit(1)
		}
		nc, err := nats.Connect(*natsURL, nats.Name("ria-ingest-enqueue"))
		if err != nil {
			log.Error("nats connect failed", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		if err := publishDirectory(ctx, *dataDir, nc, log); err != nil {
			log.Error("enqueue failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// --- Neo4j ---
	driver, err := neo4j.NewDriverWithContext(*neo4jURL, neo4j.BasicAuth(*neo4jUser, *neo4jPass, ""))
	if err != nil {
		log.Error("neo4j connect failed", "error", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Error("neo4j verify failed", "error", err)
		os.Exit(1)
	}

	// --- Qdrant ---
	vs, err := semantic.NewStore(*qdrantAddr, *collection)
	if err != nil {
		log.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer vs.Close()
	if *recreate {
		if err := vs.RecreateCollection(ctx, vectorDims); err != nil {
			log.Error("qdrant recreate failed", "error", err)
			os.Exit(1)
		}
	} else if err := vs.EnsureCollection(ctx, vectorDims); err != nil {
		log.Error("qdrant ensure collection failed", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Qdrant", "collection", *collection, "dims", vectorDims)

	// --- Corpus writer ---
	writer, err := ingest.OpenCorpusWriter(*corpusPath)
	if err != nil {
		log.Error("open corpus failed", "error", err)
		os.Exit(1)
	}
	defer writer.Close()

	embedOpts := ollama.DefaultOptions()
	embedOpts.Model = *ollamaModel
	deps := ingest.Deps{
		Embedder: ollama.New(*ollamaURL, embedOpts),
		Vectors:  vs,
		Catalog:  catalog.New(driver, log),
		Corpus:   writer,
		Logger:   log,
	}

	if *dataDir != "" {
		if err := ingestDirectory(ctx, *dataDir, deps, log); err != nil {
			log.Error("directory ingest failed", "error", err)
			os.Exit(1)
		}
	}

	if *natsURL != "" {
		nc, err := nats.Connect(*natsURL, nats.Name("ria-ingest"))
		if err != nil {
			log.Error("nats connect failed", "error", err)
			os.Exit(1)
		}
		defer nc.Close()

		sub, err := ingest.StartConsumer(nc, deps)
		if err != nil {
			log.Error("subscribe failed", "error", err)
			os.Exit(1)
		}
		defer sub.Unsubscribe()

		log.Info("consuming parsed docs", "subject", ingest.Subject)
		<-ctx.Done()
		log.Info("shutdown signal received")
	}
}

// publishDirectory sends every *.json file in dir to the ingest subject
// instead of processing it in this process.
func publishDirectory(ctx context.Context, dir string, nc *nats.Conn, log *slog.Logger) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(paths)

	for _, path := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("read failed", "path", path, "error", err)
			continue
		}
		var doc ingest.ParsedDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			log.Error("parse failed", "path", path, "error", err)
			continue
		}
		if err := natsutil.Publish(ctx, nc, ingest.Subject, doc); err != nil {
			return err
		}
		log.Info("enqueued", "doc", doc.DocName)
	}
	return nc.Flush()
}

// ingestDirectory runs every *.json file in dir through the pipeline in
// name order, so repeated runs assign the same corpus indexes.
func ingestDirectory(ctx context.Context, dir string, deps ingest.Deps, log *slog.Logger) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(paths)

	pipeline := ingest.NewPipeline(deps)
	for _, path := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("read failed", "path", path, "error", err)
			mDocsFailed.Inc()
			continue
		}
		var doc ingest.ParsedDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			log.Error("parse failed", "path", path, "error", err)
			mDocsFailed.Inc()
			continue
		}

		start := time.Now()
		before := deps.Corpus.Len()
		if _, err := pipeline(ctx, doc).Unwrap(); err != nil {
			log.Error("pipeline failed", "doc", doc.DocName, "error", err)
			mDocsFailed.Inc()
			continue
		}
		mPipelineDur.Since(start)
		mDocsTotal.Inc()
		mChunksTotal.Add(int64(deps.Corpus.Len() - before))
		mCorpusChunks.Set(int64(deps.Corpus.Len()))
		log.Info("ingested", "doc", doc.DocName, "chunks", deps.Corpus.Len()-before)
	}
	return nil
}
