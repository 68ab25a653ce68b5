// Package pipeline orchestrates the iterative evidence-retrieval-and-
// verification loop: bounded multi-round hybrid retrieval with
// deterministic query refinement between rounds, an evidence-sufficiency
// gate, template answer synthesis, and citation-coverage verification.
// All per-request state lives in Ask's stack frame and dies with the
// response; the pipeline itself is stateless and safe for concurrent use.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/riadocs/ria/engine/domain"
	"github.com/riadocs/ria/engine/gate"
	"github.com/riadocs/ria/engine/refine"
	"github.com/riadocs/ria/engine/retrieval"
	"github.com/riadocs/ria/engine/verify"
)

// Retriever is the hybrid search collaborator.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]domain.ScoredHit, error)
}

// Synthesizer turns evidence into a cited markdown answer.
type Synthesizer interface {
	Answer(question string, evidence []domain.Chunk) string
}

// Options bound the retrieval loop and its thresholds.
type Options struct {
	MaxRounds        int
	TopKFirstRound   int
	TopKLaterRounds  int
	MaxPerDoc        int
	OverlapThreshold float64
	MinCoverage      float64
	TraceSampleSize  int
}

// DefaultOptions returns the production parameters.
func DefaultOptions() Options {
	return Options{
		MaxRounds:        3,
		TopKFirstRound:   12,
		TopKLaterRounds:  10,
		MaxPerDoc:        2,
		OverlapThreshold: gate.DefaultThreshold,
		MinCoverage:      verify.DefaultMinCoverage,
		TraceSampleSize:  5,
	}
}

// Service drives the retrieval loop. One Service serves many concurrent
// requests; per-request state is local to each Ask call.
type Service struct {
	retriever Retriever
	synth     Synthesizer
	opts      Options
	logger    *slog.Logger
}

// New creates a pipeline Service.
func New(retriever Retriever, synth Synthesizer, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{retriever: retriever, synth: synth, opts: opts, logger: logger}
}

// plan is the fixed request plan surfaced to clients.
var plan = []string{
	"Identify intent and key constraints from the question.",
	"Retrieve evidence (iterative hybrid retrieval).",
	"Extract entities (product terms/commands/keywords) from evidence.",
	"Refine the query and retrieve again until evidence stabilizes.",
	"Synthesize a step-by-step answer grounded in evidence with citations.",
	"Verify citations and warn when coverage is weak.",
}

// Ask answers a question by running the full pipeline. Collaborator
// failures abort the request and are returned unmodified to the
// transport layer; every other condition is encoded in the Response.
func (s *Service) Ask(ctx context.Context, question string) (*Response, error) {
	q, err := domain.ValidateQuestion(question)
	if err != nil {
		return nil, err
	}

	var (
		pool           = retrieval.NewPool()
		currentQuery   = q
		entities       domain.EntitySet
		refinedQueries []string
		newCounts      []int
		steps          []domain.TraceStep
		round1Hits     []domain.ScoredHit
		round2Hits     []domain.ScoredHit
		stopReason     = domain.StopMaxRounds
	)

	for round := 1; round <= s.opts.MaxRounds; round++ {
		topK := s.opts.TopKLaterRounds
		if round == 1 {
			topK = s.opts.TopKFirstRound
		}

		hits, err := s.retriever.Search(ctx, currentQuery, topK)
		if err != nil {
			return nil, fmt.Errorf("pipeline: round %d: %w", round, err)
		}
		hits = retrieval.ByDocument(hits, s.opts.MaxPerDoc)

		switch round {
		case 1:
			round1Hits = hits
		case 2:
			round2Hits = hits
		}

		newCount := pool.Merge(hits)
		newCounts = append(newCounts, newCount)
		steps = append(steps, domain.TraceStep{
			Round:     round,
			Query:     currentQuery,
			NewChunks: newCount,
			TopHits:   sampleHits(hits, s.opts.TraceSampleSize),
		})

		s.logger.Info("retrieval round",
			"round", round,
			"topk", topK,
			"new_chunks", newCount,
			"pool_size", pool.Len(),
		)

		// A round after the first that adds nothing means the corpus has
		// no more to give for this question.
		if round > 1 && newCount == 0 {
			stopReason = domain.StopSaturated
			break
		}

		// Refine from the entire pool so later rounds benefit from all
		// prior evidence, not only the newest batch.
		entities = refine.Extract(pool.Values())
		currentQuery = refine.BuildQuery(q, entities)
		refinedQueries = append(refinedQueries, currentQuery)
	}

	evidence := pool.Values()
	trace := domain.IterationTrace{
		Rounds:            len(newCounts),
		NewChunksPerRound: newCounts,
		StopReason:        stopReason,
		FinalQuery:        currentQuery,
		TotalUniqueChunks: pool.Len(),
		Steps:             steps,
	}

	resp := &Response{
		Plan:           plan,
		Question:       q,
		Round1:         roundPayload(round1Hits),
		Round2:         roundPayload(round2Hits),
		Entities:       entities,
		RefinedQueries: refinedQueries,
	}

	if len(evidence) == 0 {
		trace.StopReason = domain.StopNoEvidence
		resp.Answer = noEvidenceAnswer
		resp.Verification = failedVerification()
		resp.Trace = trace
		return resp, nil
	}

	evidenceTexts := make([]string, len(evidence))
	for i, c := range evidence {
		evidenceTexts[i] = c.Text
	}
	overlap, sufficient := gate.Sufficient(q, strings.Join(evidenceTexts, "\n"), s.opts.OverlapThreshold)
	trace.EvidenceOverlap = overlap

	if !sufficient {
		trace.StopReason = domain.StopLowOverlap
		resp.Answer = lowOverlapAnswer
		resp.Verification = failedVerification()
		resp.Trace = trace
		s.logger.Info("gate rejected evidence", "overlap", overlap, "threshold", s.opts.OverlapThreshold)
		return resp, nil
	}

	answer := s.synth.Answer(q, evidence)
	verification := verify.Citations(answer, s.opts.MinCoverage)
	if verification.NeedsConfirmation {
		answer = wrapWithConfirmation(answer, verification.UnsupportedTexts)
	}

	resp.Answer = answer
	resp.Verification = verification
	resp.Trace = trace

	s.logger.Info("pipeline done",
		"rounds", trace.Rounds,
		"stop_reason", trace.StopReason,
		"coverage", verification.CitationCoverage,
		"needs_confirmation", verification.NeedsConfirmation,
	)
	return resp, nil
}

func sampleHits(hits []domain.ScoredHit, n int) []domain.TraceHit {
	if len(hits) > n {
		hits = hits[:n]
	}
	out := make([]domain.TraceHit, len(hits))
	for i, h := range hits {
		out[i] = domain.TraceHit{DocName: h.Chunk.DocName, ChunkID: h.Chunk.ChunkID}
	}
	return out
}

func failedVerification() domain.VerificationResult {
	return domain.VerificationResult{NeedsConfirmation: true}
}
