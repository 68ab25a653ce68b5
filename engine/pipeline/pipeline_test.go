package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/riadocs/ria/engine/domain"
)

func hit(id, doc, text string, score float64) domain.ScoredHit {
	return domain.ScoredHit{
		Chunk: domain.Chunk{ChunkID: id, DocName: doc, PageStart: 1, PageEnd: 2, Text: text},
		Score: score,
	}
}

// mockRetriever replays a scripted sequence of result sets and records
// every query and topK it was asked for.
type mockRetriever struct {
	rounds  [][]domain.ScoredHit
	queries []string
	topKs   []int
	err     error
}

func (m *mockRetriever) Search(_ context.Context, query string, topK int) ([]domain.ScoredHit, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.queries = append(m.queries, query)
	m.topKs = append(m.topKs, topK)
	call := len(m.queries) - 1
	if call >= len(m.rounds) {
		return nil, nil
	}
	return m.rounds[call], nil
}

type mockSynth struct {
	answer string
	calls  int
}

func (m *mockSynth) Answer(string, []domain.Chunk) string {
	m.calls++
	return m.answer
}

func newService(r Retriever, s Synthesizer) *Service {
	return New(r, s, DefaultOptions(), nil)
}

const citedAnswer = "- The server needs much RAM. [install.pdf | p.1-2 | chunk: c1]\n"

func TestAsk_SaturationStopsBeforeRoundThree(t *testing.T) {
	same := []domain.ScoredHit{
		hit("c1", "install.pdf", "the server needs much ram", 0.9),
		hit("c2", "install.pdf", "other server content", 0.5),
	}
	r := &mockRetriever{rounds: [][]domain.ScoredHit{same, same, same}}
	s := &mockSynth{answer: citedAnswer}

	resp, err := newService(r, s).Ask(context.Background(), "How much RAM does the server need?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(r.queries) != 2 {
		t.Fatalf("expected exactly 2 retrieval calls, got %d", len(r.queries))
	}
	if resp.Trace.StopReason != domain.StopSaturated {
		t.Errorf("stop reason = %q, want %q", resp.Trace.StopReason, domain.StopSaturated)
	}
	if resp.Trace.Rounds != 2 {
		t.Errorf("rounds = %d, want 2", resp.Trace.Rounds)
	}
	if want := []int{2, 0}; !reflect.DeepEqual(resp.Trace.NewChunksPerRound, want) {
		t.Errorf("new chunks per round = %v, want %v", resp.Trace.NewChunksPerRound, want)
	}
}

func TestAsk_RunsAllRoundsWhenEvidenceKeepsGrowing(t *testing.T) {
	r := &mockRetriever{rounds: [][]domain.ScoredHit{
		{hit("c1", "a.pdf", "the server needs much ram", 0.9)},
		{hit("c2", "b.pdf", "more server details", 0.8)},
		{hit("c3", "c.pdf", "yet more details", 0.7)},
	}}
	s := &mockSynth{answer: citedAnswer}

	resp, err := newService(r, s).Ask(context.Background(), "How much RAM does the server need?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Trace.StopReason != domain.StopMaxRounds {
		t.Errorf("stop reason = %q, want %q", resp.Trace.StopReason, domain.StopMaxRounds)
	}
	if resp.Trace.Rounds != 3 || resp.Trace.TotalUniqueChunks != 3 {
		t.Errorf("rounds=%d unique=%d, want 3/3", resp.Trace.Rounds, resp.Trace.TotalUniqueChunks)
	}
	if want := []int{12, 10, 10}; !reflect.DeepEqual(r.topKs, want) {
		t.Errorf("topK sequence = %v, want %v", r.topKs, want)
	}
}

func TestAsk_RefinedQueryCarriesExtractedEntities(t *testing.T) {
	r := &mockRetriever{rounds: [][]domain.ScoredHit{
		{hit("c1", "a.pdf", "Run stopaiw to stop the server before upgrading memory.", 0.9)},
		{hit("c2", "b.pdf", "unrelated", 0.5)},
	}}
	s := &mockSynth{answer: citedAnswer}

	resp, err := newService(r, s).Ask(context.Background(), "How do I stop the server to add memory?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(r.queries) < 2 {
		t.Fatalf("expected at least 2 retrieval calls, got %d", len(r.queries))
	}
	if !strings.Contains(r.queries[1], "stopaiw") {
		t.Errorf("round 2 query %q missing extracted command", r.queries[1])
	}
	if !strings.HasPrefix(r.queries[1], "How do I stop the server to add memory?") {
		t.Errorf("refined query must start with the original question, got %q", r.queries[1])
	}
	if len(resp.RefinedQueries) == 0 || resp.RefinedQueries[0] != r.queries[1] {
		t.Errorf("refined queries %v do not match issued query %q", resp.RefinedQueries, r.queries[1])
	}
}

func TestAsk_NoEvidence(t *testing.T) {
	r := &mockRetriever{rounds: [][]domain.ScoredHit{nil, nil, nil}}
	s := &mockSynth{answer: citedAnswer}

	resp, err := newService(r, s).Ask(context.Background(), "Where is the flux capacitor?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Trace.StopReason != domain.StopNoEvidence {
		t.Errorf("stop reason = %q, want %q", resp.Trace.StopReason, domain.StopNoEvidence)
	}
	if !strings.Contains(resp.Answer, "Not enough evidence") {
		t.Errorf("expected no-evidence answer, got:\n%s", resp.Answer)
	}
	if !resp.Verification.NeedsConfirmation {
		t.Error("no-evidence response must need confirmation")
	}
	if s.calls != 0 {
		t.Errorf("synthesizer must not run without evidence, ran %d times", s.calls)
	}
}

func TestAsk_LowOverlapShortCircuit(t *testing.T) {
	r := &mockRetriever{rounds: [][]domain.ScoredHit{
		{hit("c1", "a.pdf", "duplex trays and stapler options", 0.9)},
		{hit("c1", "a.pdf", "duplex trays and stapler options", 0.9)},
	}}
	s := &mockSynth{answer: citedAnswer}

	resp, err := newService(r, s).Ask(context.Background(), "What is the minimum RAM requirement?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Trace.StopReason != domain.StopLowOverlap {
		t.Errorf("stop reason = %q, want %q", resp.Trace.StopReason, domain.StopLowOverlap)
	}
	if !strings.Contains(resp.Answer, "does not clearly match") {
		t.Errorf("expected low-overlap answer, got:\n%s", resp.Answer)
	}
	if s.calls != 0 {
		t.Errorf("synthesizer must not run below the gate, ran %d times", s.calls)
	}
}

func TestAsk_ConfirmationBannerWrapsWeakAnswer(t *testing.T) {
	r := &mockRetriever{rounds: [][]domain.ScoredHit{
		{hit("c1", "a.pdf", "the server needs much ram", 0.9)},
		{hit("c1", "a.pdf", "the server needs much ram", 0.9)},
	}}
	s := &mockSynth{answer: "- A cited claim about the server. [a.pdf | p.1-2 | chunk: c1]\n- An uncited claim about configuration values.\n"}

	resp, err := newService(r, s).Ask(context.Background(), "How much RAM does the server need?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !resp.Verification.NeedsConfirmation {
		t.Fatal("expected needs_confirmation with an uncited claim")
	}
	if !strings.Contains(resp.Answer, "manual confirmation recommended") {
		t.Errorf("missing confirmation banner:\n%s", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "A cited claim about the server.") {
		t.Errorf("original answer must be preserved inside the banner:\n%s", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "An uncited claim about configuration values.") {
		t.Errorf("unsupported claim must be listed verbatim:\n%s", resp.Answer)
	}
}

func TestAsk_FullCoverageLeavesAnswerUntouched(t *testing.T) {
	r := &mockRetriever{rounds: [][]domain.ScoredHit{
		{hit("c1", "a.pdf", "the server needs much ram", 0.9)},
		{hit("c1", "a.pdf", "the server needs much ram", 0.9)},
	}}
	s := &mockSynth{answer: citedAnswer}

	resp, err := newService(r, s).Ask(context.Background(), "How much RAM does the server need?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Verification.NeedsConfirmation {
		t.Errorf("fully cited answer should not need confirmation: %+v", resp.Verification)
	}
	if resp.Answer != citedAnswer {
		t.Errorf("answer was modified:\ngot  %q\nwant %q", resp.Answer, citedAnswer)
	}
	if resp.Verification.CitationCoverage != 1.0 {
		t.Errorf("coverage = %v, want 1.0", resp.Verification.CitationCoverage)
	}
}

func TestAsk_RetrieverErrorAborts(t *testing.T) {
	boom := errors.New("qdrant unavailable")
	r := &mockRetriever{err: boom}

	_, err := newService(r, &mockSynth{}).Ask(context.Background(), "any question here")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped retriever error, got %v", err)
	}
}

func TestAsk_RejectsInvalidQuestions(t *testing.T) {
	r := &mockRetriever{}
	svc := newService(r, &mockSynth{})

	if _, err := svc.Ask(context.Background(), "   "); !errors.Is(err, domain.ErrEmptyQuestion) {
		t.Errorf("blank question: got %v, want ErrEmptyQuestion", err)
	}
	if _, err := svc.Ask(context.Background(), strings.Repeat("x", 2001)); !errors.Is(err, domain.ErrQuestionTooLong) {
		t.Errorf("oversized question: got %v, want ErrQuestionTooLong", err)
	}
	if len(r.queries) != 0 {
		t.Errorf("invalid questions must never reach retrieval, got %d calls", len(r.queries))
	}
}

func TestAsk_Deterministic(t *testing.T) {
	script := [][]domain.ScoredHit{
		{hit("c1", "a.pdf", "the server needs much ram and stopaiw usage", 0.9),
			hit("c2", "b.pdf", "server sizing notes", 0.7)},
		{hit("c3", "c.pdf", "additional server notes", 0.6)},
		{hit("c3", "c.pdf", "additional server notes", 0.6)},
	}
	run := func() *Response {
		r := &mockRetriever{rounds: script}
		resp, err := newService(r, &mockSynth{answer: citedAnswer}).Ask(context.Background(), "How much RAM does the server need?")
		if err != nil {
			t.Fatalf("Ask: %v", err)
		}
		return resp
	}

	first := run()
	for i := 0; i < 10; i++ {
		if got := run(); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged:\ngot  %+v\nwant %+v", i, got, first)
		}
	}
}

func TestAsk_DiversityCapAppliedPerRound(t *testing.T) {
	r := &mockRetriever{rounds: [][]domain.ScoredHit{
		{
			hit("c1", "a.pdf", "the server needs much ram", 0.9),
			hit("c2", "a.pdf", "server details", 0.8),
			hit("c3", "a.pdf", "even more from same doc", 0.7),
			hit("c4", "b.pdf", "other doc content", 0.6),
		},
		{hit("c1", "a.pdf", "the server needs much ram", 0.9)},
	}}

	resp, err := newService(r, &mockSynth{answer: citedAnswer}).Ask(context.Background(), "How much RAM does the server need?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	perDoc := make(map[string]int)
	for _, h := range resp.Round1 {
		perDoc[h.DocName]++
	}
	if perDoc["a.pdf"] != 2 || perDoc["b.pdf"] != 1 {
		t.Errorf("per-doc counts = %v, want a.pdf:2 b.pdf:1", perDoc)
	}
	if resp.Trace.TotalUniqueChunks != 3 {
		t.Errorf("unique chunks = %d, want 3 (capped)", resp.Trace.TotalUniqueChunks)
	}
}
