package rag

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-tutor-be/pkg/stream"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopTestLogger struct{}

func (nopTestLogger) Debug(string, string, map[string]interface{}) {}
func (nopTestLogger) Info(string, string, map[string]interface{})  {}
func (nopTestLogger) Warn(string, string, map[string]interface{})  {}
func (nopTestLogger) Error(string, string, map[string]interface{}) {}
func (nopTestLogger) Sync() error                                  { return nil }

// fakeRetriever replays one canned result set per retrieval attempt. The last
// set repeats if retrieval runs more often than scripted.
type fakeRetriever struct {
	results [][]RetrievedDocument
	err     error
	calls   int
	queries []string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, allowedDocIDs []uuid.UUID, topK int) ([]RetrievedDocument, error) {
	f.calls++
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx], nil
}

type fakeGenerator struct {
	analysis  *QueryAnalysis
	result    *GenerationResult
	verdict   *Verdict
	verifyErr error
}

func (f *fakeGenerator) Analyze(ctx context.Context, query string) (*QueryAnalysis, error) {
	if f.analysis == nil {
		return &QueryAnalysis{Intent: "factual", Complexity: "simple"}, nil
	}
	return f.analysis, nil
}

func (f *fakeGenerator) Generate(ctx context.Context, query string, docs []RetrievedDocument) (*GenerationResult, error) {
	if f.result == nil {
		return &GenerationResult{Answer: "the answer", Confidence: 0.9}, nil
	}
	return f.result, nil
}

func (f *fakeGenerator) Verify(ctx context.Context, answer string, docs []RetrievedDocument) (*Verdict, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verdict == nil {
		return &Verdict{}, nil
	}
	return f.verdict, nil
}

// recordingSink captures every emitted event in order.
type recordingSink struct {
	mu     sync.Mutex
	events []stream.Event
}

func (r *recordingSink) Emit(eventType string, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, stream.Event{Type: eventType, Payload: payload})
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recordingSink) last() stream.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recordingSink) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CapabilityTimeout = 5 * time.Second
	return cfg
}

func relevantDocs() []RetrievedDocument {
	return []RetrievedDocument{
		{SourceID: "doc-1", SourceTitle: "Biology", Content: "Mitochondria produce ATP.", RelevanceScore: 0.92},
		{SourceID: "doc-2", SourceTitle: "Biology", Content: "The cell membrane is selective.", RelevanceScore: 0.81},
	}
}

func irrelevantDocs() []RetrievedDocument {
	return []RetrievedDocument{
		{SourceID: "doc-3", SourceTitle: "History", Content: "The treaty was signed in 1648.", RelevanceScore: 0.12},
	}
}

func newTestState(query string) *SessionState {
	return NewSessionState(uuid.New(), uuid.New(), uuid.New(), query, nil)
}

func TestRunHappyPath(t *testing.T) {
	retriever := &fakeRetriever{results: [][]RetrievedDocument{relevantDocs()}}
	generator := &fakeGenerator{}
	sink := &recordingSink{}
	o := NewOrchestrator(retriever, generator, NopStore{}, testConfig(), nopTestLogger{})

	state := newTestState("How do cells make energy?")
	final := o.Run(context.Background(), state, sink)

	require.True(t, final.IsComplete)
	assert.Empty(t, final.ErrorReason)
	assert.NotNil(t, final.CompletedAt)
	assert.Equal(t, 1, final.RetrievalAttempts)
	assert.Equal(t, 2, len(final.RelevantDocuments))
	require.NotNil(t, final.Generation)
	assert.True(t, final.Generation.Verified)

	last := sink.last()
	assert.Equal(t, stream.EventDone, last.Type)
	assert.Equal(t, "completed", last.Payload["status"])
	assert.Equal(t, "the answer", last.Payload["answer"])
	assert.Equal(t, 1, sink.count(stream.EventDone))
	assert.Equal(t, 0, sink.count(stream.EventErrorMessage))
	assert.Equal(t, 1, sink.count(stream.EventValidationResult))
}

func TestRunRewriteThenSucceed(t *testing.T) {
	retriever := &fakeRetriever{results: [][]RetrievedDocument{
		irrelevantDocs(),
		relevantDocs(),
	}}
	sink := &recordingSink{}
	o := NewOrchestrator(retriever, &fakeGenerator{}, NopStore{}, testConfig(), nopTestLogger{})

	state := newTestState("Explain the basics of photosynthesis")
	final := o.Run(context.Background(), state, sink)

	require.True(t, final.IsComplete)
	assert.Empty(t, final.ErrorReason)
	assert.Equal(t, 2, final.RetrievalAttempts)
	assert.Equal(t, 2, retriever.calls)
	assert.NotEqual(t, final.OriginalQuery, final.CurrentQuery, "rewrite must change the live query")
	assert.Equal(t, final.OriginalQuery, retriever.queries[0])
	assert.Equal(t, final.CurrentQuery, retriever.queries[1])
	assert.Equal(t, 1, sink.count(stream.EventErrorRetry))
	assert.Equal(t, stream.EventDone, sink.last().Type)
}

func TestRunExhaustsRetrievalAttempts(t *testing.T) {
	retriever := &fakeRetriever{results: [][]RetrievedDocument{irrelevantDocs()}}
	sink := &recordingSink{}
	cfg := testConfig()
	o := NewOrchestrator(retriever, &fakeGenerator{}, NopStore{}, cfg, nopTestLogger{})

	state := newTestState("Something the corpus does not cover")
	final := o.Run(context.Background(), state, sink)

	require.True(t, final.IsComplete)
	assert.Equal(t, ErrNoRelevantDocuments.Error(), final.ErrorReason)
	assert.True(t, final.Failed())
	assert.Equal(t, cfg.MaxRetrievalAttempts, final.RetrievalAttempts)
	assert.Nil(t, final.Generation)

	types := sink.types()
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, stream.EventErrorMessage, types[len(types)-2])
	assert.Equal(t, stream.EventDone, types[len(types)-1])
	assert.Equal(t, "failed", sink.last().Payload["status"])
	assert.Equal(t, 1, sink.count(stream.EventDone))
	assert.Equal(t, cfg.MaxRetrievalAttempts, sink.count(stream.EventSourceRetrieving))
}

func TestRunRewriteDisabledFailsOnFirstMiss(t *testing.T) {
	retriever := &fakeRetriever{results: [][]RetrievedDocument{irrelevantDocs()}}
	cfg := testConfig()
	cfg.EnableRewrite = false
	sink := &recordingSink{}
	o := NewOrchestrator(retriever, &fakeGenerator{}, NopStore{}, cfg, nopTestLogger{})

	final := o.Run(context.Background(), newTestState("anything"), sink)

	assert.True(t, final.Failed())
	assert.Equal(t, 1, final.RetrievalAttempts)
	assert.Equal(t, 0, sink.count(stream.EventErrorRetry))
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retriever := &fakeRetriever{results: [][]RetrievedDocument{relevantDocs()}}
	sink := &recordingSink{}
	o := NewOrchestrator(retriever, &fakeGenerator{}, NopStore{}, testConfig(), nopTestLogger{})

	final := o.Run(ctx, newTestState("never starts"), sink)

	require.True(t, final.IsComplete)
	assert.Equal(t, ErrCancelled.Error(), final.ErrorReason)
	assert.Equal(t, 0, retriever.calls)
	assert.Equal(t, stream.EventDone, sink.last().Type)
}

// countingStore records every Update and where the first terminal write
// landed, so tests can assert nothing is written after termination.
type countingStore struct {
	mu         sync.Mutex
	updates    int
	terminalAt int
}

func (s *countingStore) Create(context.Context, *SessionState) error { return nil }

func (s *countingStore) Update(_ context.Context, state *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if state.IsComplete && s.terminalAt == 0 {
		s.terminalAt = s.updates
	}
	return nil
}

func (s *countingStore) Get(context.Context, uuid.UUID) (*SessionState, error) {
	return nil, nil
}

// cancellingRetriever aborts the session from inside the retrieval call,
// the way a client disconnect lands while the vector search is running.
type cancellingRetriever struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingRetriever) Retrieve(ctx context.Context, query string, allowedDocIDs []uuid.UUID, topK int) ([]RetrievedDocument, error) {
	c.calls++
	c.cancel()
	return nil, ctx.Err()
}

func TestRunCancellationMidRetrieve(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	retriever := &cancellingRetriever{cancel: cancel}
	store := &countingStore{}
	sink := &recordingSink{}
	o := NewOrchestrator(retriever, &fakeGenerator{}, store, testConfig(), nopTestLogger{})

	final := o.Run(ctx, newTestState("interrupted while searching"), sink)

	require.True(t, final.IsComplete)
	assert.Equal(t, ErrCancelled.Error(), final.ErrorReason)
	assert.Equal(t, 1, retriever.calls)

	// One checkpoint after analysis, then the terminal write, and nothing
	// after it.
	assert.Equal(t, 2, store.updates)
	assert.Equal(t, store.updates, store.terminalAt)

	types := sink.types()
	assert.Equal(t, stream.EventErrorMessage, types[len(types)-2])
	assert.Equal(t, stream.EventDone, types[len(types)-1])
	assert.Equal(t, 1, sink.count(stream.EventDone))
}

func TestRunIterationLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 1

	retriever := &fakeRetriever{results: [][]RetrievedDocument{relevantDocs()}}
	sink := &recordingSink{}
	o := NewOrchestrator(retriever, &fakeGenerator{}, NopStore{}, cfg, nopTestLogger{})

	final := o.Run(context.Background(), newTestState("anything"), sink)

	require.True(t, final.IsComplete)
	assert.Equal(t, ErrIterationLimit.Error(), final.ErrorReason)
	assert.Equal(t, 1, sink.count(stream.EventDone))
}

func TestRunRetrievalFailureIsTerminal(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("vector store unreachable")}
	sink := &recordingSink{}
	o := NewOrchestrator(retriever, &fakeGenerator{}, NopStore{}, testConfig(), nopTestLogger{})

	final := o.Run(context.Background(), newTestState("anything"), sink)

	require.True(t, final.Failed())
	assert.Contains(t, final.ErrorReason, "vector store unreachable")
	assert.Equal(t, stream.EventDone, sink.last().Type)
}

func TestRunVerificationIsFlagOnly(t *testing.T) {
	retriever := &fakeRetriever{results: [][]RetrievedDocument{relevantDocs()}}
	generator := &fakeGenerator{
		verdict: &Verdict{HasHallucination: true, Details: "claim 2 not in sources"},
	}
	sink := &recordingSink{}
	o := NewOrchestrator(retriever, generator, NopStore{}, testConfig(), nopTestLogger{})

	final := o.Run(context.Background(), newTestState("anything"), sink)

	// A hallucination verdict is recorded and surfaced but never fails the
	// session.
	require.True(t, final.IsComplete)
	assert.Empty(t, final.ErrorReason)
	require.NotNil(t, final.Generation)
	assert.True(t, final.Generation.HasHallucination)
	assert.Equal(t, "claim 2 not in sources", final.Generation.HallucinationDetails)

	last := sink.last()
	assert.Equal(t, "completed", last.Payload["status"])
	assert.Equal(t, true, last.Payload["has_hallucination"])
}

func TestRunVerificationDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableVerification = false

	retriever := &fakeRetriever{results: [][]RetrievedDocument{relevantDocs()}}
	sink := &recordingSink{}
	o := NewOrchestrator(retriever, &fakeGenerator{}, NopStore{}, cfg, nopTestLogger{})

	final := o.Run(context.Background(), newTestState("anything"), sink)

	require.True(t, final.IsComplete)
	assert.Empty(t, final.ErrorReason)
	assert.False(t, final.Generation.Verified)
	assert.Equal(t, 0, sink.count(stream.EventValidationStart))
	assert.Equal(t, 0, sink.count(stream.EventValidationResult))
}

func TestRunNilSink(t *testing.T) {
	retriever := &fakeRetriever{results: [][]RetrievedDocument{relevantDocs()}}
	o := NewOrchestrator(retriever, &fakeGenerator{}, NopStore{}, testConfig(), nopTestLogger{})

	final := o.Run(context.Background(), newTestState("anything"), nil)

	assert.True(t, final.IsComplete)
	assert.Empty(t, final.ErrorReason)
}

func TestRunThinkingTraceIsAppendOnly(t *testing.T) {
	retriever := &fakeRetriever{results: [][]RetrievedDocument{relevantDocs()}}
	o := NewOrchestrator(retriever, &fakeGenerator{}, NopStore{}, testConfig(), nopTestLogger{})

	final := o.Run(context.Background(), newTestState("anything"), &recordingSink{})

	require.NotEmpty(t, final.ThinkingSteps)
	assert.Equal(t, StageAnalyzing, final.ThinkingSteps[0].Stage)
	assert.Equal(t, StageComplete, final.ThinkingSteps[len(final.ThinkingSteps)-1].Stage)
	for i := 1; i < len(final.ThinkingSteps); i++ {
		assert.False(t, final.ThinkingSteps[i].At.Before(final.ThinkingSteps[i-1].At))
	}
}
