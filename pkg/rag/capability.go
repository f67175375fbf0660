package rag

import (
	"context"

	"github.com/google/uuid"
)

// Retriever is the retrieval capability boundary. Implementations must return
// an empty slice (not an error) when nothing matches; errors are reserved for
// infrastructure failure and route the session to FAILED.
type Retriever interface {
	Retrieve(ctx context.Context, query string, allowedDocIDs []uuid.UUID, topK int) ([]RetrievedDocument, error)
}

// Verdict is the result of the hallucination check.
type Verdict struct {
	HasHallucination bool
	Details          string
}

// Generator is the generation capability boundary (LLM-backed in production).
type Generator interface {
	// Analyze classifies the query (intent, key concepts, answer shape).
	Analyze(ctx context.Context, query string) (*QueryAnalysis, error)

	// Generate produces a grounded answer from the relevant documents.
	Generate(ctx context.Context, query string, docs []RetrievedDocument) (*GenerationResult, error)

	// Verify checks whether every claim in answer is supported by docs.
	Verify(ctx context.Context, answer string, docs []RetrievedDocument) (*Verdict, error)
}

// EventSink receives pipeline progress. Session id and timestamps are the
// sink's concern; the pipeline only names the event type and its payload.
type EventSink interface {
	Emit(eventType string, payload map[string]interface{})
}

// NopSink discards everything. Used when a session runs without a consumer.
type NopSink struct{}

func (NopSink) Emit(string, map[string]interface{}) {}

// SessionStore is the durability boundary. The orchestrator writes through it
// after each major stage and once more at termination; it never assumes a
// storage engine.
type SessionStore interface {
	Create(ctx context.Context, state *SessionState) error
	Update(ctx context.Context, state *SessionState) error
	Get(ctx context.Context, id uuid.UUID) (*SessionState, error)
}

// NopStore is the no-durability store used by unit tests.
type NopStore struct{}

func (NopStore) Create(context.Context, *SessionState) error { return nil }
func (NopStore) Update(context.Context, *SessionState) error { return nil }
func (NopStore) Get(context.Context, uuid.UUID) (*SessionState, error) {
	return nil, nil
}
