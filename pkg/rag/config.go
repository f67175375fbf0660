package rag

import "time"

// Config encapsulates every tunable of the answer pipeline. Built once at
// startup and passed to NewOrchestrator; nothing here is read from ambient
// state at run time.
type Config struct {
	// MaxIterations bounds total stage executions per session. This is the
	// hard circuit breaker, independent of the retrieval-specific bound.
	MaxIterations int

	// MaxRetrievalAttempts bounds how many times retrieval may run,
	// including rewrite-triggered re-retrievals.
	MaxRetrievalAttempts int

	// RelevanceThreshold is the grading cutoff: a chunk whose score is
	// >= threshold counts as relevant.
	RelevanceThreshold float64

	// MinRelevantDocuments is how many relevant chunks grading needs before
	// routing to generation.
	MinRelevantDocuments int

	// TopK is passed to the retriever.
	TopK int

	// EnableRewrite allows the rewrite-and-retry loop.
	EnableRewrite bool

	// EnableVerification runs the hallucination check after generation.
	EnableVerification bool

	// CapabilityTimeout caps each retrieval/generation call. A timeout
	// surfaces as a stage failure, never as a stream-level timeout.
	CapabilityTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxIterations:        20,
		MaxRetrievalAttempts: 3,
		RelevanceThreshold:   0.7,
		MinRelevantDocuments: 1,
		TopK:                 10,
		EnableRewrite:        true,
		EnableVerification:   true,
		CapabilityTimeout:    120 * time.Second,
	}
}
