package rag

import "errors"

// Terminal failure reasons. These are compared with errors.Is and their text
// is what ends up in the persisted session's error field, so keep it stable.
var (
	ErrNoRelevantDocuments = errors.New("no relevant documents after exhausting retrieval attempts")
	ErrIterationLimit      = errors.New("iteration limit exceeded")
	ErrCancelled           = errors.New("session cancelled")
)
