package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateAnswerSessionRequest struct {
	Query       string      `json:"query" validate:"required,min=3"`
	DocumentIds []uuid.UUID `json:"document_ids,omitempty" validate:"max=50"` // empty means all of the user's documents
}

type CreateAnswerSessionResponse struct {
	Id        uuid.UUID `json:"id"`
	StreamUrl string    `json:"stream_url"`
}

type ShowSessionResponse struct {
	Id                uuid.UUID         `json:"id"`
	Kind              string            `json:"kind"`
	Status            string            `json:"status"`
	OriginalQuery     string            `json:"original_query"`
	CurrentQuery      string            `json:"current_query"`
	Answer            string            `json:"answer,omitempty"`
	Confidence        float64           `json:"confidence,omitempty"`
	SourcesUsed       []string          `json:"sources_used,omitempty"`
	HasHallucination  bool              `json:"has_hallucination"`
	RetrievalAttempts int               `json:"retrieval_attempts"`
	IterationCount    int               `json:"iteration_count"`
	ErrorReason       string            `json:"error_reason,omitempty"`
	ThinkingSteps     []ThinkingStepDTO `json:"thinking_steps,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
}

type ThinkingStepDTO struct {
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type ListSessionsResponse struct {
	Id            uuid.UUID  `json:"id"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	OriginalQuery string     `json:"original_query"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type CancelSessionRequest struct {
	Id uuid.UUID
}
