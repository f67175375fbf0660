package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CreateQuestionSessionRequest struct {
	Topic         string      `json:"topic" validate:"required,min=3"`
	QuestionCount int         `json:"question_count,omitempty" validate:"omitempty,min=1,max=20"`
	DocumentIds   []uuid.UUID `json:"document_ids,omitempty" validate:"max=50"`
}

type CreateQuestionSessionResponse struct {
	Id            uuid.UUID `json:"id"`
	QuestionSetId uuid.UUID `json:"question_set_id"`
	StreamUrl     string    `json:"stream_url"`
}

type QuestionItemResponse struct {
	Id             uuid.UUID       `json:"id"`
	Position       int             `json:"position"`
	Question       string          `json:"question"`
	Answer         string          `json:"answer"`
	SourceIds      json.RawMessage `json:"source_ids,omitempty"`
	ApprovalStatus string          `json:"approval_status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

type ShowQuestionSetResponse struct {
	Id        uuid.UUID              `json:"id"`
	SessionId uuid.UUID              `json:"session_id"`
	Topic     string                 `json:"topic"`
	Status    string                 `json:"status"`
	Questions []QuestionItemResponse `json:"questions"`
	CreatedAt time.Time              `json:"created_at"`
}

type ListQuestionSetsResponse struct {
	Id        uuid.UUID `json:"id"`
	SessionId uuid.UUID `json:"session_id"`
	Topic     string    `json:"topic"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewQuestionRequest struct {
	QuestionId     uuid.UUID
	ApprovalStatus string `json:"approval_status" validate:"required,oneof=approved rejected"`
}

type EditQuestionRequest struct {
	QuestionId uuid.UUID
	Question   string `json:"question" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
}
