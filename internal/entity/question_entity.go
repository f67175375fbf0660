package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionSet groups the practice questions generated in one session.
type QuestionSet struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	TenantId  uuid.UUID
	UserId    uuid.UUID
	Topic     string
	Status    string // mirrors the session status
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// GeneratedQuestion is one practice question. Each item carries its own
// review state; an edit replaces Question/Answer in place.
type GeneratedQuestion struct {
	Id             uuid.UUID
	QuestionSetId  uuid.UUID
	Position       int
	Question       string
	Answer         string
	SourceIds      json.RawMessage
	ApprovalStatus string // pending | approved | rejected
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
