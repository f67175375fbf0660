package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RagSession is the durable projection of one pipeline run. JSON snapshot
// columns carry the parts whose shape belongs to the pipeline, so schema
// changes there never require a migration.
type RagSession struct {
	Id       uuid.UUID
	UserId   uuid.UUID
	TenantId uuid.UUID

	Kind   string // answer | question
	Status string // pending | in_progress | completed | failed | paused

	OriginalQuery string
	CurrentQuery  string

	ConfigSnapshot     json.RawMessage
	Analysis           json.RawMessage
	AllowedDocumentIds json.RawMessage
	RetrievedDocuments json.RawMessage
	RelevantDocuments  json.RawMessage
	Generation         json.RawMessage
	ThinkingSteps      json.RawMessage

	RetrievalAttempts int
	IterationCount    int

	ErrorReason string

	CreatedAt   time.Time
	UpdatedAt   *time.Time
	CompletedAt *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
