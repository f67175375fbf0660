package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RagSession is the durable record of a single pipeline run, either an
// answer session or a question-generation session. The JSON columns hold
// snapshots of the in-memory state so a run can be inspected after the fact.
type RagSession struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId             uuid.UUID      `gorm:"type:uuid;not null;index"`
	TenantId           uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind               string         `gorm:"type:varchar(20);not null"`
	Status             string         `gorm:"type:varchar(20);not null;default:'pending'"`
	OriginalQuery      string         `gorm:"type:text;not null"`
	CurrentQuery       string         `gorm:"type:text;not null"`
	ConfigSnapshot     datatypes.JSON `gorm:"type:jsonb"`
	Analysis           datatypes.JSON `gorm:"type:jsonb"`
	AllowedDocumentIds datatypes.JSON `gorm:"type:jsonb"`
	RetrievedDocuments datatypes.JSON `gorm:"type:jsonb"`
	RelevantDocuments  datatypes.JSON `gorm:"type:jsonb"`
	Generation         datatypes.JSON `gorm:"type:jsonb"`
	ThinkingSteps      datatypes.JSON `gorm:"type:jsonb"`
	RetrievalAttempts  int            `gorm:"not null;default:0"`
	IterationCount     int            `gorm:"not null;default:0"`
	ErrorReason        string         `gorm:"type:text"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
	CompletedAt        *time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (RagSession) TableName() string {
	return "rag_sessions"
}
