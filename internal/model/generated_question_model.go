package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GeneratedQuestion struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuestionSetId  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Position       int            `gorm:"not null"`
	Question       string         `gorm:"type:text;not null"`
	Answer         string         `gorm:"type:text;not null"`
	SourceIds      datatypes.JSON `gorm:"type:jsonb"`
	ApprovalStatus string         `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (GeneratedQuestion) TableName() string {
	return "generated_questions"
}
