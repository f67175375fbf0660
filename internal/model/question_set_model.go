package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionSet struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID      `gorm:"type:uuid;not null;index"`
	TenantId  uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Topic     string         `gorm:"type:text;not null"`
	Status    string         `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Questions []GeneratedQuestion `gorm:"foreignKey:QuestionSetId;constraint:OnDelete:CASCADE"`
}

func (QuestionSet) TableName() string {
	return "question_sets"
}
