package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id         uuid.UUID
	TenantId   uuid.UUID
	UserId     uuid.UUID
	Title      string
	Content    string
	SourceType string // "upload" | "paste" | "import"
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
