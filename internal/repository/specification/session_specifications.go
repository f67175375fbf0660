package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionOwnedByUser struct {
	UserID uuid.UUID
}

func (s SessionOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("rag_sessions.user_id = ?", s.UserID)
}

type SessionInTenant struct {
	TenantID uuid.UUID
}

func (s SessionInTenant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("rag_sessions.tenant_id = ?", s.TenantID)
}

type ByKind struct {
	Kind string
}

func (s ByKind) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("kind = ?", s.Kind)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByQuestionSetID struct {
	QuestionSetID uuid.UUID
}

func (s ByQuestionSetID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("question_set_id = ?", s.QuestionSetID)
}
