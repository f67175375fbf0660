package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentOwnedByUser struct {
	UserID uuid.UUID
}

func (s DocumentOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("documents.user_id = ?", s.UserID)
}

type DocumentInTenant struct {
	TenantID uuid.UUID
}

func (s DocumentInTenant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("documents.tenant_id = ?", s.TenantID)
}

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByDocumentIDs struct {
	DocumentIDs []uuid.UUID
}

func (s ByDocumentIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id IN ?", s.DocumentIDs)
}
