package unitofwork

import (
	"context"

	"ai-tutor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	RagSessionRepository() contract.RagSessionRepository
	QuestionSetRepository() contract.QuestionSetRepository
	GeneratedQuestionRepository() contract.GeneratedQuestionRepository
}
