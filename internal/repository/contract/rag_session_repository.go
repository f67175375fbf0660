package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RagSessionRepository interface {
	Create(ctx context.Context, session *entity.RagSession) error
	Update(ctx context.Context, session *entity.RagSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RagSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RagSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
