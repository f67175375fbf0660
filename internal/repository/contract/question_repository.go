package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type QuestionSetRepository interface {
	Create(ctx context.Context, set *entity.QuestionSet) error
	Update(ctx context.Context, set *entity.QuestionSet) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuestionSet, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionSet, error)
}

type GeneratedQuestionRepository interface {
	Create(ctx context.Context, question *entity.GeneratedQuestion) error
	Update(ctx context.Context, question *entity.GeneratedQuestion) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GeneratedQuestion, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GeneratedQuestion, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
