package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk wraps a chunk with its cosine similarity against the query
// vector and the owning document's title.
type ScoredChunk struct {
	Chunk         *entity.DocumentChunk
	DocumentTitle string
	Similarity    float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore runs a vector search over the user's chunks.
	// An empty documentIds slice means all of the user's documents.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, documentIds []uuid.UUID) ([]*ScoredChunk, error)
}
