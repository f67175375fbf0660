package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/rag"

	"github.com/google/uuid"
)

// Searcher is the slice of the chunk repository the retriever needs.
type Searcher interface {
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, documentIds []uuid.UUID) ([]*contract.ScoredChunk, error)
}

// Retriever runs vector search over a user's document chunks. It is bound
// to one user so the pipeline cannot reach across tenants.
type Retriever struct {
	searcher Searcher
	embedder embedding.EmbeddingProvider
	userID   uuid.UUID
	logger   logger.ILogger
}

func NewRetriever(searcher Searcher, embedder embedding.EmbeddingProvider, userID uuid.UUID, log logger.ILogger) *Retriever {
	return &Retriever{
		searcher: searcher,
		embedder: embedder,
		userID:   userID,
		logger:   log,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, allowedDocIDs []uuid.UUID, topK int) ([]rag.RetrievedDocument, error) {
	resp, err := r.embedder.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.searcher.SearchSimilarWithScore(ctx, resp.Embedding.Values, topK, r.userID, allowedDocIDs)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]rag.RetrievedDocument, 0, len(scored))
	for _, s := range scored {
		if s.Chunk == nil {
			continue
		}
		docs = append(docs, rag.RetrievedDocument{
			SourceID:       s.Chunk.DocumentId.String(),
			SourceTitle:    s.DocumentTitle,
			Content:        s.Chunk.Content,
			Location:       "chunk " + strconv.Itoa(s.Chunk.ChunkIndex),
			RelevanceScore: s.Similarity,
		})
	}

	r.logger.Debug("retrieval", "vector search finished", map[string]interface{}{
		"query_len": len(query),
		"top_k":     topK,
		"found":     len(docs),
	})
	return docs, nil
}
