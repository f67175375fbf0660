package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/events"
	pkgNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/rag"
	"ai-tutor-be/pkg/rag/retrieval"
	"ai-tutor-be/pkg/stream"

	"github.com/google/uuid"
)

// streamRetention keeps a finished session registered long enough for a
// late subscriber to attach and drain the terminal events; afterwards the
// registry entry is dropped instead of waiting out the cache TTL.
const streamRetention = 5 * time.Minute

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrStreamUnavailable = errors.New("session has no live stream")
	ErrUnknownDocuments  = errors.New("one or more documents do not belong to the user")
)

type IRagService interface {
	CreateAnswerSession(ctx context.Context, userId, tenantId uuid.UUID, req *dto.CreateAnswerSessionRequest) (*dto.CreateAnswerSessionResponse, error)
	Stream(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*stream.Publisher, error)
	Cancel(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	Show(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ShowSessionResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ListSessionsResponse, error)
}

type ragService struct {
	uowFactory        unitofwork.RepositoryFactory
	stateRepo         *memory.StateRepository
	registry          *stream.Registry
	chunkRepo         contract.DocumentChunkRepository
	embeddingProvider embedding.EmbeddingProvider
	generator         rag.Generator
	eventPublisher    *pkgNats.Publisher
	cfg               rag.Config
	keepAlive         time.Duration
	logger            logger.ILogger
}

func NewRagService(
	uowFactory unitofwork.RepositoryFactory,
	stateRepo *memory.StateRepository,
	registry *stream.Registry,
	chunkRepo contract.DocumentChunkRepository,
	embeddingProvider embedding.EmbeddingProvider,
	generator rag.Generator,
	eventPublisher *pkgNats.Publisher,
	cfg rag.Config,
	keepAlive time.Duration,
	log logger.ILogger,
) IRagService {
	return &ragService{
		uowFactory:        uowFactory,
		stateRepo:         stateRepo,
		registry:          registry,
		chunkRepo:         chunkRepo,
		embeddingProvider: embeddingProvider,
		generator:         generator,
		eventPublisher:    eventPublisher,
		cfg:               cfg,
		keepAlive:         keepAlive,
		logger:            log,
	}
}

// CreateAnswerSession registers the session, then runs the pipeline on its
// own goroutine. The response returns immediately with the stream URL; the
// caller attaches to the SSE endpoint to follow progress.
func (s *ragService) CreateAnswerSession(ctx context.Context, userId, tenantId uuid.UUID, req *dto.CreateAnswerSessionRequest) (*dto.CreateAnswerSessionResponse, error) {
	allowedDocIDs, err := s.resolveDocumentScope(ctx, userId, req.DocumentIds)
	if err != nil {
		return nil, err
	}

	sessionId := uuid.New()
	state := rag.NewSessionState(sessionId, userId, tenantId, req.Query, allowedDocIDs)

	store := newSessionStore(s.uowFactory, s.stateRepo, constant.SessionKindAnswer, s.cfg, s.logger)
	if err := store.Create(ctx, state); err != nil {
		return nil, err
	}

	publisher := stream.NewPublisher(sessionId.String(), s.logger, stream.WithKeepAlive(s.keepAlive))

	runCtx, cancel := context.WithCancel(context.Background())
	s.registry.Put(sessionId.String(), publisher, cancel)

	retriever := retrieval.NewRetriever(s.chunkRepo, s.embeddingProvider, userId, s.logger)
	orchestrator := rag.NewOrchestrator(retriever, s.generator, store, s.cfg, s.logger)

	go func() {
		defer cancel()
		final := orchestrator.Run(runCtx, state, publisher)
		s.publishSessionEvent(final)
		s.registry.RemoveAfter(sessionId.String(), streamRetention)
	}()

	return &dto.CreateAnswerSessionResponse{
		Id:        sessionId,
		StreamUrl: "/api/sessions/" + sessionId.String() + "/stream",
	}, nil
}

// Stream hands out the session's live publisher. The stream carries the
// query, sources, and answer, so the caller must own the session, same as
// Show and Cancel.
func (s *ragService) Stream(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*stream.Publisher, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.RagSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.SessionOwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	publisher, found := s.registry.Get(sessionId.String())
	if !found {
		return nil, ErrStreamUnavailable
	}
	return publisher, nil
}

func (s *ragService) Cancel(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.RagSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.SessionOwnedByUser{UserID: userId},
	)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if !s.registry.Cancel(sessionId.String()) {
		// Already terminal; nothing left to stop.
		return nil
	}
	return nil
}

func (s *ragService) Show(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ShowSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.RagSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.SessionOwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	resp := &dto.ShowSessionResponse{
		Id:                session.Id,
		Kind:              session.Kind,
		Status:            session.Status,
		OriginalQuery:     session.OriginalQuery,
		CurrentQuery:      session.CurrentQuery,
		RetrievalAttempts: session.RetrievalAttempts,
		IterationCount:    session.IterationCount,
		ErrorReason:       session.ErrorReason,
		CreatedAt:         session.CreatedAt,
		CompletedAt:       session.CompletedAt,
	}

	if len(session.Generation) > 0 {
		var gen rag.GenerationResult
		if err := json.Unmarshal(session.Generation, &gen); err == nil {
			resp.Answer = gen.Answer
			resp.Confidence = gen.Confidence
			resp.SourcesUsed = gen.SourcesUsed
			resp.HasHallucination = gen.HasHallucination
		}
	}
	if len(session.ThinkingSteps) > 0 {
		var steps []rag.ThinkingStep
		if err := json.Unmarshal(session.ThinkingSteps, &steps); err == nil {
			resp.ThinkingSteps = make([]dto.ThinkingStepDTO, len(steps))
			for i, step := range steps {
				resp.ThinkingSteps[i] = dto.ThinkingStepDTO{
					Stage:   string(step.Stage),
					Message: step.Message,
					At:      step.At,
				}
			}
		}
	}

	return resp, nil
}

func (s *ragService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ListSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.RagSessionRepository().FindAll(ctx,
		specification.SessionOwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ListSessionsResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = &dto.ListSessionsResponse{
			Id:            session.Id,
			Kind:          session.Kind,
			Status:        session.Status,
			OriginalQuery: session.OriginalQuery,
			CreatedAt:     session.CreatedAt,
			CompletedAt:   session.CompletedAt,
		}
	}
	return responses, nil
}

// resolveDocumentScope validates that every requested document belongs to
// the user. An empty request means the whole corpus, expressed as an empty
// scope list.
func (s *ragService) resolveDocumentScope(ctx context.Context, userId uuid.UUID, documentIds []uuid.UUID) ([]uuid.UUID, error) {
	if len(documentIds) == 0 {
		return nil, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	owned, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByIDs{IDs: documentIds},
		specification.DocumentOwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if len(owned) != len(documentIds) {
		return nil, ErrUnknownDocuments
	}
	return documentIds, nil
}

func (s *ragService) publishSessionEvent(state *rag.SessionState) {
	if s.eventPublisher == nil {
		return
	}

	eventType := "SESSION_COMPLETED"
	if state.Failed() {
		eventType = "SESSION_FAILED"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	evt := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"session_id": state.SessionID,
			"user_id":    state.UserID,
			"iterations": state.IterationCount,
		},
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("rag_service", "failed to publish session event", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
	}
}
