package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/rag"
	"ai-tutor-be/pkg/rag/question"
	"ai-tutor-be/pkg/rag/retrieval"
	"ai-tutor-be/pkg/stream"

	"github.com/google/uuid"
)

var (
	ErrQuestionSetNotFound = errors.New("question set not found")
	ErrQuestionNotFound    = errors.New("question not found")
)

const defaultQuestionCount = 5

type IQuestionService interface {
	CreateQuestionSession(ctx context.Context, userId, tenantId uuid.UUID, req *dto.CreateQuestionSessionRequest) (*dto.CreateQuestionSessionResponse, error)
	ShowSet(ctx context.Context, userId uuid.UUID, setId uuid.UUID) (*dto.ShowQuestionSetResponse, error)
	ListSets(ctx context.Context, userId uuid.UUID) ([]*dto.ListQuestionSetsResponse, error)
	Review(ctx context.Context, userId uuid.UUID, req *dto.ReviewQuestionRequest) (*dto.QuestionItemResponse, error)
	Edit(ctx context.Context, userId uuid.UUID, req *dto.EditQuestionRequest) (*dto.QuestionItemResponse, error)
}

// questionService runs the question-generation workflow: retrieve and grade
// source chunks for a topic, then generate practice questions one at a time.
// Each finished question is streamed to the client and forwarded to the
// persistence worker, so a storage failure cannot interrupt delivery.
type questionService struct {
	uowFactory        unitofwork.RepositoryFactory
	stateRepo         *memory.StateRepository
	registry          *stream.Registry
	chunkRepo         contract.DocumentChunkRepository
	embeddingProvider embedding.EmbeddingProvider
	generator         *question.Generator
	cfg               rag.Config
	keepAlive         time.Duration
	logger            logger.ILogger
}

func NewQuestionService(
	uowFactory unitofwork.RepositoryFactory,
	stateRepo *memory.StateRepository,
	registry *stream.Registry,
	chunkRepo contract.DocumentChunkRepository,
	embeddingProvider embedding.EmbeddingProvider,
	generator *question.Generator,
	cfg rag.Config,
	keepAlive time.Duration,
	log logger.ILogger,
) IQuestionService {
	return &questionService{
		uowFactory:        uowFactory,
		stateRepo:         stateRepo,
		registry:          registry,
		chunkRepo:         chunkRepo,
		embeddingProvider: embeddingProvider,
		generator:         generator,
		cfg:               cfg,
		keepAlive:         keepAlive,
		logger:            log,
	}
}

func (s *questionService) CreateQuestionSession(ctx context.Context, userId, tenantId uuid.UUID, req *dto.CreateQuestionSessionRequest) (*dto.CreateQuestionSessionResponse, error) {
	var allowedDocIDs []uuid.UUID
	if len(req.DocumentIds) > 0 {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		owned, err := uow.DocumentRepository().FindAll(ctx,
			specification.ByIDs{IDs: req.DocumentIds},
			specification.DocumentOwnedByUser{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if len(owned) != len(req.DocumentIds) {
			return nil, ErrUnknownDocuments
		}
		allowedDocIDs = req.DocumentIds
	}

	questionCount := req.QuestionCount
	if questionCount <= 0 {
		questionCount = defaultQuestionCount
	}

	sessionId := uuid.New()
	state := rag.NewSessionState(sessionId, userId, tenantId, req.Topic, allowedDocIDs)

	store := newSessionStore(s.uowFactory, s.stateRepo, constant.SessionKindQuestion, s.cfg, s.logger)
	if err := store.Create(ctx, state); err != nil {
		return nil, err
	}

	set := entity.QuestionSet{
		Id:        uuid.New(),
		SessionId: sessionId,
		TenantId:  tenantId,
		UserId:    userId,
		Topic:     req.Topic,
		Status:    constant.SessionStatusInProgress,
		CreatedAt: time.Now(),
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.QuestionSetRepository().Create(ctx, &set); err != nil {
		return nil, err
	}

	publisher := stream.NewPublisher(sessionId.String(), s.logger, stream.WithKeepAlive(s.keepAlive))

	runCtx, cancel := context.WithCancel(context.Background())
	s.registry.Put(sessionId.String(), publisher, cancel)

	publisher.StartItemWorker(runCtx, s.persistQuestionItem)

	go func() {
		defer cancel()
		s.run(runCtx, state, store, publisher, set.Id, questionCount)
		s.registry.RemoveAfter(sessionId.String(), streamRetention)
	}()

	return &dto.CreateQuestionSessionResponse{
		Id:            sessionId,
		QuestionSetId: set.Id,
		StreamUrl:     "/api/sessions/" + sessionId.String() + "/stream",
	}, nil
}

// run drives one question session to a terminal state. It mirrors the
// answer pipeline's retrieval and grading, then generates each question in
// sequence, emitting a unit-complete event per item.
func (s *questionService) run(ctx context.Context, state *rag.SessionState, store rag.SessionStore, publisher *stream.Publisher, setId uuid.UUID, count int) {
	retriever := retrieval.NewRetriever(s.chunkRepo, s.embeddingProvider, state.UserID, s.logger)

	state.Think(rag.StageRetrieving, "gathering sources for question generation")
	publisher.Emit(stream.EventSourceRetrieving, map[string]interface{}{
		"query":   state.CurrentQuery,
		"attempt": 1,
	})

	docs, err := retriever.Retrieve(ctx, state.CurrentQuery, state.AllowedDocumentIDs, s.cfg.TopK)
	if err != nil {
		s.finishFailed(ctx, state, store, publisher, setId, fmt.Errorf("retrieval failed: %w", err))
		return
	}
	state.RetrievalAttempts++

	graded := rag.GradeDocuments(docs, s.cfg.RelevanceThreshold)
	state.RetrievedDocuments = graded

	var relevant []rag.RetrievedDocument
	for _, d := range graded {
		if d.IsRelevant {
			relevant = append(relevant, d)
		}
	}
	state.RelevantDocuments = relevant
	publisher.Emit(stream.EventSourceFound, map[string]interface{}{
		"count":     len(relevant),
		"retrieved": len(graded),
	})

	if len(relevant) < s.cfg.MinRelevantDocuments {
		s.finishFailed(ctx, state, store, publisher, setId, rag.ErrNoRelevantDocuments)
		return
	}

	var previous []string
	generated := 0
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			s.finishFailed(ctx, state, store, publisher, setId, rag.ErrCancelled)
			return
		}

		state.Think(rag.StageGenerating, fmt.Sprintf("generating question %d of %d", i+1, count))
		publisher.Emit(stream.EventGenerationStart, map[string]interface{}{
			"position": i + 1,
			"total":    count,
		})

		item, err := s.generator.GenerateOne(ctx, previous, relevant)
		if err != nil {
			s.logger.Warn("question_service", "question generation failed, skipping item", map[string]interface{}{
				"session_id": state.SessionID,
				"position":   i + 1,
				"error":      err.Error(),
			})
			continue
		}
		previous = append(previous, item.Question)
		generated++

		publisher.Emit(stream.EventQuestionComplete, map[string]interface{}{
			"question_set_id": setId.String(),
			"position":        i + 1,
			"question":        item.Question,
			"answer":          item.Answer,
			"source_ids":      item.SourceIDs,
		})
	}

	if generated == 0 {
		s.finishFailed(ctx, state, store, publisher, setId, errors.New("no questions could be generated"))
		return
	}

	now := time.Now().UTC()
	state.IsComplete = true
	state.CompletedAt = &now
	state.Think(rag.StageComplete, fmt.Sprintf("generated %d questions", generated))

	if err := store.Update(context.Background(), state); err != nil {
		s.logger.Error("question_service", "terminal session write failed", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      err.Error(),
		})
	}
	s.updateSetStatus(setId, constant.SessionStatusCompleted)

	publisher.Emit(stream.EventDone, map[string]interface{}{
		"status":    constant.SessionStatusCompleted,
		"generated": generated,
	})
	publisher.WaitItemWorker()
}

func (s *questionService) finishFailed(ctx context.Context, state *rag.SessionState, store rag.SessionStore, publisher *stream.Publisher, setId uuid.UUID, cause error) {
	now := time.Now().UTC()
	state.IsComplete = true
	state.CompletedAt = &now
	state.ErrorReason = cause.Error()
	state.Think(rag.StageFailed, cause.Error())

	if err := store.Update(context.Background(), state); err != nil {
		s.logger.Error("question_service", "terminal session write failed", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      err.Error(),
		})
	}
	s.updateSetStatus(setId, constant.SessionStatusFailed)

	publisher.Emit(stream.EventErrorMessage, map[string]interface{}{
		"message": cause.Error(),
	})
	publisher.Emit(stream.EventDone, map[string]interface{}{
		"status": constant.SessionStatusFailed,
	})
}

// persistQuestionItem is the item-worker handler: it stores one finished
// question. It runs off the delivery path, so failures here are logged by
// the worker and never reach the stream.
func (s *questionService) persistQuestionItem(ctx context.Context, evt stream.Event) error {
	setIdRaw, _ := evt.Payload["question_set_id"].(string)
	setId, err := uuid.Parse(setIdRaw)
	if err != nil {
		return fmt.Errorf("bad question_set_id in item event: %w", err)
	}

	position, _ := evt.Payload["position"].(int)
	questionText, _ := evt.Payload["question"].(string)
	answerText, _ := evt.Payload["answer"].(string)

	var sourceIds json.RawMessage
	if ids, ok := evt.Payload["source_ids"].([]string); ok {
		sourceIds, _ = json.Marshal(ids)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	item := entity.GeneratedQuestion{
		Id:             uuid.New(),
		QuestionSetId:  setId,
		Position:       position,
		Question:       questionText,
		Answer:         answerText,
		SourceIds:      sourceIds,
		ApprovalStatus: constant.QuestionStatusPending,
		CreatedAt:      time.Now(),
	}
	return uow.GeneratedQuestionRepository().Create(ctx, &item)
}

func (s *questionService) updateSetStatus(setId uuid.UUID, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	set, err := uow.QuestionSetRepository().FindOne(ctx, specification.ByID{ID: setId})
	if err != nil || set == nil {
		s.logger.Warn("question_service", "failed to load question set for status update", map[string]interface{}{
			"question_set_id": setId,
		})
		return
	}
	set.Status = status
	if err := uow.QuestionSetRepository().Update(ctx, set); err != nil {
		s.logger.Warn("question_service", "failed to update question set status", map[string]interface{}{
			"question_set_id": setId,
			"error":           err.Error(),
		})
	}
}

func (s *questionService) ShowSet(ctx context.Context, userId uuid.UUID, setId uuid.UUID) (*dto.ShowQuestionSetResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	set, err := uow.QuestionSetRepository().FindOne(ctx,
		specification.ByID{ID: setId},
		specification.FilterBy{Field: "user_id", Value: userId},
	)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, ErrQuestionSetNotFound
	}

	questions, err := uow.GeneratedQuestionRepository().FindAll(ctx,
		specification.ByQuestionSetID{QuestionSetID: setId},
		specification.OrderBy{Field: "position", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.QuestionItemResponse, len(questions))
	for i, q := range questions {
		items[i] = dto.QuestionItemResponse{
			Id:             q.Id,
			Position:       q.Position,
			Question:       q.Question,
			Answer:         q.Answer,
			SourceIds:      q.SourceIds,
			ApprovalStatus: q.ApprovalStatus,
			CreatedAt:      q.CreatedAt,
			UpdatedAt:      q.UpdatedAt,
		}
	}

	return &dto.ShowQuestionSetResponse{
		Id:        set.Id,
		SessionId: set.SessionId,
		Topic:     set.Topic,
		Status:    set.Status,
		Questions: items,
		CreatedAt: set.CreatedAt,
	}, nil
}

func (s *questionService) ListSets(ctx context.Context, userId uuid.UUID) ([]*dto.ListQuestionSetsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sets, err := uow.QuestionSetRepository().FindAll(ctx,
		specification.FilterBy{Field: "user_id", Value: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ListQuestionSetsResponse, len(sets))
	for i, set := range sets {
		responses[i] = &dto.ListQuestionSetsResponse{
			Id:        set.Id,
			SessionId: set.SessionId,
			Topic:     set.Topic,
			Status:    set.Status,
			CreatedAt: set.CreatedAt,
		}
	}
	return responses, nil
}

func (s *questionService) Review(ctx context.Context, userId uuid.UUID, req *dto.ReviewQuestionRequest) (*dto.QuestionItemResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	q, err := s.findOwnedQuestion(ctx, uow, userId, req.QuestionId)
	if err != nil {
		return nil, err
	}

	q.ApprovalStatus = req.ApprovalStatus
	if err := uow.GeneratedQuestionRepository().Update(ctx, q); err != nil {
		return nil, err
	}

	return &dto.QuestionItemResponse{
		Id:             q.Id,
		Position:       q.Position,
		Question:       q.Question,
		Answer:         q.Answer,
		SourceIds:      q.SourceIds,
		ApprovalStatus: q.ApprovalStatus,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}, nil
}

func (s *questionService) Edit(ctx context.Context, userId uuid.UUID, req *dto.EditQuestionRequest) (*dto.QuestionItemResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	q, err := s.findOwnedQuestion(ctx, uow, userId, req.QuestionId)
	if err != nil {
		return nil, err
	}

	q.Question = req.Question
	q.Answer = req.Answer
	if err := uow.GeneratedQuestionRepository().Update(ctx, q); err != nil {
		return nil, err
	}

	return &dto.QuestionItemResponse{
		Id:             q.Id,
		Position:       q.Position,
		Question:       q.Question,
		Answer:         q.Answer,
		SourceIds:      q.SourceIds,
		ApprovalStatus: q.ApprovalStatus,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}, nil
}

// findOwnedQuestion resolves a question and checks the owning set belongs
// to the user.
func (s *questionService) findOwnedQuestion(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, questionId uuid.UUID) (*entity.GeneratedQuestion, error) {
	q, err := uow.GeneratedQuestionRepository().FindOne(ctx, specification.ByID{ID: questionId})
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrQuestionNotFound
	}

	set, err := uow.QuestionSetRepository().FindOne(ctx,
		specification.ByID{ID: q.QuestionSetId},
		specification.FilterBy{Field: "user_id", Value: userId},
	)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}
