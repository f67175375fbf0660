package service

import (
	"context"

	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/rag"

	"github.com/google/uuid"
)

// sessionStore persists pipeline state through the unit of work and keeps
// the live state in the in-memory repository for cheap status reads. It is
// bound to one session kind so the row carries it on every write.
type sessionStore struct {
	uowFactory unitofwork.RepositoryFactory
	stateRepo  *memory.StateRepository
	mapper     *mapper.SessionMapper
	kind       string
	cfg        rag.Config
	logger     logger.ILogger
}

func newSessionStore(
	uowFactory unitofwork.RepositoryFactory,
	stateRepo *memory.StateRepository,
	kind string,
	cfg rag.Config,
	log logger.ILogger,
) rag.SessionStore {
	return &sessionStore{
		uowFactory: uowFactory,
		stateRepo:  stateRepo,
		mapper:     mapper.NewSessionMapper(),
		kind:       kind,
		cfg:        cfg,
		logger:     log,
	}
}

func (s *sessionStore) Create(ctx context.Context, state *rag.SessionState) error {
	s.stateRepo.Save(state)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	e := s.mapper.FromState(state, s.kind, s.cfg)
	return uow.RagSessionRepository().Create(ctx, e)
}

func (s *sessionStore) Update(ctx context.Context, state *rag.SessionState) error {
	s.stateRepo.Save(state)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	e := s.mapper.FromState(state, s.kind, s.cfg)
	return uow.RagSessionRepository().Update(ctx, e)
}

func (s *sessionStore) Get(ctx context.Context, id uuid.UUID) (*rag.SessionState, error) {
	if state, found := s.stateRepo.Get(id); found {
		return state, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	e, err := uow.RagSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	return s.mapper.ToState(e)
}
