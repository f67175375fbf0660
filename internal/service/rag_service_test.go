package service

import (
	"context"
	"testing"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/stream"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopTestLogger struct{}

func (nopTestLogger) Debug(string, string, map[string]interface{}) {}
func (nopTestLogger) Info(string, string, map[string]interface{})  {}
func (nopTestLogger) Warn(string, string, map[string]interface{})  {}
func (nopTestLogger) Error(string, string, map[string]interface{}) {}
func (nopTestLogger) Sync() error                                  { return nil }

// fakeSessionRepo matches FindOne specifications against an in-memory
// session list, so ownership filters behave like the SQL they stand in for.
type fakeSessionRepo struct {
	sessions []*entity.RagSession
}

func (f *fakeSessionRepo) Create(_ context.Context, session *entity.RagSession) error {
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakeSessionRepo) Update(context.Context, *entity.RagSession) error { return nil }
func (f *fakeSessionRepo) Delete(context.Context, uuid.UUID) error          { return nil }

func (f *fakeSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.RagSession, error) {
	for _, session := range f.sessions {
		if matchesSession(session, specs) {
			return session, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.RagSession, error) {
	var out []*entity.RagSession
	for _, session := range f.sessions {
		if matchesSession(session, specs) {
			out = append(out, session)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	found, err := f.FindAll(ctx, specs...)
	return int64(len(found)), err
}

func matchesSession(session *entity.RagSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if session.Id != s.ID {
				return false
			}
		case specification.SessionOwnedByUser:
			if session.UserId != s.UserID {
				return false
			}
		}
	}
	return true
}

type fakeUnitOfWork struct {
	sessionRepo *fakeSessionRepo
}

func (f *fakeUnitOfWork) Begin(context.Context) error { return nil }
func (f *fakeUnitOfWork) Commit() error               { return nil }
func (f *fakeUnitOfWork) Rollback() error             { return nil }

func (f *fakeUnitOfWork) UserRepository() contract.UserRepository                   { return nil }
func (f *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository           { return nil }
func (f *fakeUnitOfWork) DocumentChunkRepository() contract.DocumentChunkRepository { return nil }
func (f *fakeUnitOfWork) RagSessionRepository() contract.RagSessionRepository {
	return f.sessionRepo
}
func (f *fakeUnitOfWork) QuestionSetRepository() contract.QuestionSetRepository { return nil }
func (f *fakeUnitOfWork) GeneratedQuestionRepository() contract.GeneratedQuestionRepository {
	return nil
}

type fakeUowFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeUowFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func newStreamTestService(sessions ...*entity.RagSession) (*ragService, *stream.Registry) {
	registry := stream.NewRegistry()
	svc := &ragService{
		uowFactory: &fakeUowFactory{uow: &fakeUnitOfWork{sessionRepo: &fakeSessionRepo{sessions: sessions}}},
		registry:   registry,
		logger:     nopTestLogger{},
	}
	return svc, registry
}

func TestStreamRequiresSessionOwnership(t *testing.T) {
	ownerId := uuid.New()
	sessionId := uuid.New()
	svc, registry := newStreamTestService(&entity.RagSession{Id: sessionId, UserId: ownerId})

	publisher := stream.NewPublisher(sessionId.String(), nopTestLogger{})
	registry.Put(sessionId.String(), publisher, func() {})

	got, err := svc.Stream(context.Background(), ownerId, sessionId)
	require.NoError(t, err)
	assert.Same(t, publisher, got)

	// Another authenticated user holding the UUID must not get the stream,
	// and must not learn whether the session is live.
	got, err = svc.Stream(context.Background(), uuid.New(), sessionId)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStreamUnknownSession(t *testing.T) {
	svc, _ := newStreamTestService()

	got, err := svc.Stream(context.Background(), uuid.New(), uuid.New())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStreamOwnedButTerminalSession(t *testing.T) {
	ownerId := uuid.New()
	sessionId := uuid.New()
	svc, _ := newStreamTestService(&entity.RagSession{Id: sessionId, UserId: ownerId})

	// Owned, persisted, but no live publisher in the registry.
	got, err := svc.Stream(context.Background(), ownerId, sessionId)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrStreamUnavailable)
}
