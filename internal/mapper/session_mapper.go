package mapper

import (
	"encoding/json"
	"time"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/pkg/rag"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionMapper converts between the durable session row and both the
// entity view and the pipeline's in-memory state. Pipeline-owned fields
// travel as JSON snapshots so their shape stays out of the schema.
type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.RagSession) *entity.RagSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.RagSession{
		Id:                 s.Id,
		UserId:             s.UserId,
		TenantId:           s.TenantId,
		Kind:               s.Kind,
		Status:             s.Status,
		OriginalQuery:      s.OriginalQuery,
		CurrentQuery:       s.CurrentQuery,
		ConfigSnapshot:     json.RawMessage(s.ConfigSnapshot),
		Analysis:           json.RawMessage(s.Analysis),
		AllowedDocumentIds: json.RawMessage(s.AllowedDocumentIds),
		RetrievedDocuments: json.RawMessage(s.RetrievedDocuments),
		RelevantDocuments:  json.RawMessage(s.RelevantDocuments),
		Generation:         json.RawMessage(s.Generation),
		ThinkingSteps:      json.RawMessage(s.ThinkingSteps),
		RetrievalAttempts:  s.RetrievalAttempts,
		IterationCount:     s.IterationCount,
		ErrorReason:        s.ErrorReason,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          updatedAt,
		CompletedAt:        s.CompletedAt,
		DeletedAt:          deletedAt,
		IsDeleted:          s.DeletedAt.Valid,
	}
}

func (m *SessionMapper) ToModel(s *entity.RagSession) *model.RagSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.RagSession{
		Id:                 s.Id,
		UserId:             s.UserId,
		TenantId:           s.TenantId,
		Kind:               s.Kind,
		Status:             s.Status,
		OriginalQuery:      s.OriginalQuery,
		CurrentQuery:       s.CurrentQuery,
		ConfigSnapshot:     datatypes.JSON(s.ConfigSnapshot),
		Analysis:           datatypes.JSON(s.Analysis),
		AllowedDocumentIds: datatypes.JSON(s.AllowedDocumentIds),
		RetrievedDocuments: datatypes.JSON(s.RetrievedDocuments),
		RelevantDocuments:  datatypes.JSON(s.RelevantDocuments),
		Generation:         datatypes.JSON(s.Generation),
		ThinkingSteps:      datatypes.JSON(s.ThinkingSteps),
		RetrievalAttempts:  s.RetrievalAttempts,
		IterationCount:     s.IterationCount,
		ErrorReason:        s.ErrorReason,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          updatedAt,
		CompletedAt:        s.CompletedAt,
		DeletedAt:          deletedAt,
	}
}

func (m *SessionMapper) ToEntities(sessions []*model.RagSession) []*entity.RagSession {
	entities := make([]*entity.RagSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

// FromState projects the pipeline state onto the durable entity. Marshal
// failures on snapshot fields leave that field nil rather than aborting
// the whole checkpoint.
func (m *SessionMapper) FromState(state *rag.SessionState, kind string, cfg rag.Config) *entity.RagSession {
	if state == nil {
		return nil
	}

	e := &entity.RagSession{
		Id:                state.SessionID,
		UserId:            state.UserID,
		TenantId:          state.TenantID,
		Kind:              kind,
		Status:            statusForState(state),
		OriginalQuery:     state.OriginalQuery,
		CurrentQuery:      state.CurrentQuery,
		RetrievalAttempts: state.RetrievalAttempts,
		IterationCount:    state.IterationCount,
		ErrorReason:       state.ErrorReason,
		CreatedAt:         state.StartedAt,
		CompletedAt:       state.CompletedAt,
	}

	e.ConfigSnapshot = marshalOrNil(cfg)
	e.Analysis = marshalOrNil(state.Analysis)
	e.AllowedDocumentIds = marshalOrNil(state.AllowedDocumentIDs)
	e.RetrievedDocuments = marshalOrNil(state.RetrievedDocuments)
	e.RelevantDocuments = marshalOrNil(state.RelevantDocuments)
	e.Generation = marshalOrNil(state.Generation)
	e.ThinkingSteps = marshalOrNil(state.ThinkingSteps)

	return e
}

// ToState rebuilds pipeline state from a stored session, used when
// inspecting or resuming a run.
func (m *SessionMapper) ToState(e *entity.RagSession) (*rag.SessionState, error) {
	if e == nil {
		return nil, nil
	}

	state := &rag.SessionState{
		SessionID:         e.Id,
		UserID:            e.UserId,
		TenantID:          e.TenantId,
		OriginalQuery:     e.OriginalQuery,
		CurrentQuery:      e.CurrentQuery,
		RetrievalAttempts: e.RetrievalAttempts,
		IterationCount:    e.IterationCount,
		ErrorReason:       e.ErrorReason,
		IsComplete:        e.Status == constant.SessionStatusCompleted || e.Status == constant.SessionStatusFailed,
		StartedAt:         e.CreatedAt,
		CompletedAt:       e.CompletedAt,
	}

	if len(e.Analysis) > 0 {
		var a rag.QueryAnalysis
		if err := json.Unmarshal(e.Analysis, &a); err != nil {
			return nil, err
		}
		state.Analysis = &a
	}
	if len(e.AllowedDocumentIds) > 0 {
		var ids []uuid.UUID
		if err := json.Unmarshal(e.AllowedDocumentIds, &ids); err != nil {
			return nil, err
		}
		state.AllowedDocumentIDs = ids
	}
	if len(e.RetrievedDocuments) > 0 {
		if err := json.Unmarshal(e.RetrievedDocuments, &state.RetrievedDocuments); err != nil {
			return nil, err
		}
	}
	if len(e.RelevantDocuments) > 0 {
		if err := json.Unmarshal(e.RelevantDocuments, &state.RelevantDocuments); err != nil {
			return nil, err
		}
	}
	if len(e.Generation) > 0 {
		var g rag.GenerationResult
		if err := json.Unmarshal(e.Generation, &g); err != nil {
			return nil, err
		}
		state.Generation = &g
	}
	if len(e.ThinkingSteps) > 0 {
		if err := json.Unmarshal(e.ThinkingSteps, &state.ThinkingSteps); err != nil {
			return nil, err
		}
	}

	return state, nil
}

func statusForState(state *rag.SessionState) string {
	switch {
	case state.Failed():
		return constant.SessionStatusFailed
	case state.IsComplete:
		return constant.SessionStatusCompleted
	default:
		return constant.SessionStatusInProgress
	}
}

func marshalOrNil(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	// A typed nil pointer marshals to the literal "null"; store the field as
	// absent instead so ToState does not fabricate an empty struct.
	if err != nil || string(raw) == "null" {
		return nil
	}
	return raw
}
