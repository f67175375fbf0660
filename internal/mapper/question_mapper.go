package mapper

import (
	"encoding/json"
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionMapper struct{}

func NewQuestionMapper() *QuestionMapper {
	return &QuestionMapper{}
}

func (m *QuestionMapper) SetToEntity(s *model.QuestionSet) *entity.QuestionSet {
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

	return &entity.QuestionSet{
		Id:        s.Id,
		SessionId: s.SessionId,
		TenantId:  s.TenantId,
		UserId:    s.UserId,
		Topic:     s.Topic,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: s.DeletedAt.Valid,
	}
}

func (m *QuestionMapper) SetToModel(s *entity.QuestionSet) *model.QuestionSet {
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

	return &model.QuestionSet{
		Id:        s.Id,
		SessionId: s.SessionId,
		TenantId:  s.TenantId,
		UserId:    s.UserId,
		Topic:     s.Topic,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *QuestionMapper) QuestionToEntity(q *model.GeneratedQuestion) *entity.GeneratedQuestion {
	if q == nil {
		return nil
	}

	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		t := q.UpdatedAt
		updatedAt = &t
	}

	return &entity.GeneratedQuestion{
		Id:             q.Id,
		QuestionSetId:  q.QuestionSetId,
		Position:       q.Position,
		Question:       q.Question,
		Answer:         q.Answer,
		SourceIds:      json.RawMessage(q.SourceIds),
		ApprovalStatus: q.ApprovalStatus,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *QuestionMapper) QuestionToModel(q *entity.GeneratedQuestion) *model.GeneratedQuestion {
	if q == nil {
		return nil
	}

	var updatedAt time.Time
	if q.UpdatedAt != nil {
		updatedAt = *q.UpdatedAt
	}

	return &model.GeneratedQuestion{
		Id:             q.Id,
		QuestionSetId:  q.QuestionSetId,
		Position:       q.Position,
		Question:       q.Question,
		Answer:         q.Answer,
		SourceIds:      datatypes.JSON(q.SourceIds),
		ApprovalStatus: q.ApprovalStatus,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *QuestionMapper) QuestionsToEntities(questions []*model.GeneratedQuestion) []*entity.GeneratedQuestion {
	entities := make([]*entity.GeneratedQuestion, len(questions))
	for i, q := range questions {
		entities[i] = m.QuestionToEntity(q)
	}
	return entities
}
