package implementation

import (
	"context"
	"errors"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionSetRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionMapper
}

func NewQuestionSetRepository(db *gorm.DB) contract.QuestionSetRepository {
	return &QuestionSetRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuestionMapper(),
	}
}

func (r *QuestionSetRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QuestionSetRepositoryImpl) Create(ctx context.Context, set *entity.QuestionSet) error {
	m := r.mapper.SetToModel(set)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*set = *r.mapper.SetToEntity(m)
	return nil
}

func (r *QuestionSetRepositoryImpl) Update(ctx context.Context, set *entity.QuestionSet) error {
	m := r.mapper.SetToModel(set)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*set = *r.mapper.SetToEntity(m)
	return nil
}

func (r *QuestionSetRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.QuestionSet{}, id).Error
}

func (r *QuestionSetRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuestionSet, error) {
	var m model.QuestionSet
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SetToEntity(&m), nil
}

func (r *QuestionSetRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionSet, error) {
	var models []*model.QuestionSet
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.QuestionSet, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SetToEntity(m)
	}
	return entities, nil
}

type GeneratedQuestionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionMapper
}

func NewGeneratedQuestionRepository(db *gorm.DB) contract.GeneratedQuestionRepository {
	return &GeneratedQuestionRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuestionMapper(),
	}
}

func (r *GeneratedQuestionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GeneratedQuestionRepositoryImpl) Create(ctx context.Context, question *entity.GeneratedQuestion) error {
	m := r.mapper.QuestionToModel(question)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*question = *r.mapper.QuestionToEntity(m)
	return nil
}

func (r *GeneratedQuestionRepositoryImpl) Update(ctx context.Context, question *entity.GeneratedQuestion) error {
	m := r.mapper.QuestionToModel(question)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*question = *r.mapper.QuestionToEntity(m)
	return nil
}

func (r *GeneratedQuestionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GeneratedQuestion, error) {
	var m model.GeneratedQuestion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.QuestionToEntity(&m), nil
}

func (r *GeneratedQuestionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GeneratedQuestion, error) {
	var models []*model.GeneratedQuestion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.QuestionsToEntities(models), nil
}

func (r *GeneratedQuestionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.GeneratedQuestion{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
