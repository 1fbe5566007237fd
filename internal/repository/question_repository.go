package repository

import (
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"context"
	"errors"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Save(q).Error
}

func (r *QuestionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.WithContext(ctx).First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) ListByExam(ctx context.Context, examID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.WithContext(ctx).Where("exam_id = ?", examID).Order("id asc").Find(&qs).Error
	return qs, err
}

// FindByIDs returns the questions keyed by id; missing ids are simply absent.
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]model.Question, error) {
	out := make(map[uint]model.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var qs []model.Question
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&qs).Error; err != nil {
		return nil, err
	}
	for _, q := range qs {
		out[q.ID] = q
	}
	return out, nil
}
