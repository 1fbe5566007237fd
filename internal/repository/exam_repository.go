package repository

import (
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(ctx context.Context, exam *model.Exam) error {
	return r.DB.WithContext(ctx).Create(exam).Error
}

func (r *ExamRepository) FindByID(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.DB.WithContext(ctx).First(&exam, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) ListByClass(ctx context.Context, classID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("start_time asc").
		Find(&exams).Error
	return exams, err
}

func (r *ExamRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("start_time desc").
		Find(&exams).Error
	return exams, err
}

// ListStartingBetween returns exams whose start time falls in [from, to].
func (r *ExamRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.WithContext(ctx).
		Where("start_time >= ? AND start_time <= ?", from, to).
		Find(&exams).Error
	return exams, err
}
