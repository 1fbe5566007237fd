package repository

import (
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ColumnMidtermScore    = "midterm_score"
	ColumnFinalScore      = "final_score"
	ColumnAssignmentScore = "assignment_score"
)

type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) FindByID(ctx context.Context, id uint) (*model.Result, error) {
	var res model.Result
	if err := r.DB.WithContext(ctx).First(&res, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ResultRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*model.Result, error) {
	var res model.Result
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	return &res, nil
}

// GetOrCreate follows the same find / insert-ignore / re-read path as the session store.
func (r *ResultRepository) GetOrCreate(ctx context.Context, studentID, courseID uint) (*model.Result, error) {
	res, err := r.FindByStudentAndCourse(ctx, studentID, courseID)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, util.ErrResultNotFound) {
		return nil, err
	}

	fresh := &model.Result{
		StudentID: studentID,
		CourseID:  courseID,
		Grade:     model.GradeFor(0),
	}
	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error; err != nil {
		return nil, err
	}

	res, err = r.FindByStudentAndCourse(ctx, studentID, courseID)
	if errors.Is(err, util.ErrResultNotFound) {
		return nil, util.ErrDuplicateResult
	}
	return res, err
}

// UpdateComponents writes the given component columns and recomputes the
// overall score and grade in the same transaction. The first UPDATE takes the
// row lock, so concurrent folds into one result serialise instead of losing
// each other's component. extra is added to the overall score without being
// persisted in a component column.
func (r *ResultRepository) UpdateComponents(ctx context.Context, id uint, components map[string]interface{}, extra float64) (*model.Result, error) {
	var res model.Result
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"updated_at": time.Now().UTC()}
		for col, v := range components {
			updates[col] = v
		}
		upd := tx.Model(&model.Result{}).Where("id = ?", id).Updates(updates)
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return util.ErrResultNotFound
		}

		if err := tx.First(&res, id).Error; err != nil {
			return err
		}
		res.OverallScore = res.ComponentTotal() + extra
		res.Grade = model.GradeFor(res.OverallScore)
		return tx.Model(&model.Result{}).Where("id = ?", id).Updates(map[string]interface{}{
			"overall_score": res.OverallScore,
			"grade":         res.Grade,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SetVisibility never touches scores. Revealing stamps who and when; hiding
// clears the stamp so it always describes the current reveal.
func (r *ResultRepository) SetVisibility(ctx context.Context, id uint, visible bool, by uint, at time.Time) (*model.Result, error) {
	updates := map[string]interface{}{
		"visible_to_student": visible,
		"revealed_by":        nil,
		"revealed_at":        nil,
	}
	if visible {
		updates["revealed_by"] = by
		updates["revealed_at"] = at
	}
	res := r.DB.WithContext(ctx).Model(&model.Result{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, util.ErrResultNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *ResultRepository) ListVisibleByStudent(ctx context.Context, studentID uint) ([]model.Result, error) {
	var results []model.Result
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND visible_to_student = ?", studentID, true).
		Order("course_id asc").
		Find(&results).Error
	return results, err
}

func (r *ResultRepository) ListByCourse(ctx context.Context, courseID uint) ([]model.Result, error) {
	var results []model.Result
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("student_id asc").
		Find(&results).Error
	return results, err
}
