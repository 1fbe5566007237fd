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

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) FindByID(ctx context.Context, id uint) (*model.ExamSession, error) {
	var s model.ExamSession
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) FindByStudentAndExam(ctx context.Context, studentID, examID uint) (*model.ExamSession, error) {
	var s model.ExamSession
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetOrCreate returns the session for (student, exam), creating it with
// StartedAt = now when absent. Concurrent callers converge on one row: the
// insert is ON CONFLICT DO NOTHING against the (student_id, exam_id) unique
// index and the loser re-reads the winner's row. created reports whether this
// call inserted the row.
func (r *SessionRepository) GetOrCreate(ctx context.Context, studentID, examID uint, now time.Time) (sess *model.ExamSession, created bool, err error) {
	sess, err = r.FindByStudentAndExam(ctx, studentID, examID)
	if err == nil {
		return sess, false, nil
	}
	if !errors.Is(err, util.ErrSessionNotFound) {
		return nil, false, err
	}

	fresh := &model.ExamSession{
		StudentID: studentID,
		ExamID:    examID,
		StartedAt: now,
	}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(fresh)
	if res.Error != nil {
		return nil, false, res.Error
	}

	sess, err = r.FindByStudentAndExam(ctx, studentID, examID)
	if errors.Is(err, util.ErrSessionNotFound) {
		return nil, false, util.ErrDuplicateSession
	}
	if err != nil {
		return nil, false, err
	}
	return sess, res.RowsAffected == 1 && fresh.ID == sess.ID, nil
}

// MarkSubmitted stamps submitted_at exactly once.
func (r *SessionRepository) MarkSubmitted(ctx context.Context, id uint, at time.Time) error {
	res := r.DB.WithContext(ctx).
		Model(&model.ExamSession{}).
		Where("id = ? AND submitted_at IS NULL", id).
		Update("submitted_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return util.ErrAlreadySubmitted
	}
	return nil
}

func (r *SessionRepository) UpdateScore(ctx context.Context, id uint, score, maxScore float64) error {
	res := r.DB.WithContext(ctx).
		Model(&model.ExamSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"score": score, "max_score": maxScore})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrSessionNotFound
	}
	return nil
}

// ListIDsAnswering returns every session holding an answer to the question.
func (r *SessionRepository) ListIDsAnswering(ctx context.Context, questionID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).
		Model(&model.ExamAnswer{}).
		Where("question_id = ?", questionID).
		Distinct("session_id").
		Pluck("session_id", &ids).Error
	return ids, err
}
