package repository

import (
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

// Upsert records the selected option for (session, question). It first
// touches the owning session with a conditional update so that a concurrent
// submit either commits before (and the write is rejected with
// ErrSessionClosed) or waits for this transaction. The answer row itself is
// an INSERT ... ON CONFLICT DO UPDATE: last write wins, never two rows.
func (r *AnswerRepository) Upsert(ctx context.Context, sessionID, questionID uint, option string) (*model.ExamAnswer, error) {
	var stored model.ExamAnswer
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ExamSession{}).
			Where("id = ? AND submitted_at IS NULL", sessionID).
			Update("updated_at", time.Now().UTC())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrSessionClosed
		}

		answer := model.ExamAnswer{
			SessionID:      sessionID,
			QuestionID:     questionID,
			SelectedOption: option,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"selected_option", "updated_at"}),
		}).Create(&answer).Error
		if err != nil {
			return err
		}

		return tx.Where("session_id = ? AND question_id = ?", sessionID, questionID).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uint) ([]model.ExamAnswer, error) {
	var answers []model.ExamAnswer
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Order("question_id asc").Find(&answers).Error
	return answers, err
}

func (r *AnswerRepository) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ExamAnswer{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}
