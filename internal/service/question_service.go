package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/internal/util"
	"academic_backend/pkg/logger"
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	ExamRepo     *repository.ExamRepository
	Events       AnswerKeyPublisher
	Now          func() time.Time
}

func NewQuestionService(questionRepo *repository.QuestionRepository, examRepo *repository.ExamRepository, events AnswerKeyPublisher) *QuestionService {
	return &QuestionService{
		QuestionRepo: questionRepo,
		ExamRepo:     examRepo,
		Events:       events,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

type QuestionInput struct {
	Text          string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string
	Weight        *float64
}

// QuestionUpdate is a partial edit; nil fields keep their value.
type QuestionUpdate struct {
	Text          *string
	OptionA       *string
	OptionB       *string
	OptionC       *string
	OptionD       *string
	CorrectOption *string
	Weight        *float64
}

func normalizeOption(o string) string {
	return strings.ToUpper(strings.TrimSpace(o))
}

func (s *QuestionService) ownedExam(ctx context.Context, caller model.Caller, examID uint) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := requireExamOwner(caller, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *QuestionService) Create(ctx context.Context, caller model.Caller, examID uint, in QuestionInput) (*model.Question, error) {
	if _, err := s.ownedExam(ctx, caller, examID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, util.InvalidInput("question text is required")
	}
	correct := normalizeOption(in.CorrectOption)
	if !model.ValidOption(correct) {
		return nil, util.ErrInvalidOption
	}
	weight := 1.0
	if in.Weight != nil {
		weight = *in.Weight
	}
	if weight < 0 {
		return nil, util.ErrInvalidWeight
	}

	q := &model.Question{
		ExamID:        examID,
		Text:          in.Text,
		OptionA:       in.OptionA,
		OptionB:       in.OptionB,
		OptionC:       in.OptionC,
		OptionD:       in.OptionD,
		CorrectOption: correct,
		Weight:        weight,
	}
	if err := s.QuestionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Update applies the edit and commits it. When the correct option or the
// weight changed, an AnswerKeyChanged event is published; recomputation runs
// after this call returns and cannot fail it.
func (s *QuestionService) Update(ctx context.Context, caller model.Caller, questionID uint, in QuestionUpdate) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedExam(ctx, caller, q.ExamID); err != nil {
		return nil, err
	}

	evt := AnswerKeyChanged{QuestionID: q.ID, ExamID: q.ExamID, ChangedBy: caller.ID}
	if in.Text != nil {
		if strings.TrimSpace(*in.Text) == "" {
			return nil, util.InvalidInput("question text is required")
		}
		q.Text = *in.Text
	}
	for dst, src := range map[*string]*string{
		&q.OptionA: in.OptionA,
		&q.OptionB: in.OptionB,
		&q.OptionC: in.OptionC,
		&q.OptionD: in.OptionD,
	} {
		if src != nil {
			*dst = *src
		}
	}
	if in.CorrectOption != nil {
		correct := normalizeOption(*in.CorrectOption)
		if !model.ValidOption(correct) {
			return nil, util.ErrInvalidOption
		}
		evt.CorrectOptionChanged = correct != q.CorrectOption
		q.CorrectOption = correct
	}
	if in.Weight != nil {
		if *in.Weight < 0 {
			return nil, util.ErrInvalidWeight
		}
		evt.WeightChanged = *in.Weight != q.Weight
		q.Weight = *in.Weight
	}

	if err := s.QuestionRepo.Update(ctx, q); err != nil {
		return nil, err
	}

	if (evt.CorrectOptionChanged || evt.WeightChanged) && s.Events != nil {
		evt.At = s.Now()
		s.Events.Publish(evt)
		logger.Log.Info("Answer key changed",
			zap.Uint("questionId", q.ID),
			zap.Bool("correctOption", evt.CorrectOptionChanged),
			zap.Bool("weight", evt.WeightChanged))
	}
	return q, nil
}

func (s *QuestionService) ListByExam(ctx context.Context, caller model.Caller, examID uint) ([]model.Question, error) {
	if _, err := s.ownedExam(ctx, caller, examID); err != nil {
		return nil, err
	}
	return s.QuestionRepo.ListByExam(ctx, examID)
}
