package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/internal/util"
	"academic_backend/pkg/monitoring"
	"context"
	"errors"
	"strings"
)

// AnswerInput is the single answer contract shared by the synchronous and
// realtime ingress paths.
type AnswerInput struct {
	StudentID      uint
	ExamID         uint
	QuestionID     uint
	SelectedOption string
	Channel        string
}

type AnswerReceipt struct {
	SessionID      uint   `json:"sessionId"`
	ExamID         uint   `json:"examId"`
	QuestionID     uint   `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
	SessionCreated bool   `json:"sessionCreated"`
}

type AnswerService struct {
	Sessions     *SessionService
	QuestionRepo *repository.QuestionRepository
	AnswerRepo   *repository.AnswerRepository
}

func NewAnswerService(sessions *SessionService, questionRepo *repository.QuestionRepository, answerRepo *repository.AnswerRepository) *AnswerService {
	return &AnswerService{
		Sessions:     sessions,
		QuestionRepo: questionRepo,
		AnswerRepo:   answerRepo,
	}
}

// Upsert validates and records one answer, lazily opening the session. The
// two ingress paths coordinate only through the storage guards: the unique
// session key and the conditional session touch inside the ledger write.
func (s *AnswerService) Upsert(ctx context.Context, in AnswerInput) (*AnswerReceipt, error) {
	receipt, err := s.upsert(ctx, in)
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(util.ReasonOf(err))
	}
	channel := in.Channel
	if channel == "" {
		channel = util.ChannelSync
	}
	monitoring.AnswerCounter.WithLabelValues(channel, outcome).Inc()
	return receipt, err
}

func (s *AnswerService) upsert(ctx context.Context, in AnswerInput) (*AnswerReceipt, error) {
	option := normalizeOption(in.SelectedOption)
	if !model.ValidOption(option) {
		return nil, util.ErrInvalidOption
	}

	exam, err := s.Sessions.openable(ctx, in.StudentID, in.ExamID)
	if err != nil {
		return nil, err
	}
	q, err := s.QuestionRepo.FindByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if q.ExamID != exam.ID {
		return nil, util.ErrQuestionNotInExam
	}

	sess, created, err := s.Sessions.getOrCreate(ctx, in.StudentID, exam)
	if err != nil {
		if errors.Is(err, util.ErrAlreadySubmitted) {
			return nil, util.ErrSessionClosed
		}
		return nil, err
	}
	answer, err := s.AnswerRepo.Upsert(ctx, sess.ID, q.ID, option)
	if err != nil {
		return nil, err
	}
	return &AnswerReceipt{
		SessionID:      sess.ID,
		ExamID:         exam.ID,
		QuestionID:     answer.QuestionID,
		SelectedOption: answer.SelectedOption,
		SessionCreated: created,
	}, nil
}
