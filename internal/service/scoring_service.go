package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/pkg/logger"
	"academic_backend/pkg/monitoring"
	"academic_backend/pkg/tracing"
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ResultFolder receives the score of a submitted session.
type ResultFolder interface {
	FoldScore(ctx context.Context, studentID, courseID uint, kind model.ExamKind, score float64) (*model.Result, error)
}

type ScoringService struct {
	SessionRepo  *repository.SessionRepository
	AnswerRepo   *repository.AnswerRepository
	QuestionRepo *repository.QuestionRepository
	ExamRepo     *repository.ExamRepository
	Results      ResultFolder
	Workers      int
}

func NewScoringService(
	sessionRepo *repository.SessionRepository,
	answerRepo *repository.AnswerRepository,
	questionRepo *repository.QuestionRepository,
	examRepo *repository.ExamRepository,
	results ResultFolder,
	workers int,
) *ScoringService {
	if workers <= 0 {
		workers = 1
	}
	return &ScoringService{
		SessionRepo:  sessionRepo,
		AnswerRepo:   answerRepo,
		QuestionRepo: questionRepo,
		ExamRepo:     examRepo,
		Results:      results,
		Workers:      workers,
	}
}

// ScoreAnswers sums weights over the answered questions only. Unanswered
// questions count toward neither score nor maxScore, and answers whose
// question no longer resolves are ignored.
func ScoreAnswers(answers []model.ExamAnswer, questions map[uint]model.Question) (score, maxScore float64) {
	for _, a := range answers {
		q, ok := questions[a.QuestionID]
		if !ok {
			continue
		}
		maxScore += q.Weight
		if a.SelectedOption == q.CorrectOption {
			score += q.Weight
		}
	}
	return score, maxScore
}

// Compute scores the session from its ledger and stores score/maxScore on it.
func (s *ScoringService) Compute(ctx context.Context, sessionID uint) (*model.ExamSession, error) {
	sess, err := s.SessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.AnswerRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	ids := make([]uint, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.QuestionID)
	}
	questions, err := s.QuestionRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	score, maxScore := ScoreAnswers(answers, questions)
	if err := s.SessionRepo.UpdateScore(ctx, sessionID, score, maxScore); err != nil {
		return nil, fmt.Errorf("store score: %w", err)
	}
	sess.Score = score
	sess.MaxScore = maxScore
	return sess, nil
}

// ComputeAndFold scores the session and, when it is submitted, folds the
// score into the student's course result.
func (s *ScoringService) ComputeAndFold(ctx context.Context, sessionID uint, exam *model.Exam) (*model.ExamSession, error) {
	sess, err := s.Compute(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.Fold(ctx, sess, exam); err != nil {
		return nil, err
	}
	return sess, nil
}

// Fold writes a submitted session's score into the student's course result.
// Unsubmitted sessions are left alone. Folding is idempotent for a given score.
func (s *ScoringService) Fold(ctx context.Context, sess *model.ExamSession, exam *model.Exam) error {
	if !sess.Submitted() || s.Results == nil {
		return nil
	}
	if _, err := s.Results.FoldScore(ctx, sess.StudentID, exam.CourseID, exam.Title, sess.Score); err != nil {
		return fmt.Errorf("fold score: %w", err)
	}
	return nil
}

// foldOrLog folds without failing the caller. A missed fold is retried by the
// next GetScore or answer key recompute of the session.
func (s *ScoringService) foldOrLog(ctx context.Context, sess *model.ExamSession, exam *model.Exam) {
	if err := s.Fold(ctx, sess, exam); err != nil {
		monitoring.ResultFoldFailures.Inc()
		logger.Log.Error("Result fold failed",
			zap.Uint("sessionId", sess.ID),
			zap.Uint("studentId", sess.StudentID),
			zap.Uint("courseId", exam.CourseID),
			zap.Error(err))
	}
}

type RecomputeReport struct {
	QuestionID uint `json:"questionId"`
	Sessions   int  `json:"sessions"`
	Succeeded  int  `json:"succeeded"`
	Failed     int  `json:"failed"`
}

// RecomputeForQuestion rescores every session holding an answer to the
// question. Sessions are processed independently on a bounded worker group;
// a failing session is logged and counted but never stops its siblings.
// The returned error covers only the lookup of affected sessions.
func (s *ScoringService) RecomputeForQuestion(ctx context.Context, questionID uint) (RecomputeReport, error) {
	ctx, span := tracing.StartSpan(ctx, "scoring.recompute", attribute.Int64("question.id", int64(questionID)))
	report := RecomputeReport{QuestionID: questionID}

	q, err := s.QuestionRepo.FindByID(ctx, questionID)
	if err != nil {
		tracing.EndSpan(span, err)
		return report, err
	}
	exam, err := s.ExamRepo.FindByID(ctx, q.ExamID)
	if err != nil {
		tracing.EndSpan(span, err)
		return report, err
	}
	sessionIDs, err := s.SessionRepo.ListIDsAnswering(ctx, questionID)
	if err != nil {
		tracing.EndSpan(span, err)
		return report, fmt.Errorf("list affected sessions: %w", err)
	}
	report.Sessions = len(sessionIDs)

	var succeeded, failed int64
	var g errgroup.Group
	g.SetLimit(s.Workers)
	for _, id := range sessionIDs {
		id := id
		g.Go(func() error {
			if _, err := s.ComputeAndFold(ctx, id, exam); err != nil {
				atomic.AddInt64(&failed, 1)
				monitoring.RecomputeCounter.WithLabelValues("failed").Inc()
				logger.Log.Error("Session recompute failed",
					zap.Uint("sessionId", id),
					zap.Uint("questionId", questionID),
					zap.Error(err))
				return nil
			}
			atomic.AddInt64(&succeeded, 1)
			monitoring.RecomputeCounter.WithLabelValues("ok").Inc()
			return nil
		})
	}
	_ = g.Wait()

	report.Succeeded = int(succeeded)
	report.Failed = int(failed)
	span.SetAttributes(attribute.Int("sessions", report.Sessions), attribute.Int("failed", report.Failed))
	tracing.EndSpan(span, nil)
	return report, nil
}

// HandleAnswerKeyChanged is the event bus subscription of the scoring engine.
func (s *ScoringService) HandleAnswerKeyChanged(ctx context.Context, evt AnswerKeyChanged) {
	report, err := s.RecomputeForQuestion(ctx, evt.QuestionID)
	if err != nil {
		logger.Log.Error("Answer key recompute aborted", zap.Uint("questionId", evt.QuestionID), zap.Error(err))
		return
	}
	logger.Log.Info("Answer key recompute finished",
		zap.Uint("questionId", report.QuestionID),
		zap.Int("sessions", report.Sessions),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
}
