package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/internal/util"
	"academic_backend/pkg/logger"
	"academic_backend/pkg/tracing"
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type SessionService struct {
	SessionRepo *repository.SessionRepository
	AnswerRepo  *repository.AnswerRepository
	ExamRepo    *repository.ExamRepository
	UserRepo    *repository.UserRepository
	Scoring     *ScoringService
	Now         func() time.Time
}

func NewSessionService(
	sessionRepo *repository.SessionRepository,
	answerRepo *repository.AnswerRepository,
	examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository,
	scoring *ScoringService,
) *SessionService {
	return &SessionService{
		SessionRepo: sessionRepo,
		AnswerRepo:  answerRepo,
		ExamRepo:    examRepo,
		UserRepo:    userRepo,
		Scoring:     scoring,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// openable loads the exam and checks that the student may work on it right now.
func (s *SessionService) openable(ctx context.Context, studentID, examID uint) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := requireEnrolled(ctx, s.UserRepo, studentID, exam); err != nil {
		return nil, err
	}
	if err := CheckWindow(exam, s.Now()); err != nil {
		return nil, err
	}
	return exam, nil
}

// getOrCreate resolves the student's session for an exam already checked by openable.
func (s *SessionService) getOrCreate(ctx context.Context, studentID uint, exam *model.Exam) (*model.ExamSession, bool, error) {
	sess, created, err := s.SessionRepo.GetOrCreate(ctx, studentID, exam.ID, s.Now())
	if err != nil {
		return nil, false, err
	}
	if sess.Submitted() {
		return nil, false, util.ErrAlreadySubmitted
	}
	if created {
		logger.Log.Info("Exam session started",
			zap.Uint("sessionId", sess.ID),
			zap.Uint("studentId", studentID),
			zap.Uint("examId", exam.ID))
	}
	return sess, created, nil
}

// Open returns the caller's session for the exam, creating it on first use.
func (s *SessionService) Open(ctx context.Context, caller model.Caller, examID uint) (*model.ExamSession, bool, error) {
	exam, err := s.openable(ctx, caller.ID, examID)
	if err != nil {
		return nil, false, err
	}
	return s.getOrCreate(ctx, caller.ID, exam)
}

// Submit closes the session exactly once, scores it and folds the score into
// the course result. A second call reports util.ErrAlreadySubmitted and leaves
// submittedAt unchanged. A failed fold does not undo the submission.
func (s *SessionService) Submit(ctx context.Context, caller model.Caller, sessionID uint) (*model.ExamSession, error) {
	ctx, span := tracing.StartSpan(ctx, "session.submit", attribute.Int64("session.id", int64(sessionID)))
	sess, err := s.submit(ctx, caller, sessionID)
	tracing.EndSpan(span, err)
	return sess, err
}

func (s *SessionService) submit(ctx context.Context, caller model.Caller, sessionID uint) (*model.ExamSession, error) {
	sess, err := s.SessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.StudentID != caller.ID {
		return nil, util.ErrForbidden
	}
	if sess.Submitted() {
		return nil, util.ErrAlreadySubmitted
	}
	exam, err := s.ExamRepo.FindByID(ctx, sess.ExamID)
	if err != nil {
		return nil, err
	}
	if err := s.SessionRepo.MarkSubmitted(ctx, sessionID, s.Now()); err != nil {
		return nil, err
	}

	scored, err := s.Scoring.Compute(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Scoring.foldOrLog(ctx, scored, exam)
	logger.Log.Info("Exam session submitted",
		zap.Uint("sessionId", sessionID),
		zap.Uint("studentId", caller.ID),
		zap.Float64("score", scored.Score),
		zap.Float64("maxScore", scored.MaxScore))
	return scored, nil
}

type ScoreView struct {
	SessionID   uint       `json:"sessionId"`
	ExamID      uint       `json:"examId"`
	Score       float64    `json:"score"`
	MaxScore    float64    `json:"maxScore"`
	Answered    int64      `json:"answered"`
	SubmittedAt *time.Time `json:"submittedAt"`
}

// GetScore rescores a session and returns the fresh numbers, refolding a
// submitted score into the course result. The owning student may read it
// after submission; exam staff at any time.
func (s *SessionService) GetScore(ctx context.Context, caller model.Caller, sessionID uint) (*ScoreView, error) {
	sess, err := s.SessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if caller.Role == model.Student {
		if sess.StudentID != caller.ID {
			return nil, util.ErrForbidden
		}
		if !sess.Submitted() {
			return nil, util.ErrSessionNotSubmitted
		}
	}
	exam, err := s.ExamRepo.FindByID(ctx, sess.ExamID)
	if err != nil {
		return nil, err
	}
	if caller.Role == model.Teacher {
		if err := requireExamOwner(caller, exam); err != nil {
			return nil, err
		}
	}

	scored, err := s.Scoring.Compute(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Scoring.foldOrLog(ctx, scored, exam)
	answered, err := s.AnswerRepo.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &ScoreView{
		SessionID:   scored.ID,
		ExamID:      scored.ExamID,
		Score:       scored.Score,
		MaxScore:    scored.MaxScore,
		Answered:    answered,
		SubmittedAt: scored.SubmittedAt,
	}, nil
}
