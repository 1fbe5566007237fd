package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/internal/util"
	"academic_backend/pkg/logger"
	"context"
	"time"

	"go.uber.org/zap"
)

type ResultService struct {
	ResultRepo *repository.ResultRepository
	CourseRepo *repository.CourseRepository
	Now        func() time.Time
}

func NewResultService(resultRepo *repository.ResultRepository, courseRepo *repository.CourseRepository) *ResultService {
	return &ResultService{
		ResultRepo: resultRepo,
		CourseRepo: courseRepo,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// componentColumn maps an exam kind to its Result slot. Kinds without a slot
// report false.
func componentColumn(kind model.ExamKind) (string, bool) {
	switch kind {
	case model.ExamKindMidterm:
		return repository.ColumnMidtermScore, true
	case model.ExamKindFinal:
		return repository.ColumnFinalScore, true
	}
	return "", false
}

// FoldScore records an exam score on the (student, course) result, creating
// the result on first use, and recomputes overall score and grade.
// Visibility is left untouched. A kind without a slot is not persisted; it
// only lifts the overall score computed by this fold.
func (s *ResultService) FoldScore(ctx context.Context, studentID, courseID uint, kind model.ExamKind, score float64) (*model.Result, error) {
	res, err := s.ResultRepo.GetOrCreate(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	components := map[string]interface{}{}
	extra := 0.0
	if col, ok := componentColumn(kind); ok {
		components[col] = score
	} else {
		extra = score
		logger.Log.Debug("Exam kind has no result slot, score not persisted",
			zap.String("kind", string(kind)),
			zap.Uint("studentId", studentID),
			zap.Uint("courseId", courseID))
	}
	return s.ResultRepo.UpdateComponents(ctx, res.ID, components, extra)
}

// ResultScoresInput carries staff overrides; nil fields stay as they are.
type ResultScoresInput struct {
	MidtermScore    *float64
	FinalScore      *float64
	AssignmentScore *float64
}

func (s *ResultService) UpdateScores(ctx context.Context, caller model.Caller, resultID uint, in ResultScoresInput) (*model.Result, error) {
	res, err := s.ResultRepo.FindByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if _, err := requireCourseStaff(ctx, s.CourseRepo, caller, res.CourseID, true); err != nil {
		return nil, err
	}

	components := map[string]interface{}{}
	for col, v := range map[string]*float64{
		repository.ColumnMidtermScore:    in.MidtermScore,
		repository.ColumnFinalScore:      in.FinalScore,
		repository.ColumnAssignmentScore: in.AssignmentScore,
	} {
		if v == nil {
			continue
		}
		if *v < 0 {
			return nil, util.InvalidInput("scores must not be negative")
		}
		components[col] = *v
	}
	if len(components) == 0 {
		return nil, util.InvalidInput("at least one score is required")
	}
	return s.ResultRepo.UpdateComponents(ctx, resultID, components, 0)
}

// SetVisibility is the only way a result becomes visible to its student.
func (s *ResultService) SetVisibility(ctx context.Context, caller model.Caller, resultID uint, visible bool) (*model.Result, error) {
	res, err := s.ResultRepo.FindByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if _, err := requireCourseStaff(ctx, s.CourseRepo, caller, res.CourseID, true); err != nil {
		return nil, err
	}
	updated, err := s.ResultRepo.SetVisibility(ctx, resultID, visible, caller.ID, s.Now())
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Result visibility changed",
		zap.Uint("resultId", resultID),
		zap.Bool("visible", visible),
		zap.Uint("by", caller.ID))
	return updated, nil
}

// Get returns a single result. Students see only their own revealed results.
func (s *ResultService) Get(ctx context.Context, caller model.Caller, resultID uint) (*model.Result, error) {
	res, err := s.ResultRepo.FindByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if caller.Role == model.Student {
		if res.StudentID != caller.ID || !res.VisibleToStudent {
			return nil, util.ErrResultNotFound
		}
		return res, nil
	}
	if _, err := requireCourseStaff(ctx, s.CourseRepo, caller, res.CourseID, false); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ResultService) ListForStudent(ctx context.Context, caller model.Caller) ([]model.Result, error) {
	return s.ResultRepo.ListVisibleByStudent(ctx, caller.ID)
}

func (s *ResultService) ListByCourse(ctx context.Context, caller model.Caller, courseID uint) (*model.Course, []model.Result, error) {
	course, err := requireCourseStaff(ctx, s.CourseRepo, caller, courseID, false)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.ResultRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	return course, results, nil
}
