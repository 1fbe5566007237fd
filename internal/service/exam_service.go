package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/internal/util"
	"context"
	"errors"
	"strings"
	"time"
)

type ExamService struct {
	ExamRepo     *repository.ExamRepository
	QuestionRepo *repository.QuestionRepository
	SessionRepo  *repository.SessionRepository
	CourseRepo   *repository.CourseRepository
	UserRepo     *repository.UserRepository
	Now          func() time.Time
}

func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	sessionRepo *repository.SessionRepository,
	courseRepo *repository.CourseRepository,
	userRepo *repository.UserRepository,
) *ExamService {
	return &ExamService{
		ExamRepo:     examRepo,
		QuestionRepo: questionRepo,
		SessionRepo:  sessionRepo,
		CourseRepo:   courseRepo,
		UserRepo:     userRepo,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

type CreateExamInput struct {
	CourseID  uint
	ClassID   uint
	Title     model.ExamKind
	StartTime time.Time
	Duration  int
}

func (s *ExamService) CreateExam(ctx context.Context, caller model.Caller, in CreateExamInput) (*model.Exam, error) {
	in.Title = model.ExamKind(strings.ToLower(string(in.Title)))
	if !in.Title.Valid() {
		return nil, util.ErrInvalidExamKind
	}
	if in.Duration <= 0 {
		return nil, util.InvalidInput("duration must be a positive number of minutes")
	}
	if in.ClassID == 0 || in.StartTime.IsZero() {
		return nil, util.InvalidInput("classId and startTime are required")
	}
	course, err := requireCourseStaff(ctx, s.CourseRepo, caller, in.CourseID, true)
	if err != nil {
		return nil, err
	}

	teacherID := caller.ID
	if caller.Role == model.Admin {
		teacherID = course.TeacherID
	}
	exam := &model.Exam{
		CourseID:  course.ID,
		TeacherID: teacherID,
		ClassID:   in.ClassID,
		Title:     in.Title,
		StartTime: in.StartTime.UTC(),
		Duration:  in.Duration,
	}
	if err := s.ExamRepo.Create(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

type ExamSummary struct {
	ID        uint                    `json:"id"`
	CourseID  uint                    `json:"courseId"`
	ClassID   uint                    `json:"classId"`
	Title     model.ExamKind          `json:"title"`
	StartTime time.Time               `json:"startTime"`
	EndTime   time.Time               `json:"endTime"`
	Duration  int                     `json:"duration"`
	State     model.AvailabilityState `json:"state"`
}

func summarize(exam *model.Exam, now time.Time) ExamSummary {
	return ExamSummary{
		ID:        exam.ID,
		CourseID:  exam.CourseID,
		ClassID:   exam.ClassID,
		Title:     exam.Title,
		StartTime: exam.StartTime,
		EndTime:   exam.EndTime(),
		Duration:  exam.Duration,
		State:     Classify(exam, now),
	}
}

// ListActiveForStudent returns only the exams of the student's class that are
// inside their window right now.
func (s *ExamService) ListActiveForStudent(ctx context.Context, caller model.Caller) ([]ExamSummary, error) {
	user, err := s.UserRepo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	out := []ExamSummary{}
	if user.ClassID == nil {
		return out, nil
	}
	exams, err := s.ExamRepo.ListByClass(ctx, *user.ClassID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	for i := range exams {
		if Classify(&exams[i], now) == model.ExamActive {
			out = append(out, summarize(&exams[i], now))
		}
	}
	return out, nil
}

func (s *ExamService) ListForTeacher(ctx context.Context, caller model.Caller) ([]ExamSummary, error) {
	exams, err := s.ExamRepo.ListByTeacher(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	out := make([]ExamSummary, 0, len(exams))
	for i := range exams {
		out = append(out, summarize(&exams[i], now))
	}
	return out, nil
}

// QuestionView is a question as shown to a caller; CorrectOption is blank for students.
type QuestionView struct {
	ID            uint    `json:"id"`
	Text          string  `json:"text"`
	OptionA       string  `json:"optionA"`
	OptionB       string  `json:"optionB"`
	OptionC       string  `json:"optionC"`
	OptionD       string  `json:"optionD"`
	Weight        float64 `json:"weight"`
	CorrectOption string  `json:"correctOption,omitempty"`
}

type ExamView struct {
	ExamSummary
	SessionID *uint          `json:"sessionId,omitempty"`
	Questions []QuestionView `json:"questions"`
}

// GetExamForCaller returns one exam with its questions. Students are denied
// with distinct errors for a pending exam, an ended exam and an exam they
// already submitted.
func (s *ExamService) GetExamForCaller(ctx context.Context, caller model.Caller, examID uint) (*ExamView, error) {
	exam, err := s.ExamRepo.FindByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	view := &ExamView{ExamSummary: summarize(exam, now)}
	withKey := true

	if caller.Role == model.Student {
		withKey = false
		if err := requireEnrolled(ctx, s.UserRepo, caller.ID, exam); err != nil {
			return nil, err
		}
		if err := CheckWindow(exam, now); err != nil {
			return nil, err
		}
		sess, err := s.SessionRepo.FindByStudentAndExam(ctx, caller.ID, examID)
		switch {
		case err == nil:
			if sess.Submitted() {
				return nil, util.ErrAlreadySubmitted
			}
			view.SessionID = &sess.ID
		case !errors.Is(err, util.ErrSessionNotFound):
			return nil, err
		}
	} else if caller.Role == model.Teacher {
		if err := requireExamOwner(caller, exam); err != nil {
			return nil, err
		}
	}

	questions, err := s.QuestionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	view.Questions = make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		qv := QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			OptionA: q.OptionA,
			OptionB: q.OptionB,
			OptionC: q.OptionC,
			OptionD: q.OptionD,
			Weight:  q.Weight,
		}
		if withKey {
			qv.CorrectOption = q.CorrectOption
		}
		view.Questions = append(view.Questions, qv)
	}
	return view, nil
}
