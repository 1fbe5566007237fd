package service

import (
	"academic_backend/internal/config"
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/internal/testutil"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
)

const testClass uint = 1

// testEnv wires the services against one SQLite database and a settable clock.
type testEnv struct {
	db *gorm.DB

	mu  sync.RWMutex
	now time.Time

	users     *repository.UserRepository
	courses   *repository.CourseRepository
	examRepo  *repository.ExamRepository
	questions *repository.QuestionRepository
	sessRepo  *repository.SessionRepository
	answers   *repository.AnswerRepository
	results   *repository.ResultRepository

	resultSvc   *ResultService
	scoring     *ScoringService
	sessions    *SessionService
	answerSvc   *AnswerService
	examSvc     *ExamService
	questionSvc *QuestionService
	identity    *IdentityService
	published   *recordingPublisher
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []AnswerKeyChanged
}

func (p *recordingPublisher) Publish(evt AnswerKeyChanged) {
	p.mu.Lock()
	p.events = append(p.events, evt)
	p.mu.Unlock()
}

func (p *recordingPublisher) all() []AnswerKeyChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]AnswerKeyChanged(nil), p.events...)
}

// failingFolder passes folds through to next except for the listed students.
type failingFolder struct {
	next    ResultFolder
	failFor map[uint]bool
}

var errResultStoreDown = errors.New("result store unavailable")

func (f failingFolder) FoldScore(ctx context.Context, studentID, courseID uint, kind model.ExamKind, score float64) (*model.Result, error) {
	if f.failFor[studentID] {
		return nil, errResultStoreDown
	}
	return f.next.FoldScore(ctx, studentID, courseID, kind, score)
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.OpenDB(t)
	env := &testEnv{
		db:        db,
		now:       time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
		users:     repository.NewUserRepository(db),
		courses:   repository.NewCourseRepository(db),
		examRepo:  repository.NewExamRepository(db),
		questions: repository.NewQuestionRepository(db),
		sessRepo:  repository.NewSessionRepository(db),
		answers:   repository.NewAnswerRepository(db),
		results:   repository.NewResultRepository(db),
		published: &recordingPublisher{},
	}
	clock := env.clock

	env.resultSvc = NewResultService(env.results, env.courses)
	env.resultSvc.Now = clock
	env.scoring = NewScoringService(env.sessRepo, env.answers, env.questions, env.examRepo, env.resultSvc, 4)
	env.sessions = NewSessionService(env.sessRepo, env.answers, env.examRepo, env.users, env.scoring)
	env.sessions.Now = clock
	env.answerSvc = NewAnswerService(env.sessions, env.questions, env.answers)
	env.examSvc = NewExamService(env.examRepo, env.questions, env.sessRepo, env.courses, env.users)
	env.examSvc.Now = clock
	env.questionSvc = NewQuestionService(env.questions, env.examRepo, env.published)
	env.questionSvc.Now = clock
	env.identity = NewIdentityService(env.users, &config.Config{
		JWT: config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", ExpireTime: time.Hour},
	})
	env.identity.Now = clock
	return env
}

func (e *testEnv) clock() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	e.now = e.now.Add(d)
	e.mu.Unlock()
}

// fixture is one course taught by teacher, with an exam for testClass.
type fixture struct {
	teacher *model.User
	course  *model.Course
	exam    *model.Exam
}

func (e *testEnv) seed(t *testing.T, kind model.ExamKind, startOffset time.Duration, minutes int) fixture {
	t.Helper()
	teacher := testutil.Staff(t, e.db, model.Teacher)
	course := testutil.Course(t, e.db, teacher.ID)
	exam := testutil.Exam(t, e.db, course, testClass, kind, e.clock().Add(startOffset), minutes)
	return fixture{teacher: teacher, course: course, exam: exam}
}

// activeExam seeds an exam that opened ten minutes ago and runs for an hour.
func (e *testEnv) activeExam(t *testing.T, kind model.ExamKind) fixture {
	return e.seed(t, kind, -10*time.Minute, 60)
}

func (e *testEnv) student(t *testing.T) model.Caller {
	t.Helper()
	u := testutil.Student(t, e.db, testClass)
	return model.Caller{ID: u.ID, Role: model.Student}
}

func teacherCaller(u *model.User) model.Caller {
	return model.Caller{ID: u.ID, Role: model.Teacher}
}
