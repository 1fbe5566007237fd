package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/testutil"
	"academic_backend/internal/util"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExamForStudent(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.activeExam(t, model.ExamKindMidterm)
	testutil.Question(t, env.db, fx.exam.ID, "C", 1)
	testutil.Question(t, env.db, fx.exam.ID, "A", 2)
	student := env.student(t)

	view, err := env.examSvc.GetExamForCaller(ctx, student, fx.exam.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ExamActive, view.State)
	assert.Nil(t, view.SessionID)
	require.Len(t, view.Questions, 2)
	for _, q := range view.Questions {
		assert.Empty(t, q.CorrectOption)
	}

	sess, _, err := env.sessions.Open(ctx, student, fx.exam.ID)
	require.NoError(t, err)
	view, err = env.examSvc.GetExamForCaller(ctx, student, fx.exam.ID)
	require.NoError(t, err)
	require.NotNil(t, view.SessionID)
	assert.Equal(t, sess.ID, *view.SessionID)

	_, err = env.sessions.Submit(ctx, student, sess.ID)
	require.NoError(t, err)
	_, err = env.examSvc.GetExamForCaller(ctx, student, fx.exam.ID)
	assert.ErrorIs(t, err, util.ErrAlreadySubmitted)
}

func TestGetExamDistinctDenials(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	pending := env.seed(t, model.ExamKindMidterm, 30*time.Minute, 60)
	ended := env.seed(t, model.ExamKindFinal, -2*time.Hour, 60)
	student := env.student(t)
	outsider := model.Caller{ID: testutil.Student(t, env.db, testClass+5).ID, Role: model.Student}

	_, err := env.examSvc.GetExamForCaller(ctx, student, pending.exam.ID)
	assert.ErrorIs(t, err, util.ErrExamNotYetAvailable)
	_, err = env.examSvc.GetExamForCaller(ctx, student, ended.exam.ID)
	assert.ErrorIs(t, err, util.ErrExamEnded)
	_, err = env.examSvc.GetExamForCaller(ctx, outsider, pending.exam.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)
	_, err = env.examSvc.GetExamForCaller(ctx, student, 9999)
	assert.ErrorIs(t, err, util.ErrExamNotFound)
}

func TestGetExamForTeacher(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.seed(t, model.ExamKindMidterm, time.Hour, 60)
	testutil.Question(t, env.db, fx.exam.ID, "C", 1)

	view, err := env.examSvc.GetExamForCaller(ctx, teacherCaller(fx.teacher), fx.exam.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ExamPending, view.State)
	require.Len(t, view.Questions, 1)
	assert.Equal(t, "C", view.Questions[0].CorrectOption)

	stranger := testutil.Staff(t, env.db, model.Teacher)
	_, err = env.examSvc.GetExamForCaller(ctx, teacherCaller(stranger), fx.exam.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)
}

func TestListActiveForStudent(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	active := env.activeExam(t, model.ExamKindMidterm)
	env.seed(t, model.ExamKindFinal, time.Hour, 60)
	env.seed(t, model.ExamKindQuiz, -3*time.Hour, 30)
	other := env.seed(t, model.ExamKindQuiz, -time.Minute, 30)
	require.NoError(t, env.db.Model(other.exam).Update("class_id", testClass+1).Error)
	student := env.student(t)

	exams, err := env.examSvc.ListActiveForStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, active.exam.ID, exams[0].ID)
	assert.Equal(t, active.exam.EndTime().Unix(), exams[0].EndTime.Unix())

	env.advance(90 * time.Minute)
	exams, err = env.examSvc.ListActiveForStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, model.ExamKindFinal, exams[0].Title)
}

func TestCreateExam(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	teacher := testutil.Staff(t, env.db, model.Teacher)
	course := testutil.Course(t, env.db, teacher.ID)
	start := env.clock().Add(time.Hour)

	exam, err := env.examSvc.CreateExam(ctx, teacherCaller(teacher), CreateExamInput{
		CourseID: course.ID, ClassID: testClass, Title: "Midterm", StartTime: start, Duration: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ExamKindMidterm, exam.Title)
	assert.Equal(t, teacher.ID, exam.TeacherID)

	admin := model.Caller{ID: 777, Role: model.Admin}
	exam, err = env.examSvc.CreateExam(ctx, admin, CreateExamInput{
		CourseID: course.ID, ClassID: testClass, Title: model.ExamKindFinal, StartTime: start, Duration: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, exam.TeacherID)

	listed, err := env.examSvc.ListForTeacher(ctx, teacherCaller(teacher))
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	tests := []struct {
		name   string
		caller model.Caller
		in     CreateExamInput
		want   error
	}{
		{"bad kind", teacherCaller(teacher), CreateExamInput{CourseID: course.ID, ClassID: testClass, Title: "essay", StartTime: start, Duration: 30}, util.ErrInvalidExamKind},
		{"not owner", model.Caller{ID: teacher.ID + 100, Role: model.Teacher}, CreateExamInput{CourseID: course.ID, ClassID: testClass, Title: model.ExamKindQuiz, StartTime: start, Duration: 30}, util.ErrForbidden},
		{"unknown course", teacherCaller(teacher), CreateExamInput{CourseID: 9999, ClassID: testClass, Title: model.ExamKindQuiz, StartTime: start, Duration: 30}, util.ErrCourseNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.examSvc.CreateExam(ctx, tt.caller, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = env.examSvc.CreateExam(ctx, teacherCaller(teacher), CreateExamInput{CourseID: course.ID, ClassID: testClass, Title: model.ExamKindQuiz, StartTime: start})
	assert.Equal(t, util.KindInvalidInput, util.KindOf(err))
}
