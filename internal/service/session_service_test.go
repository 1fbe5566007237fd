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

func TestOpenSession(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.activeExam(t, model.ExamKindMidterm)
	student := env.student(t)

	sess, created, err := env.sessions.Open(ctx, student, fx.exam.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, env.clock().Equal(sess.StartedAt))

	env.advance(5 * time.Minute)
	again, created, err := env.sessions.Open(ctx, student, fx.exam.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sess.ID, again.ID)
	assert.True(t, sess.StartedAt.Equal(again.StartedAt))

	env.advance(time.Hour)
	_, _, err = env.sessions.Open(ctx, student, fx.exam.ID)
	assert.ErrorIs(t, err, util.ErrExamEnded)
}

func TestSubmitExactlyOnce(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.activeExam(t, model.ExamKindMidterm)
	q := testutil.Question(t, env.db, fx.exam.ID, "A", 2)
	student := env.student(t)

	receipt, err := env.answerSvc.Upsert(ctx, AnswerInput{StudentID: student.ID, ExamID: fx.exam.ID, QuestionID: q.ID, SelectedOption: "A"})
	require.NoError(t, err)

	submitted, err := env.sessions.Submit(ctx, student, receipt.SessionID)
	require.NoError(t, err)
	require.NotNil(t, submitted.SubmittedAt)
	firstAt := *submitted.SubmittedAt
	assert.Equal(t, 2.0, submitted.Score)

	env.advance(time.Minute)
	_, err = env.sessions.Submit(ctx, student, receipt.SessionID)
	assert.ErrorIs(t, err, util.ErrAlreadySubmitted)

	stored, err := env.sessRepo.FindByID(ctx, receipt.SessionID)
	require.NoError(t, err)
	assert.True(t, firstAt.Equal(*stored.SubmittedAt))

	_, _, err = env.sessions.Open(ctx, student, fx.exam.ID)
	assert.ErrorIs(t, err, util.ErrAlreadySubmitted)
}

func TestSubmitForeignSessionForbidden(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.activeExam(t, model.ExamKindMidterm)
	owner, intruder := env.student(t), env.student(t)

	sess, _, err := env.sessions.Open(ctx, owner, fx.exam.ID)
	require.NoError(t, err)

	_, err = env.sessions.Submit(ctx, intruder, sess.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)
	_, err = env.sessions.Submit(ctx, owner, 9999)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSubmitAfterWindowStillScores(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.activeExam(t, model.ExamKindFinal)
	q := testutil.Question(t, env.db, fx.exam.ID, "D", 1)
	student := env.student(t)

	receipt, err := env.answerSvc.Upsert(ctx, AnswerInput{StudentID: student.ID, ExamID: fx.exam.ID, QuestionID: q.ID, SelectedOption: "D"})
	require.NoError(t, err)

	env.advance(2 * time.Hour)
	submitted, err := env.sessions.Submit(ctx, student, receipt.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, submitted.Score)

	res, err := env.results.FindByStudentAndCourse(ctx, student.ID, fx.course.ID)
	require.NoError(t, err)
	require.NotNil(t, res.FinalScore)
	assert.Equal(t, 1.0, *res.FinalScore)
}

func TestSubmitFoldsIntoResult(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	teacher := testutil.Staff(t, env.db, model.Teacher)
	course := testutil.Course(t, env.db, teacher.ID)
	start := env.clock().Add(-time.Minute)
	midterm := testutil.Exam(t, env.db, course, testClass, model.ExamKindMidterm, start, 60)
	final := testutil.Exam(t, env.db, course, testClass, model.ExamKindFinal, start, 60)
	student := env.student(t)

	for _, exam := range []*model.Exam{midterm, final} {
		var weight float64 = 40
		if exam == final {
			weight = 45
		}
		q := testutil.Question(t, env.db, exam.ID, "A", weight)
		receipt, err := env.answerSvc.Upsert(ctx, AnswerInput{StudentID: student.ID, ExamID: exam.ID, QuestionID: q.ID, SelectedOption: "A"})
		require.NoError(t, err)
		_, err = env.sessions.Submit(ctx, student, receipt.SessionID)
		require.NoError(t, err)
	}

	res, err := env.results.FindByStudentAndCourse(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, *res.MidtermScore)
	assert.Equal(t, 45.0, *res.FinalScore)
	assert.Nil(t, res.AssignmentScore)
	assert.Equal(t, 85.0, res.OverallScore)
	assert.Equal(t, "A", res.Grade)
	assert.False(t, res.VisibleToStudent)
}

func TestSubmitQuizHasNoResultSlot(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.activeExam(t, model.ExamKindQuiz)
	q := testutil.Question(t, env.db, fx.exam.ID, "B", 5)
	student := env.student(t)

	receipt, err := env.answerSvc.Upsert(ctx, AnswerInput{StudentID: student.ID, ExamID: fx.exam.ID, QuestionID: q.ID, SelectedOption: "B"})
	require.NoError(t, err)
	_, err = env.sessions.Submit(ctx, student, receipt.SessionID)
	require.NoError(t, err)

	res, err := env.results.FindByStudentAndCourse(ctx, student.ID, fx.course.ID)
	require.NoError(t, err)
	assert.Nil(t, res.MidtermScore)
	assert.Nil(t, res.FinalScore)
	assert.Equal(t, 5.0, res.OverallScore)
}

func TestGetScore(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.activeExam(t, model.ExamKindMidterm)
	q1 := testutil.Question(t, env.db, fx.exam.ID, "A", 1)
	q2 := testutil.Question(t, env.db, fx.exam.ID, "B", 1)
	student := env.student(t)

	_, err := env.answerSvc.Upsert(ctx, AnswerInput{StudentID: student.ID, ExamID: fx.exam.ID, QuestionID: q1.ID, SelectedOption: "A"})
	require.NoError(t, err)
	receipt, err := env.answerSvc.Upsert(ctx, AnswerInput{StudentID: student.ID, ExamID: fx.exam.ID, QuestionID: q2.ID, SelectedOption: "C"})
	require.NoError(t, err)

	_, err = env.sessions.GetScore(ctx, student, receipt.SessionID)
	assert.ErrorIs(t, err, util.ErrSessionNotSubmitted)

	view, err := env.sessions.GetScore(ctx, teacherCaller(fx.teacher), receipt.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, view.Score)
	assert.Equal(t, 2.0, view.MaxScore)
	assert.Nil(t, view.SubmittedAt)

	stranger := testutil.Staff(t, env.db, model.Teacher)
	_, err = env.sessions.GetScore(ctx, teacherCaller(stranger), receipt.SessionID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = env.sessions.Submit(ctx, student, receipt.SessionID)
	require.NoError(t, err)
	view, err = env.sessions.GetScore(ctx, student, receipt.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, view.Score)
	assert.EqualValues(t, 2, view.Answered)
	assert.NotNil(t, view.SubmittedAt)

	other := env.student(t)
	_, err = env.sessions.GetScore(ctx, other, receipt.SessionID)
	assert.ErrorIs(t, err, util.ErrForbidden)
}

func TestSubmitSurvivesFoldFailureAndGetScoreRefolds(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.activeExam(t, model.ExamKindMidterm)
	q := testutil.Question(t, env.db, fx.exam.ID, "A", 2)
	student := env.student(t)

	receipt, err := env.answerSvc.Upsert(ctx, AnswerInput{StudentID: student.ID, ExamID: fx.exam.ID, QuestionID: q.ID, SelectedOption: "A"})
	require.NoError(t, err)

	env.scoring.Results = failingFolder{next: env.resultSvc, failFor: map[uint]bool{student.ID: true}}
	submitted, err := env.sessions.Submit(ctx, student, receipt.SessionID)
	require.NoError(t, err)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, 2.0, submitted.Score)

	_, err = env.results.FindByStudentAndCourse(ctx, student.ID, fx.course.ID)
	assert.ErrorIs(t, err, util.ErrResultNotFound)
	_, err = env.sessions.Submit(ctx, student, receipt.SessionID)
	assert.ErrorIs(t, err, util.ErrAlreadySubmitted)

	env.scoring.Results = env.resultSvc
	for i := 0; i < 2; i++ {
		view, err := env.sessions.GetScore(ctx, student, receipt.SessionID)
		require.NoError(t, err)
		assert.Equal(t, 2.0, view.Score)

		res, err := env.results.FindByStudentAndCourse(ctx, student.ID, fx.course.ID)
		require.NoError(t, err)
		require.NotNil(t, res.MidtermScore)
		assert.Equal(t, 2.0, *res.MidtermScore)
		assert.Equal(t, 2.0, res.OverallScore)
	}
}

func TestGetScoreDoesNotFoldOpenSession(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	fx := env.activeExam(t, model.ExamKindMidterm)
	q := testutil.Question(t, env.db, fx.exam.ID, "A", 1)
	student := env.student(t)

	receipt, err := env.answerSvc.Upsert(ctx, AnswerInput{StudentID: student.ID, ExamID: fx.exam.ID, QuestionID: q.ID, SelectedOption: "A"})
	require.NoError(t, err)
	_, err = env.sessions.GetScore(ctx, teacherCaller(fx.teacher), receipt.SessionID)
	require.NoError(t, err)

	_, err = env.results.FindByStudentAndCourse(ctx, student.ID, fx.course.ID)
	assert.ErrorIs(t, err, util.ErrResultNotFound)
}
