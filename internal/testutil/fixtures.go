package testutil

import (
	"academic_backend/internal/model"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"
)

var seq uint64

func next() uint64 {
	return atomic.AddUint64(&seq, 1)
}

// Student inserts a student enrolled in classID.
func Student(t *testing.T, db *gorm.DB, classID uint) *model.User {
	t.Helper()
	n := next()
	u := &model.User{
		Name:     fmt.Sprintf("student-%d", n),
		Email:    fmt.Sprintf("student-%d@example.com", n),
		Password: "x",
		Role:     model.Student,
		ClassID:  &classID,
	}
	mustCreate(t, db, u)
	return u
}

func Staff(t *testing.T, db *gorm.DB, role model.UserRole) *model.User {
	t.Helper()
	n := next()
	u := &model.User{
		Name:     fmt.Sprintf("%s-%d", role, n),
		Email:    fmt.Sprintf("%s-%d@example.com", role, n),
		Password: "x",
		Role:     role,
	}
	mustCreate(t, db, u)
	return u
}

func Course(t *testing.T, db *gorm.DB, teacherID uint) *model.Course {
	t.Helper()
	n := next()
	c := &model.Course{
		Name:      fmt.Sprintf("Course %d", n),
		Code:      fmt.Sprintf("C%03d", n),
		TeacherID: teacherID,
	}
	mustCreate(t, db, c)
	return c
}

// Exam inserts an exam of the course for classID starting at start.
func Exam(t *testing.T, db *gorm.DB, course *model.Course, classID uint, kind model.ExamKind, start time.Time, minutes int) *model.Exam {
	t.Helper()
	e := &model.Exam{
		CourseID:  course.ID,
		TeacherID: course.TeacherID,
		ClassID:   classID,
		Title:     kind,
		StartTime: start,
		Duration:  minutes,
	}
	mustCreate(t, db, e)
	return e
}

func Question(t *testing.T, db *gorm.DB, examID uint, correct string, weight float64) *model.Question {
	t.Helper()
	q := &model.Question{
		ExamID:        examID,
		Text:          fmt.Sprintf("question %d", next()),
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectOption: correct,
		Weight:        weight,
	}
	mustCreate(t, db, q)
	return q
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}
