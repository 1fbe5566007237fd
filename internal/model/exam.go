package model

import "time"

type ExamKind string

const (
	ExamKindMidterm ExamKind = "midterm"
	ExamKindFinal   ExamKind = "final"
	ExamKindQuiz    ExamKind = "quiz"
)

func (k ExamKind) Valid() bool {
	switch k {
	case ExamKindMidterm, ExamKindFinal, ExamKindQuiz:
		return true
	}
	return false
}

type AvailabilityState string

const (
	ExamPending AvailabilityState = "pending"
	ExamActive  AvailabilityState = "active"
	ExamEnded   AvailabilityState = "ended"
)

// swagger:model Exam
type Exam struct {
	BaseModel

	CourseID  uint      `gorm:"index;not null" json:"courseId"`
	TeacherID uint      `gorm:"index;not null" json:"teacherId"`
	ClassID   uint      `gorm:"index;not null" json:"classId"`
	Title     ExamKind  `gorm:"size:20;not null" json:"title"`
	StartTime time.Time `gorm:"index;not null" json:"startTime"`
	Duration  int       `gorm:"not null" json:"duration"` // minutes
}

func (Exam) TableName() string {
	return "exams"
}

func (e *Exam) EndTime() time.Time {
	return e.StartTime.Add(time.Duration(e.Duration) * time.Minute)
}
