package model

import "time"

// swagger:model ExamSession
type ExamSession struct {
	BaseModel

	StudentID   uint       `gorm:"uniqueIndex:idx_exam_sessions_student_exam;not null" json:"studentId"`
	ExamID      uint       `gorm:"uniqueIndex:idx_exam_sessions_student_exam;index;not null" json:"examId"`
	StartedAt   time.Time  `json:"startedAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	Score       float64    `gorm:"default:0" json:"score"`
	MaxScore    float64    `gorm:"default:0" json:"maxScore"`
}

func (ExamSession) TableName() string {
	return "exam_sessions"
}

func (s *ExamSession) Submitted() bool {
	return s.SubmittedAt != nil
}
