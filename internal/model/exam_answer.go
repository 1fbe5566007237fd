package model

// ExamAnswer holds one selected option per (session, question).
//
// swagger:model ExamAnswer
type ExamAnswer struct {
	BaseModel

	SessionID      uint   `gorm:"uniqueIndex:idx_exam_answers_session_question;not null" json:"sessionId"`
	QuestionID     uint   `gorm:"uniqueIndex:idx_exam_answers_session_question;index;not null" json:"questionId"`
	SelectedOption string `gorm:"size:1;not null" json:"selectedOption"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}
