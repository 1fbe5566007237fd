package model

const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// ValidOption reports whether o names one of the four option slots.
func ValidOption(o string) bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// swagger:model Question
type Question struct {
	BaseModel

	ExamID        uint    `gorm:"index;not null" json:"examId"`
	Text          string  `gorm:"type:text;not null" json:"text"`
	OptionA       string  `gorm:"size:500" json:"optionA"`
	OptionB       string  `gorm:"size:500" json:"optionB"`
	OptionC       string  `gorm:"size:500" json:"optionC"`
	OptionD       string  `gorm:"size:500" json:"optionD"`
	CorrectOption string  `gorm:"size:1;not null" json:"correctOption"`
	Weight        float64 `gorm:"default:1" json:"weight"`
}

func (Question) TableName() string {
	return "questions"
}
