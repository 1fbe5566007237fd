package model

import "time"

// swagger:model Result
type Result struct {
	BaseModel

	StudentID        uint       `gorm:"uniqueIndex:idx_results_student_course;not null" json:"studentId"`
	CourseID         uint       `gorm:"uniqueIndex:idx_results_student_course;index;not null" json:"courseId"`
	MidtermScore     *float64   `json:"midtermScore"`
	FinalScore       *float64   `json:"finalScore"`
	AssignmentScore  *float64   `json:"assignmentScore"`
	OverallScore     float64    `gorm:"default:0" json:"overallScore"`
	Grade            string     `gorm:"size:2" json:"grade"`
	VisibleToStudent bool       `gorm:"default:false" json:"visibleToStudent"`
	RevealedBy       *uint      `json:"revealedBy,omitempty"`
	RevealedAt       *time.Time `json:"revealedAt,omitempty"`
}

func (Result) TableName() string {
	return "results"
}

// ComponentTotal sums the non-null component scores.
func (r *Result) ComponentTotal() float64 {
	total := 0.0
	for _, s := range []*float64{r.MidtermScore, r.FinalScore, r.AssignmentScore} {
		if s != nil {
			total += *s
		}
	}
	return total
}

type gradeBand struct {
	min   float64
	grade string
}

// evaluated highest-first, first match wins
var gradeTable = []gradeBand{
	{90, "A+"},
	{85, "A"},
	{80, "A-"},
	{75, "B+"},
	{70, "B"},
	{65, "B-"},
	{60, "C+"},
	{50, "C"},
	{45, "C-"},
	{40, "D"},
}

func GradeFor(overall float64) string {
	for _, b := range gradeTable {
		if overall >= b.min {
			return b.grade
		}
	}
	return "F"
}
