package model

// Course is owned by the course directory; this service only looks courses up.
//
// swagger:model Course
type Course struct {
	BaseModel
	Name         string `gorm:"size:255;not null" json:"name"`
	Code         string `gorm:"size:50;uniqueIndex" json:"code"`
	DepartmentID uint   `gorm:"index" json:"departmentId"`
	TeacherID    uint   `gorm:"index" json:"teacherId"`
}

func (Course) TableName() string {
	return "courses"
}
