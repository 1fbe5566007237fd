package model

import "time"

type UserRole string

const (
	Student        UserRole = "student"
	Teacher        UserRole = "teacher"
	DepartmentHead UserRole = "department-head"
	Admin          UserRole = "admin"
)

// ParseRole maps a caller-asserted role string onto the closed role set.
func ParseRole(s string) (UserRole, bool) {
	switch UserRole(s) {
	case Student, Teacher, DepartmentHead, Admin:
		return UserRole(s), true
	}
	return "", false
}

// swagger:model User
type User struct {
	BaseModel
	Name      string     `gorm:"size:100;not null" json:"name"`
	Email     string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone     *string    `gorm:"size:32;uniqueIndex" json:"phone,omitempty"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Role      UserRole   `gorm:"size:20;default:'student'" json:"role"`
	ClassID   *uint      `gorm:"index" json:"classId,omitempty"`
	Disabled  bool       `gorm:"default:false" json:"disabled"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Caller is the identity and role resolved once at the request boundary.
type Caller struct {
	ID   uint
	Role UserRole
}

func (c Caller) Can(p Permission) bool {
	return c.Role.Can(p)
}

// IsStaff reports whether the caller acts on behalf of the institution rather than as a student.
func (c Caller) IsStaff() bool {
	return c.Role == Teacher || c.Role == DepartmentHead || c.Role == Admin
}
