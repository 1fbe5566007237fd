package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/internal/util"
	"context"
	"errors"
)

// requireEnrolled checks that the student sits in the class the exam is set for.
func requireEnrolled(ctx context.Context, users *repository.UserRepository, studentID uint, exam *model.Exam) error {
	user, err := users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return util.ErrForbidden
		}
		return err
	}
	if user.Disabled || user.ClassID == nil || *user.ClassID != exam.ClassID {
		return util.ErrForbidden
	}
	return nil
}

// requireExamOwner lets the exam's teacher and admins through.
func requireExamOwner(caller model.Caller, exam *model.Exam) error {
	if caller.Role == model.Admin || exam.TeacherID == caller.ID {
		return nil
	}
	return util.ErrForbidden
}

// requireCourseStaff resolves the course and checks the caller may act on it.
// Teachers must teach the course; department heads may only read.
func requireCourseStaff(ctx context.Context, courses *repository.CourseRepository, caller model.Caller, courseID uint, write bool) (*model.Course, error) {
	course, err := courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case model.Admin:
		return course, nil
	case model.Teacher:
		if course.TeacherID == caller.ID {
			return course, nil
		}
	case model.DepartmentHead:
		if !write {
			return course, nil
		}
	}
	return nil, util.ErrForbidden
}
