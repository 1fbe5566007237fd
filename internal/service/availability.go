package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"time"
)

// Classify places now relative to the exam window [start, start+duration).
func Classify(exam *model.Exam, now time.Time) model.AvailabilityState {
	if now.Before(exam.StartTime) {
		return model.ExamPending
	}
	if now.Before(exam.EndTime()) {
		return model.ExamActive
	}
	return model.ExamEnded
}

// CheckWindow returns nil for an active exam, a *util.PendingError before the
// window opens and util.ErrExamEnded once it has closed.
func CheckWindow(exam *model.Exam, now time.Time) error {
	switch Classify(exam, now) {
	case model.ExamPending:
		return &util.PendingError{StartsAt: exam.StartTime}
	case model.ExamEnded:
		return util.ErrExamEnded
	}
	return nil
}
