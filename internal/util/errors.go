package util

import (
	"errors"
	"time"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindNotYetAvailable
	KindExpired
	KindConflict
	KindInvalidInput
	KindRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindNotYetAvailable:
		return "not_yet_available"
	case KindExpired:
		return "expired"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindRateLimited:
		return "rate_limited"
	}
	return "internal"
}

// AppError is a recoverable, caller-visible failure. Reason is stable and machine readable.
type AppError struct {
	Kind    ErrorKind
	Reason  string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func newError(kind ErrorKind, reason, message string) *AppError {
	return &AppError{Kind: kind, Reason: reason, Message: message}
}

var (
	ErrExamNotFound     = newError(KindNotFound, "EXAM_NOT_FOUND", "exam not found")
	ErrQuestionNotFound = newError(KindNotFound, "QUESTION_NOT_FOUND", "question not found")
	ErrSessionNotFound  = newError(KindNotFound, "SESSION_NOT_FOUND", "exam session not found")
	ErrResultNotFound   = newError(KindNotFound, "RESULT_NOT_FOUND", "result not found")
	ErrUserNotFound     = newError(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrCourseNotFound   = newError(KindNotFound, "COURSE_NOT_FOUND", "course not found")

	ErrForbidden           = newError(KindForbidden, "FORBIDDEN", "permission denied")
	ErrSessionNotSubmitted = newError(KindForbidden, "SESSION_NOT_SUBMITTED", "score is available after submission")
	ErrInvalidCredentials  = newError(KindForbidden, "INVALID_CREDENTIALS", "invalid email or password")

	ErrExamNotYetAvailable = newError(KindNotYetAvailable, "EXAM_NOT_YET_AVAILABLE", "exam not yet available")

	ErrExamEnded        = newError(KindExpired, "EXAM_ENDED", "exam has ended")
	ErrAlreadySubmitted = newError(KindExpired, "ALREADY_SUBMITTED", "exam session already submitted")
	ErrSessionClosed    = newError(KindExpired, "SESSION_CLOSED", "exam session is closed for answers")

	ErrDuplicateSession = newError(KindConflict, "DUPLICATE_SESSION", "exam session could not be resolved uniquely")
	ErrDuplicateResult  = newError(KindConflict, "DUPLICATE_RESULT", "result could not be resolved uniquely")
	ErrDuplicateContact = newError(KindConflict, "DUPLICATE_CONTACT", "email or phone already registered")

	ErrInvalidOption     = newError(KindInvalidInput, "INVALID_OPTION", "selected option must be one of A, B, C, D")
	ErrInvalidInput      = newError(KindInvalidInput, "INVALID_INPUT", "invalid input")
	ErrQuestionNotInExam = newError(KindInvalidInput, "QUESTION_NOT_IN_EXAM", "question does not belong to exam")
	ErrInvalidExamKind   = newError(KindInvalidInput, "INVALID_EXAM_KIND", "exam title must be one of midterm, final, quiz")
	ErrInvalidWeight     = newError(KindInvalidInput, "INVALID_WEIGHT", "question weight must not be negative")

	ErrRateLimited = newError(KindRateLimited, "RATE_LIMITED", "too many requests, slow down")
)

// PendingError reports a pending exam together with the instant it opens.
// It unwraps to ErrExamNotYetAvailable.
type PendingError struct {
	StartsAt time.Time
}

func (e *PendingError) Error() string {
	return ErrExamNotYetAvailable.Message
}

func (e *PendingError) Unwrap() error {
	return ErrExamNotYetAvailable
}

// InvalidInput builds an InvalidInput error with a custom message.
func InvalidInput(message string) *AppError {
	return newError(KindInvalidInput, ErrInvalidInput.Reason, message)
}

// KindOf classifies err; anything outside the taxonomy is internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ReasonOf returns the stable reason code of err, or INTERNAL.
func ReasonOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return "INTERNAL"
}
