package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/internal/util"
	"academic_backend/pkg/logger"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type ExportService struct {
	Results  *ResultService
	UserRepo *repository.UserRepository
	Storage  *StorageService
	Now      func() time.Time
}

func NewExportService(results *ResultService, userRepo *repository.UserRepository, storage *StorageService) *ExportService {
	return &ExportService{
		Results:  results,
		UserRepo: userRepo,
		Storage:  storage,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

type ResultSheetRow struct {
	StudentID        uint     `json:"studentId"`
	StudentName      string   `json:"studentName"`
	Email            string   `json:"email"`
	MidtermScore     *float64 `json:"midtermScore"`
	FinalScore       *float64 `json:"finalScore"`
	AssignmentScore  *float64 `json:"assignmentScore"`
	OverallScore     float64  `json:"overallScore"`
	Grade            string   `json:"grade"`
	VisibleToStudent bool     `json:"visibleToStudent"`
}

type ResultSheet struct {
	CourseID    uint             `json:"courseId"`
	CourseCode  string           `json:"courseCode"`
	CourseName  string           `json:"courseName"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Rows        []ResultSheetRow `json:"rows"`
}

type ExportReceipt struct {
	Object string `json:"object"`
	URL    string `json:"url"`
	Rows   int    `json:"rows"`
}

// BuildResultSheet assembles every result of the course, hidden ones included.
func (s *ExportService) BuildResultSheet(ctx context.Context, caller model.Caller, courseID uint) (*ResultSheet, error) {
	course, results, err := s.Results.ListByCourse(ctx, caller, courseID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.StudentID)
	}
	students, err := s.UserRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	sheet := &ResultSheet{
		CourseID:    course.ID,
		CourseCode:  course.Code,
		CourseName:  course.Name,
		GeneratedAt: s.Now(),
		Rows:        make([]ResultSheetRow, 0, len(results)),
	}
	for _, r := range results {
		st := students[r.StudentID]
		sheet.Rows = append(sheet.Rows, ResultSheetRow{
			StudentID:        r.StudentID,
			StudentName:      st.Name,
			Email:            st.Email,
			MidtermScore:     r.MidtermScore,
			FinalScore:       r.FinalScore,
			AssignmentScore:  r.AssignmentScore,
			OverallScore:     r.OverallScore,
			Grade:            r.Grade,
			VisibleToStudent: r.VisibleToStudent,
		})
	}
	return sheet, nil
}

// ExportCourseResults renders the course sheet as JSON and stores it.
func (s *ExportService) ExportCourseResults(ctx context.Context, caller model.Caller, courseID uint) (*ExportReceipt, error) {
	sheet, err := s.BuildResultSheet(ctx, caller, courseID)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(sheet, "", "  ")
	if err != nil {
		return nil, err
	}

	object := fmt.Sprintf("exports/results/course-%d-%s-%s.json",
		courseID, sheet.GeneratedAt.Format(util.DateStamp), model.GenerateUUID())
	url, err := s.Storage.Upload(ctx, object, bytes.NewReader(body), int64(len(body)), util.MimeJSON)
	if err != nil {
		return nil, fmt.Errorf("store result sheet: %w", err)
	}
	logger.Log.Info("Result sheet exported",
		zap.Uint("courseId", courseID),
		zap.Int("rows", len(sheet.Rows)),
		zap.String("object", object))
	return &ExportReceipt{Object: object, URL: url, Rows: len(sheet.Rows)}, nil
}
