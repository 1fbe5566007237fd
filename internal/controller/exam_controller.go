package controller

import (
	"academic_backend/internal/model"
	"academic_backend/internal/service"
	"academic_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	Exams *service.ExamService
}

func NewExamController(exams *service.ExamService) *ExamController {
	return &ExamController{Exams: exams}
}

// ListActive godoc
// @Summary Active exams
// @Description Exams of the caller's class that are inside their window right now
// @Tags exams
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.ExamSummary}
// @Router /exams/active [get]
func (c *ExamController) ListActive(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	exams, err := c.Exams.ListActiveForStudent(ctx.Request.Context(), caller)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}

// GetExam godoc
// @Summary Exam detail
// @Description Students get 425 with Retry-After while pending, 410 once ended or submitted
// @Tags exams
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} util.Response{data=service.ExamView}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 410 {object} util.Response "EXAM_ENDED or ALREADY_SUBMITTED"
// @Failure 425 {object} util.Response "EXAM_NOT_YET_AVAILABLE"
// @Router /exams/{id} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.Exams.GetExamForCaller(ctx.Request.Context(), caller, id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// swagger:model CreateExamRequest
type CreateExamRequest struct {
	CourseID  uint      `json:"courseId" binding:"required"`
	ClassID   uint      `json:"classId" binding:"required"`
	Title     string    `json:"title" binding:"required,examkind"`
	StartTime time.Time `json:"startTime" binding:"required"`
	Duration  int       `json:"duration" binding:"required,min=1"`
}

// CreateExam godoc
// @Summary Schedule an exam
// @Tags teacher
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateExamRequest true "Exam"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /teacher/exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	var req CreateExamRequest
	if !bindJSON(ctx, &req) {
		return
	}
	exam, err := c.Exams.CreateExam(ctx.Request.Context(), caller, service.CreateExamInput{
		CourseID:  req.CourseID,
		ClassID:   req.ClassID,
		Title:     model.ExamKind(req.Title),
		StartTime: req.StartTime,
		Duration:  req.Duration,
	})
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, exam)
}

// ListTeacherExams godoc
// @Summary Exams set by the caller
// @Tags teacher
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.ExamSummary}
// @Router /teacher/exams [get]
func (c *ExamController) ListTeacherExams(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	exams, err := c.Exams.ListForTeacher(ctx.Request.Context(), caller)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}
