package controller

import (
	"academic_backend/internal/service"
	"academic_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Sessions *service.SessionService
	Answers  *service.AnswerService
}

func NewSessionController(sessions *service.SessionService, answers *service.AnswerService) *SessionController {
	return &SessionController{Sessions: sessions, Answers: answers}
}

// OpenSession godoc
// @Summary Open (or resume) the caller's exam session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} util.Response{data=model.ExamSession} "Existing session"
// @Success 201 {object} util.Response{data=model.ExamSession} "Session started"
// @Failure 410 {object} util.Response
// @Failure 425 {object} util.Response
// @Router /exams/{id}/session [post]
func (c *SessionController) OpenSession(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	examID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	sess, created, err := c.Sessions.Open(ctx.Request.Context(), caller, examID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	if created {
		util.Created(ctx, sess)
		return
	}
	util.Success(ctx, sess)
}

// swagger:model AnswerRequest
type AnswerRequest struct {
	QuestionID     uint   `json:"questionId" binding:"required"`
	SelectedOption string `json:"selectedOption" binding:"required,option"`
}

// SubmitAnswer godoc
// @Summary Record an answer
// @Description Upserts the selected option; the first answer starts the session
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Exam ID"
// @Param body body AnswerRequest true "Answer"
// @Success 200 {object} util.Response{data=service.AnswerReceipt}
// @Failure 400 {object} util.Response "INVALID_OPTION or QUESTION_NOT_IN_EXAM"
// @Failure 410 {object} util.Response "EXAM_ENDED or SESSION_CLOSED"
// @Failure 425 {object} util.Response
// @Router /exams/{id}/answers [post]
func (c *SessionController) SubmitAnswer(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	examID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req AnswerRequest
	if !bindJSON(ctx, &req) {
		return
	}
	receipt, err := c.Answers.Upsert(ctx.Request.Context(), service.AnswerInput{
		StudentID:      caller.ID,
		ExamID:         examID,
		QuestionID:     req.QuestionID,
		SelectedOption: req.SelectedOption,
		Channel:        util.ChannelSync,
	})
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, receipt)
}

// Submit godoc
// @Summary Submit a session
// @Description Closes the session for answers, scores it and folds the score into the course result
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response{data=model.ExamSession}
// @Failure 403 {object} util.Response
// @Failure 410 {object} util.Response "ALREADY_SUBMITTED"
// @Router /sessions/{id}/submit [post]
func (c *SessionController) Submit(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	sess, err := c.Sessions.Submit(ctx.Request.Context(), caller, id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, util.Response{Code: http.StatusOK, Message: "submitted", Data: sess})
}

// GetScore godoc
// @Summary Session score
// @Description Rescores a submitted session over the answered questions
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response{data=service.ScoreView}
// @Failure 403 {object} util.Response "SESSION_NOT_SUBMITTED"
// @Router /sessions/{id}/score [get]
func (c *SessionController) GetScore(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.Sessions.GetScore(ctx.Request.Context(), caller, id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
