package controller

import (
	"academic_backend/internal/service"
	"academic_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	Questions *service.QuestionService
}

func NewQuestionController(questions *service.QuestionService) *QuestionController {
	return &QuestionController{Questions: questions}
}

// swagger:model CreateQuestionRequest
type CreateQuestionRequest struct {
	Text          string   `json:"text" binding:"required"`
	OptionA       string   `json:"optionA" binding:"required"`
	OptionB       string   `json:"optionB" binding:"required"`
	OptionC       string   `json:"optionC" binding:"required"`
	OptionD       string   `json:"optionD" binding:"required"`
	CorrectOption string   `json:"correctOption" binding:"required,option"`
	Weight        *float64 `json:"weight" binding:"omitempty,min=0"`
}

// swagger:model UpdateQuestionRequest
type UpdateQuestionRequest struct {
	Text          *string  `json:"text"`
	OptionA       *string  `json:"optionA"`
	OptionB       *string  `json:"optionB"`
	OptionC       *string  `json:"optionC"`
	OptionD       *string  `json:"optionD"`
	CorrectOption *string  `json:"correctOption" binding:"omitempty,option"`
	Weight        *float64 `json:"weight" binding:"omitempty,min=0"`
}

// ListQuestions godoc
// @Summary Questions of an exam, with answer key
// @Tags teacher
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /teacher/exams/{id}/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	examID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	questions, err := c.Questions.ListByExam(ctx.Request.Context(), caller, examID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// CreateQuestion godoc
// @Summary Add a question
// @Tags teacher
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Exam ID"
// @Param body body CreateQuestionRequest true "Question"
// @Success 201 {object} util.Response{data=model.Question}
// @Router /teacher/exams/{id}/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	examID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req CreateQuestionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	q, err := c.Questions.Create(ctx.Request.Context(), caller, examID, service.QuestionInput{
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		Weight:        req.Weight,
	})
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary Edit a question
// @Description Changing the correct option or weight rescores affected sessions in the background
// @Tags teacher
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Question ID"
// @Param body body UpdateQuestionRequest true "Changed fields"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /teacher/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req UpdateQuestionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	q, err := c.Questions.Update(ctx.Request.Context(), caller, id, service.QuestionUpdate{
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		Weight:        req.Weight,
	})
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}
