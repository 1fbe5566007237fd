package controller

import (
	"academic_backend/internal/service"
	"academic_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResultController struct {
	Results *service.ResultService
	Export  *service.ExportService
}

func NewResultController(results *service.ResultService, export *service.ExportService) *ResultController {
	return &ResultController{Results: results, Export: export}
}

// ListMine godoc
// @Summary The caller's revealed results
// @Description Results stay hidden until the course teacher reveals them
// @Tags results
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Result}
// @Router /results/me [get]
func (c *ResultController) ListMine(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	results, err := c.Results.ListForStudent(ctx.Request.Context(), caller)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// GetResult godoc
// @Summary One result
// @Tags results
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Result ID"
// @Success 200 {object} util.Response{data=model.Result}
// @Failure 404 {object} util.Response
// @Router /results/{id} [get]
func (c *ResultController) GetResult(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	res, err := c.Results.Get(ctx.Request.Context(), caller, id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// ListByCourse godoc
// @Summary Results of a course
// @Tags teacher
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response{data=[]model.Result}
// @Router /teacher/courses/{id}/results [get]
func (c *ResultController) ListByCourse(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	_, results, err := c.Results.ListByCourse(ctx.Request.Context(), caller, courseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// swagger:model UpdateResultRequest
type UpdateResultRequest struct {
	MidtermScore    *float64 `json:"midtermScore" binding:"omitempty,min=0"`
	FinalScore      *float64 `json:"finalScore" binding:"omitempty,min=0"`
	AssignmentScore *float64 `json:"assignmentScore" binding:"omitempty,min=0"`
}

// UpdateResult godoc
// @Summary Override result components
// @Description Overall score and grade are recomputed; visibility is unchanged
// @Tags teacher
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Result ID"
// @Param body body UpdateResultRequest true "Scores"
// @Success 200 {object} util.Response{data=model.Result}
// @Router /teacher/results/{id} [put]
func (c *ResultController) UpdateResult(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req UpdateResultRequest
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := c.Results.UpdateScores(ctx.Request.Context(), caller, id, service.ResultScoresInput{
		MidtermScore:    req.MidtermScore,
		FinalScore:      req.FinalScore,
		AssignmentScore: req.AssignmentScore,
	})
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// swagger:model VisibilityRequest
type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// SetVisibility godoc
// @Summary Reveal or hide a result
// @Tags teacher
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Result ID"
// @Param body body VisibilityRequest true "Visibility"
// @Success 200 {object} util.Response{data=model.Result}
// @Router /teacher/results/{id}/visibility [patch]
func (c *ResultController) SetVisibility(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req VisibilityRequest
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := c.Results.SetVisibility(ctx.Request.Context(), caller, id, *req.Visible)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// ExportCourse godoc
// @Summary Export a course result sheet
// @Description Writes the sheet as JSON to the configured storage
// @Tags teacher
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 201 {object} util.Response{data=service.ExportReceipt}
// @Router /teacher/courses/{id}/results/export [post]
func (c *ResultController) ExportCourse(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	receipt, err := c.Export.ExportCourseResults(ctx.Request.Context(), caller, courseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, receipt)
}
