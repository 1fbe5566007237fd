package controller

import (
	"academic_backend/internal/repository"
	"academic_backend/internal/service"
	"academic_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RealtimeController struct {
	Hub      *service.ExamHub
	UserRepo *repository.UserRepository
}

func NewRealtimeController(hub *service.ExamHub, userRepo *repository.UserRepository) *RealtimeController {
	return &RealtimeController{Hub: hub, UserRepo: userRepo}
}

// Connect godoc
// @Summary Realtime exam channel
// @Description WebSocket. Send ANSWER frames {examId, questionId, selectedOption}; receive ANSWER_ACK, ANSWER_ERROR and EXAM_STATE
// @Tags realtime
// @Param token query string false "Bearer token for browsers that cannot set headers"
// @Router /ws/exams [get]
func (c *RealtimeController) Connect(ctx *gin.Context) {
	caller, ok := callerOf(ctx)
	if !ok {
		return
	}
	user, err := c.UserRepo.FindByID(ctx.Request.Context(), caller.ID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	var classID uint
	if user.ClassID != nil {
		classID = *user.ClassID
	}
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, caller, classID)
}
