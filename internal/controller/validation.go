package controller

import (
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request bodies.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterValidation("option", func(fl validator.FieldLevel) bool {
			return model.ValidOption(strings.ToUpper(fl.Field().String()))
		})
		v.RegisterValidation("examkind", func(fl validator.FieldLevel) bool {
			return model.ExamKind(strings.ToLower(fl.Field().String())).Valid()
		})
	})
}

// pathID parses a positive id path parameter, answering 400 when it is not one.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the body; a selected option failing its tag maps to INVALID_OPTION.
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "option" {
					util.RespondError(ctx, util.ErrInvalidOption)
					return false
				}
				if fe.Tag() == "examkind" {
					util.RespondError(ctx, util.ErrInvalidExamKind)
					return false
				}
			}
		}
		util.RespondError(ctx, util.InvalidInput(err.Error()))
		return false
	}
	return true
}

func callerOf(ctx *gin.Context) (model.Caller, bool) {
	caller, ok := util.CallerFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
	}
	return caller, ok
}
