package controller

import (
	"academic_backend/internal/model"
	"academic_backend/internal/service"
	"academic_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Identity *service.IdentityService
}

func NewAuthController(identity *service.IdentityService) *AuthController {
	return &AuthController{Identity: identity}
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Log in
// @Description Exchanges credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	token, user, err := c.Identity.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"token": token,
		"user":  user,
	})
}

// swagger:model CreateUserRequest
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=student teacher department-head admin"`
	ClassID  *uint  `json:"classId"`
}

// CreateUser godoc
// @Summary Register an account
// @Description Adds a user of any role to the identity registry
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateUserRequest true "Account"
// @Success 201 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "Email or phone already registered"
// @Router /admin/users [post]
func (c *AuthController) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := c.Identity.Register(ctx.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     model.UserRole(req.Role),
		ClassID:  req.ClassID,
	})
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, user)
}
