package app

import (
	"academic_backend/docs"
	"academic_backend/internal/config"
	"academic_backend/internal/middleware"
	"academic_backend/internal/model"
	"academic_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// systemCaller acts for operator commands run outside an HTTP request.
var systemCaller = model.Caller{Role: model.Admin}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. public routes
	a.registerPublicRoutes(router, c)

	// 2. authenticated routes
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerResultRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	take := middleware.RequirePermission(model.PermTakeExam)

	exams := rg.Group("/exams")
	{
		exams.GET("/active", take, c.exam.ListActive)
		exams.GET("/:id", c.exam.GetExam)
		exams.POST("/:id/session", take, c.session.OpenSession)
		exams.POST("/:id/answers", take, c.session.SubmitAnswer)
	}

	sessions := rg.Group("/sessions")
	{
		sessions.POST("/:id/submit", take, c.session.Submit)
		sessions.GET("/:id/score", c.session.GetScore)
	}

	rg.GET("/ws/exams", c.realtime.Connect)
}

func (a *App) registerResultRoutes(rg *gin.RouterGroup, c *controllers) {
	results := rg.Group("/results")
	{
		results.GET("/me", middleware.RequirePermission(model.PermViewOwnResults), c.result.ListMine)
		results.GET("/:id", c.result.GetResult)
	}
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	{
		exams := teacher.Group("/exams", middleware.RequirePermission(model.PermManageExams))
		exams.GET("", c.exam.ListTeacherExams)
		exams.POST("", c.exam.CreateExam)

		questions := teacher.Group("", middleware.RequirePermission(model.PermManageQuestions))
		questions.GET("/exams/:id/questions", c.question.ListQuestions)
		questions.POST("/exams/:id/questions", c.question.CreateQuestion)
		questions.PUT("/questions/:id", c.question.UpdateQuestion)

		teacher.GET("/courses/:id/results", middleware.RequirePermission(model.PermViewResults), c.result.ListByCourse)
		teacher.POST("/courses/:id/results/export", middleware.RequirePermission(model.PermExportResults), c.result.ExportCourse)
		teacher.PUT("/results/:id", middleware.RequirePermission(model.PermManageResults), c.result.UpdateResult)
		teacher.PATCH("/results/:id/visibility", middleware.RequirePermission(model.PermRevealResults), c.result.SetVisibility)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin", middleware.RequirePermission(model.PermManageUsers))
	{
		admin.POST("/users", c.auth.CreateUser)
	}
}
