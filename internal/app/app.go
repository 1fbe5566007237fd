package app

import (
	"academic_backend/internal/config"
	"academic_backend/internal/controller"
	"academic_backend/internal/repository"
	"academic_backend/internal/service"
	"academic_backend/pkg/configwatcher"
	"academic_backend/pkg/database"
	"academic_backend/pkg/logger"
	"academic_backend/pkg/monitoring"
	"academic_backend/pkg/security"
	"academic_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	repos    *repositories
	services *services
	tracer   *sdktrace.TracerProvider
	limiter  *security.Limiter

	mu              sync.Mutex
	configCallbacks []func(*config.Config)
	stopWatch       context.CancelFunc
}

type repositories struct {
	user     *repository.UserRepository
	course   *repository.CourseRepository
	exam     *repository.ExamRepository
	question *repository.QuestionRepository
	session  *repository.SessionRepository
	answer   *repository.AnswerRepository
	result   *repository.ResultRepository
}

type services struct {
	storage  *service.StorageService
	identity *service.IdentityService
	result   *service.ResultService
	scoring  *service.ScoringService
	events   *service.EventBus
	question *service.QuestionService
	exam     *service.ExamService
	session  *service.SessionService
	answer   *service.AnswerService
	export   *service.ExportService
	examHub  *service.ExamHub
	monitor  *service.AvailabilityMonitor
}

type controllers struct {
	auth     *controller.AuthController
	exam     *controller.ExamController
	session  *controller.SessionController
	question *controller.QuestionController
	result   *controller.ResultController
	realtime *controller.RealtimeController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	a.configCallbacks = append(a.configCallbacks, callback)
	a.mu.Unlock()
}

func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		course:   repository.NewCourseRepository(db),
		exam:     repository.NewExamRepository(db),
		question: repository.NewQuestionRepository(db),
		session:  repository.NewSessionRepository(db),
		answer:   repository.NewAnswerRepository(db),
		result:   repository.NewResultRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.identity = service.NewIdentityService(repos.user, cfg)
	s.result = service.NewResultService(repos.result, repos.course)
	s.scoring = service.NewScoringService(repos.session, repos.answer, repos.question, repos.exam, s.result, cfg.Exam.RecomputeWorkers)

	s.events = service.NewEventBus(cfg.Exam.EventBuffer)
	s.events.Subscribe(s.scoring.HandleAnswerKeyChanged)

	s.question = service.NewQuestionService(repos.question, repos.exam, s.events)
	s.exam = service.NewExamService(repos.exam, repos.question, repos.session, repos.course, repos.user)
	s.session = service.NewSessionService(repos.session, repos.answer, repos.exam, repos.user, s.scoring)
	s.answer = service.NewAnswerService(s.session, repos.question, repos.answer)
	s.export = service.NewExportService(s.result, repos.user, s.storage)

	s.examHub = service.NewExamHub(rdb, s.answer)

	lookback := time.Duration(cfg.Exam.MonitorLookbackHours) * time.Hour
	store := service.NewMemoryStateStore()
	if rdb != nil {
		store = service.NewRedisStateStore(rdb, 2*lookback)
	}
	s.monitor = service.NewAvailabilityMonitor(repos.exam, s.examHub, store, cfg.Exam.PollInterval(), lookback)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.identity),
		exam:     controller.NewExamController(s.exam),
		session:  controller.NewSessionController(s.session, s.answer),
		question: controller.NewQuestionController(s.question),
		result:   controller.NewResultController(s.result, s.export),
		realtime: controller.NewRealtimeController(s.examHub, repos.user),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	a.limiter = security.NewLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	router.Use(a.limiter.Middleware())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	s.events.Start()
	go s.examHub.Run()
	go s.monitor.Run()

	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.monitor.SetInterval(cfg.Exam.PollInterval())
		a.limiter.SetLimit(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
		logger.SetLevel(cfg)
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatch = cancel
	configFile := filepath.Join(a.Config.Path, "config.yaml")
	go func() {
		if err := configwatcher.WatchConfig(ctx, configFile, a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()
}

// Bootstrap connects storage and builds repositories and services without
// starting anything; CLI commands use it directly.
func Bootstrap(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	var rdb *redis.Client
	if !cfg.MigrateOnly {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("initialize redis: %w", err)
		}
	}

	a := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}
	a.repos = a.initRepositories(db)
	a.services = a.initServices(a.repos, cfg, rdb)
	return a, nil
}

// NewApp bootstraps the application and builds the HTTP router.
func NewApp(cfg *config.Config) (*App, error) {
	a, err := Bootstrap(cfg)
	if err != nil {
		return nil, err
	}

	monitoring.Init()
	controller.RegisterValidators()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
		a.tracer = tp
	}

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	a.Router = router

	a.setupMiddlewares(router, cfg)
	a.registerRoutes(router, a.initControllers(a.services, a.repos, a.DB, a.Redis), cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}
	return a, nil
}

// ExportResults writes a course result sheet on behalf of the system.
func (a *App) ExportResults(ctx context.Context, courseID uint) (*service.ExportReceipt, error) {
	return a.services.export.ExportCourseResults(ctx, systemCaller, courseID)
}

func (a *App) Run() error {
	a.startBackgroundTasks(a.services)

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
	case runErr = <-errCh:
		logger.Log.Error("Server failed", zap.Error(runErr))
	}
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	logger.Log.Info("Server exiting")
	return runErr
}

// Close stops background workers, letting queued recomputations finish, and
// releases connections.
func (a *App) Close() {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if s := a.services; s != nil {
		s.examHub.Stop()
		s.monitor.Stop()
		s.events.Stop()
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Log.Sync()
}
