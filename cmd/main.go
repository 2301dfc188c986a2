package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hems-edu/examgate/config"
	"github.com/hems-edu/examgate/database"
	_ "github.com/hems-edu/examgate/docs" // Swagger docs - auto-generated
	adminctrl "github.com/hems-edu/examgate/internal/controller/admin"
	studentctrl "github.com/hems-edu/examgate/internal/controller/student"
	"github.com/hems-edu/examgate/internal/logger"
	"github.com/hems-edu/examgate/internal/middleware"
	"github.com/hems-edu/examgate/internal/model"
	"github.com/hems-edu/examgate/internal/repository"
	"github.com/hems-edu/examgate/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title HEMS Exam Gate API
// @version 1.0
// @description Proctored multiple-choice exam API with two-phase student authentication, server-authoritative timing, and automatic grading.
// @contact.name API Support
// @contact.email support@hems.edu.et
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewGinEngine,         // Provides *gin.Engine
		),

		// Repositories Layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewStudentRepository,
			repository.NewExamRepository,
			repository.NewQuestionRepository,
			repository.NewSessionCredentialRepository,
			repository.NewAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewLoginSessionRepository,
			repository.NewAuditRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewAuditService,
			service.NewCredentialService,
			service.NewTimerService,
			service.NewGradingService,
			service.NewExamSessionService,
			service.NewAdminExamService,
		),

		// API Controllers Layer
		fx.Provide(
			studentctrl.NewAuthController,
			studentctrl.NewExamController,
			adminctrl.NewAdminController,
		),

		// Invokers - Functions that are executed by Fx
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.DebugMode)

	r := gin.New()

	// Custom logger using Zerolog for Gin
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	// CORS Configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI
	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	credentials service.CredentialService,
	admin service.AdminExamService,
	authCtrl *studentctrl.AuthController,
	examCtrl *studentctrl.ExamController,
	adminCtrl *adminctrl.AdminController,
) {
	api := router.Group("/api/v1")

	// Authentication routes (no session required)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/phase1", authCtrl.Phase1Login)
		authGroup.POST("/phase2", authCtrl.Phase2Login)
	}

	// Student routes behind an opaque login-session token
	studentGroup := api.Group("")
	studentGroup.Use(middleware.SessionAuth(credentials))
	{
		studentGroup.POST("/auth/password", authCtrl.ChangePassword)
		studentGroup.POST("/auth/logout", authCtrl.Logout)

		studentGroup.GET("/exams", examCtrl.ListExams)
		studentGroup.POST("/exams/:exam_id/attempts", examCtrl.StartExam)
		studentGroup.GET("/exams/:exam_id/questions/:sequence/next", examCtrl.NextQuestion)
		studentGroup.GET("/exams/:exam_id/questions/:sequence/previous", examCtrl.PreviousQuestion)

		studentGroup.PUT("/attempts/:attempt_id/answers", examCtrl.SaveAnswer)
		studentGroup.PUT("/attempts/:attempt_id/flags", examCtrl.FlagQuestion)
		studentGroup.POST("/attempts/:attempt_id/submit", examCtrl.SubmitExam)
		studentGroup.GET("/attempts/:attempt_id/progress", examCtrl.Progress)
		studentGroup.GET("/attempts/:attempt_id/timestamp", examCtrl.Timestamp)
		studentGroup.POST("/attempts/:attempt_id/timestamp/verify", examCtrl.VerifyTimestamp)
		studentGroup.POST("/attempts/:attempt_id/timing", examCtrl.ReportTiming)
	}

	// Admin routes behind a JWT
	adminGroup := api.Group("/admin")
	adminGroup.POST("/login", adminCtrl.Login)
	adminAuthed := adminGroup.Group("")
	adminAuthed.Use(middleware.AdminAuth(admin))
	{
		adminAuthed.POST("/exams", adminCtrl.CreateExam)
		adminAuthed.POST("/exams/:exam_id/publish", adminCtrl.PublishExam)
		adminAuthed.POST("/exams/:exam_id/credentials", adminCtrl.CreateSessionCredential)
		adminAuthed.DELETE("/credentials/:credential_id", adminCtrl.DeactivateSessionCredential)
		adminAuthed.POST("/students", adminCtrl.ProvisionStudent)
	}

	// HTTP Server Setup and Lifecycle
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Exam Gate API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Student{},
		&model.Exam{},
		&model.Question{},
		&model.Choice{},
		&model.SessionCredential{},
		&model.ExamAttempt{},
		&model.AnswerRecord{},
		&model.LoginSession{},
		&model.AuditEvent{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
