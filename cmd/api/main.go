package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/memberdir/admin_api/internal/cache"
	"github.com/memberdir/admin_api/internal/config"
	"github.com/memberdir/admin_api/internal/database"
	"github.com/memberdir/admin_api/internal/handler"
	"github.com/memberdir/admin_api/internal/middleware"
	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/notifier"
	"github.com/memberdir/admin_api/internal/repository"
	"github.com/memberdir/admin_api/internal/service"
	"github.com/memberdir/admin_api/internal/storage"
)

// main is the application entrypoint for the member directory admin API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting member directory api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := database.RunMigrations(db.DB, cfg.MigrationsPath); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis. The reset cooldown is skipped without it.
	var (
		resetThrottle service.ResetThrottle
		cachePinger   handler.CachePinger
	)
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, password reset cooldown disabled")
	} else {
		defer redisClient.Close()
		resetThrottle = cache.NewResetThrottle(redisClient, cfg.Reset.RequestCooldown)
		cachePinger = redisClient
		log.Info().Msg("redis connected successfully")
	}

	// 4. AWS clients
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := loadAWSConfig(ctx, &cfg.AWS)
	if err != nil {
		log.Error().Err(err).Msg("failed to load AWS SDK config")
		fmt.Fprintf(os.Stderr, "failed to load AWS SDK config: %v\n", err)
		os.Exit(1)
	}

	var resetNotifier service.Notifier = notifier.Disabled{}
	if cfg.SES.FromAddress != "" {
		resetNotifier = notifier.NewSESNotifier(sesv2.NewFromConfig(awsCfg), cfg.SES.FromAddress)
	} else {
		log.Warn().Msg("SES_FROM_ADDRESS not set, password reset emails disabled")
	}

	var photoStore service.PhotoStore
	if cfg.S3.Bucket != "" {
		store, err := storage.NewPhotoStore(storage.NewS3Client(awsCfg, &cfg.S3), &cfg.S3)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize photo storage")
			os.Exit(1)
		}
		photoStore = store
	} else {
		log.Warn().Msg("S3_BUCKET not set, member photo uploads disabled")
	}

	// 5. Initialize repositories
	accountRepo := repository.NewAdminAccountRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	memberRepo := repository.NewMemberRepository(db)

	// 6. Initialize services
	tokenSvc := service.NewTokenService(cfg.JWTSecret, accountRepo)
	accountSvc := service.NewAccountService(accountRepo, tokenSvc)
	resetSvc := service.NewPasswordResetService(accountRepo, resetRepo, resetNotifier, resetThrottle)
	memberSvc := service.NewMemberService(memberRepo, photoStore)
	dashboardSvc := service.NewDashboardService(accountRepo, memberRepo)

	if cfg.Bootstrap.Email != "" {
		if err := accountSvc.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.Email, cfg.Bootstrap.Password, cfg.Bootstrap.Name); err != nil {
			log.Error().Err(err).Msg("failed to create bootstrap superadmin")
			os.Exit(1)
		}
	}

	// 7. Initialize middleware
	authLimiter := middleware.NewInvalidAuthRateLimiter(5, time.Minute)
	jwtMw := middleware.NewJWTMiddleware(tokenSvc, authLimiter)

	// 8. Initialize handlers
	handlers := &Handlers{
		Health:     handler.NewHealthHandler(db, cachePinger),
		Auth:       handler.NewAuthHandler(accountSvc, resetSvc, authLimiter),
		Account:    handler.NewAccountHandler(accountSvc),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Member:     handler.NewMemberHandler(memberSvc),
		SubRecords: subRecordHandlers(db, memberRepo),
	}

	// 9. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	// 12. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	Account    *handler.AccountHandler
	Dashboard  *handler.DashboardHandler
	Member     *handler.MemberHandler
	SubRecords []routeRegistrar
}

// routeRegistrar mounts a sub-record handler under /members/:member_id.
type routeRegistrar interface {
	Register(members gin.IRoutes)
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	v1 := router.Group("/v1")
	v1.GET("/health", handlers.Health.GetHealth)

	// Public auth endpoints
	auth := v1.Group("/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/forgot-password", handlers.Auth.ForgotPassword)
		auth.POST("/verify-otp", handlers.Auth.VerifyOTP)
		auth.POST("/reset-password", handlers.Auth.ResetPassword)
	}

	// Any signed-in account
	self := v1.Group("")
	self.Use(jwtMiddleware.Handle(), middleware.RequireScope(models.ScopeSelf))
	{
		self.POST("/auth/logout", handlers.Auth.Logout)
		self.GET("/auth/profile", handlers.Auth.GetProfile)
		self.PUT("/auth/profile", handlers.Auth.UpdateProfile)
		self.GET("/dashboard", handlers.Dashboard.GetDashboard)
	}

	// Admin account management
	accounts := v1.Group("/accounts")
	accounts.Use(jwtMiddleware.Handle(), middleware.RequireScope(models.ScopeAccounts))
	{
		accounts.GET("", handlers.Account.ListAccounts)
		accounts.POST("", handlers.Account.CreateAccount)
	}

	// Member directory
	members := v1.Group("/members")
	members.Use(jwtMiddleware.Handle(), middleware.RequireScope(models.ScopeDirectory))
	{
		members.GET("", handlers.Member.ListMembers)
		members.POST("", handlers.Member.CreateMember)
		members.GET("/:member_id", handlers.Member.GetMember)
		members.PUT("/:member_id", handlers.Member.UpdateMember)
		members.DELETE("/:member_id", handlers.Member.DeleteMember)
		members.POST("/:member_id/photo", handlers.Member.UploadPhoto)

		member := members.Group("/:member_id")
		for _, h := range handlers.SubRecords {
			h.Register(member)
		}
	}
}

// subRecordHandlers wires one handler per record kind.
func subRecordHandlers(db *sqlx.DB, members *repository.MemberRepository) []routeRegistrar {
	return []routeRegistrar{
		newSubRecordHandler[models.AcademicBackground](db, members, "academic-backgrounds", repository.AcademicBackgrounds),
		newSubRecordHandler[models.FamilyDetail](db, members, "family-details", repository.FamilyDetails),
		newSubRecordHandler[models.PublicMissionPost](db, members, "public-mission-posts", repository.PublicMissionPosts),
		newSubRecordHandler[models.WorkExperience](db, members, "work-experiences", repository.WorkExperiences),
		newSubRecordHandler[models.TrainingCourse](db, members, "training-courses", repository.TrainingCourses),
		newSubRecordHandler[models.Qualification](db, members, "qualifications", repository.Qualifications),
		newSubRecordHandler[models.AwardsRecognition](db, members, "awards-recognitions", repository.AwardsRecognitions),
		newSubRecordHandler[models.DisciplinaryAction](db, members, "disciplinary-actions", repository.DisciplinaryActions),
		newSubRecordHandler[models.SpecialNote](db, members, "special-notes", repository.SpecialNotes),
	}
}

func newSubRecordHandler[T any, P interface {
	*T
	models.SubRecord
}](db *sqlx.DB, members *repository.MemberRepository, kind string, table repository.SubRecordTable) routeRegistrar {
	repo := repository.NewSubRecordRepository[T, P](db, table)
	svc := service.NewSubRecordService[T, P](members, repo)
	return handler.NewSubRecordHandler[T, P](kind, svc)
}

// loadAWSConfig builds the shared AWS config. Static keys are used when both
// are set, otherwise the default credential chain applies.
func loadAWSConfig(ctx context.Context, cfg *config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
