package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/xrequests/xrequests/internal/config"
	"github.com/xrequests/xrequests/internal/db"
	"github.com/xrequests/xrequests/internal/model"
	"github.com/xrequests/xrequests/internal/repository"
	"github.com/xrequests/xrequests/internal/service"
	"github.com/xrequests/xrequests/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	AuthService     *service.AuthService
	UserService     *service.UserService
	RequestService  *service.RequestService
	ResponseService *service.ResponseService
	EmailService    *service.EmailService
	Storage         storage.Storage
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	requestRepository := repository.NewRequestRepository(database)
	responseRepository := repository.NewResponseRepository(database)
	fileRepository := repository.NewFileRepository(database)
	upvoteRepository := repository.NewUpvoteRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		emailService,
		cfg.TokenPasswordResetExpiry,
	)
	responseService := service.NewResponseService(
		database,
		responseRepository,
		requestRepository,
		fileRepository,
		upvoteRepository,
		fileStorage,
		emailService,
		authService,
		cfg.BackofficeEmail,
	)
	requestService := service.NewRequestService(
		database,
		requestRepository,
		upvoteRepository,
		responseService,
		authService,
		model.AnonymousUserID,
	)
	userService := service.NewUserService(
		database,
		userRepository,
		requestRepository,
		responseRepository,
		upvoteRepository,
		tokenRepository,
		responseService,
		authService,
		model.AnonymousUserID,
	)

	// The anonymous sentinel is seeded by migrations; fail fast if it is gone
	_, err = authService.Anonymous()
	if err != nil {
		return nil, fmt.Errorf("anonymous user missing: %v", err)
	}

	return &App{
		Cfg:             cfg,
		DB:              database,
		AuthService:     authService,
		UserService:     userService,
		RequestService:  requestService,
		ResponseService: responseService,
		EmailService:    emailService,
		Storage:         fileStorage,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
