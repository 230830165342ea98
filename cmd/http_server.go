package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/auth"
	authPostgres "github.com/frahmantamala/storefront/internal/auth/postgres"
	"github.com/frahmantamala/storefront/internal/cart"
	cartPostgres "github.com/frahmantamala/storefront/internal/cart/postgres"
	"github.com/frahmantamala/storefront/internal/core/events"
	"github.com/frahmantamala/storefront/internal/item"
	itemPostgres "github.com/frahmantamala/storefront/internal/item/postgres"
	"github.com/frahmantamala/storefront/internal/mailer"
	"github.com/frahmantamala/storefront/internal/observability"
	"github.com/frahmantamala/storefront/internal/transport/rest"
	"github.com/frahmantamala/storefront/internal/user"
	userPostgres "github.com/frahmantamala/storefront/internal/user/postgres"
	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Gorm       *gorm.DB
	Router     *chi.Mux
	Dispatcher *mailer.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr, "environment", deps.Config.Environment)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("server failed", "error", err)
			runErr = err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		deps.Logger.Error("server shutdown error", "error", err)
	}
	if err := deps.Dispatcher.Shutdown(ctx); err != nil {
		deps.Logger.Warn("mail dispatcher did not drain", "error", err)
	}
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("database close error", "error", err)
	}

	deps.Logger.Info("server stopped")
	return runErr
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := setupLogger(config)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	metrics := observability.NewMetrics()
	bus := events.NewEventBus(lg)
	metrics.ObserveAuthEvents(bus)

	dispatcher := mailer.NewDispatcher(newMailSender(config.Mail, lg), mailer.DispatcherConfig{
		Workers:     config.Mail.Workers,
		QueueSize:   config.Mail.QueueSize,
		SendTimeout: config.Mail.SendTimeout,
	}, lg)
	dispatcher.OnResult(metrics.RecordMailResult)

	gate := auth.NewGate(lg)
	hasher := auth.NewBcryptHasher(config.Security.BCryptCost)
	tokens := auth.NewJWTTokenGenerator(config.Security.SessionSecret, config.Security.SessionTTL, config.Security.ResetTokenTTL)
	users := authPostgres.NewRepository(gormDB)

	resetService := auth.NewResetService(users, hasher, tokens, dispatcher, bus, auth.ResetConfig{
		FrontendURL: config.Frontend.BaseURL,
		SignOff:     config.Mail.FromName,
		Grace:       config.Security.ResetTokenGrace,
	}, lg)
	resetService.OnNotifyFailure = metrics.RecordResetNotifyFailure

	cookie := auth.DefaultSessionCookie()
	cookie.Name = config.Security.Cookie.Name
	cookie.MaxAge = config.Security.SessionTTL
	cookie.Secure = config.Security.Cookie.Secure
	cookie.SameSite = config.Security.Cookie.SameSiteMode()
	cookie.Domain = config.Security.Cookie.Domain

	authHandler := auth.NewHandler(auth.NewService(users, hasher, tokens, bus, lg), resetService, cookie)

	itemService := item.NewService(itemPostgres.NewItemRepository(gormDB), gate, lg)
	cartService := cart.NewService(cartPostgres.NewCartRepository(gormDB), itemService, gate, lg)
	userService := user.NewService(userPostgres.NewPostgresRepo(db), gate, bus, lg)

	origins := config.Server.Origins()
	if len(origins) == 0 {
		origins = []string{config.Frontend.BaseURL}
	}

	var routeMetrics *observability.Metrics
	if config.Observability.Metrics.Enabled {
		routeMetrics = metrics
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Dependencies{
		DB:          db.DB,
		Auth:        authHandler,
		Items:       item.NewHandler(itemService),
		Cart:        cart.NewHandler(cartService),
		Users:       user.NewHandler(userService),
		Metrics:     routeMetrics,
		Logger:      lg,
		CORS:        rest.DefaultCORSOptions(origins...),
		MetricsPath: config.Observability.Metrics.Path,
		OpenAPIPath: "./api/openapi.yml",
	})

	return &Dependencies{
		Config:     config,
		DB:         db,
		Gorm:       gormDB,
		Router:     router,
		Dispatcher: dispatcher,
		Logger:     lg,
	}, nil
}

func newMailSender(cfg internal.MailConfig, lg *slog.Logger) mailer.Sender {
	if !cfg.Enabled() {
		lg.Warn("no smtp relay configured; reset emails will only be logged")
		return mailer.NewLogSender(lg)
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
	})
}

// initDB opens the shared pgx connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

// initGorm layers gorm over the pool opened by initDB.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}
