package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/avagut/dynamic-user-menus/internal"
	"github.com/avagut/dynamic-user-menus/internal/auth"
	authPostgres "github.com/avagut/dynamic-user-menus/internal/auth/postgres"
	"github.com/avagut/dynamic-user-menus/internal/authz"
	authzPostgres "github.com/avagut/dynamic-user-menus/internal/authz/postgres"
	"github.com/avagut/dynamic-user-menus/internal/core/events"
	"github.com/avagut/dynamic-user-menus/internal/menu"
	menuPostgres "github.com/avagut/dynamic-user-menus/internal/menu/postgres"
	"github.com/avagut/dynamic-user-menus/internal/notification"
	"github.com/avagut/dynamic-user-menus/internal/role"
	rolePostgres "github.com/avagut/dynamic-user-menus/internal/role/postgres"
	"github.com/avagut/dynamic-user-menus/internal/transport/rest"
	"github.com/avagut/dynamic-user-menus/internal/user"
	userPostgres "github.com/avagut/dynamic-user-menus/internal/user/postgres"
	"github.com/avagut/dynamic-user-menus/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle admin API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the pgx connection pool opened above
	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	router := chi.NewRouter()
	setupRoutes(router, db, gormDB, config, lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Router: router,
	}, nil
}

func setupRoutes(router *chi.Mux, db *sqlx.DB, gormDB *gorm.DB, config *internal.Config, lg *slog.Logger) {
	// Repositories
	authRepo := authPostgres.NewRepository(gormDB)
	userRepo := userPostgres.NewRepository(gormDB)
	roleRepo := rolePostgres.NewRepository(gormDB)
	menuRepo := menuPostgres.NewRepository(gormDB)
	grantRepo := authzPostgres.NewGrantRepository(gormDB)

	// Authorization core
	sessions := authz.NewSessionStore()
	builder := authz.NewIndexBuilder(grantRepo, lg)
	engine := authz.NewEngine(builder, grantRepo, lg)
	guard := authz.NewGuard(engine, sessions, lg)
	grants := authz.NewGrantService(grantRepo, sessions, lg)

	// Tokens and events
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	emailTokens := auth.NewEmailTokenGenerator(
		config.Security.EmailTokenSecret,
		config.Security.EmailTokenDuration,
	)
	bus := events.NewEventBus(lg)

	// Notifications: real SMTP only when the mailer is configured
	var sender notification.Sender
	if config.Mailer.Enabled {
		sender = notification.NewSMTPSender(config.Mailer)
	} else {
		sender = &notification.LogSender{Logger: lg}
	}
	notification.NewService(sender, config.Server.BaseURL, lg).Register(bus)

	// Services
	authService := auth.NewService(authRepo, grants, sessions, builder, tokenGen, emailTokens, bus, config.Security.BCryptCost, lg)
	userService := user.NewService(userRepo, emailTokens, bus, lg)
	roleService := role.NewService(roleRepo, lg)
	menuService := menu.NewService(menuRepo, lg)

	// Handlers
	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(userService)
	roleHandler := role.NewHandler(roleService)
	menuHandler := menu.NewHandler(menuService)
	authzHandler := authz.NewHandler(grants, engine)

	rest.RegisterAllRoutes(router, db.DB, authHandler, userHandler, roleHandler, menuHandler, authzHandler, guard, config.Server.AllowedOrigins, lg)
}

// initDB initializes the database connection
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

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
