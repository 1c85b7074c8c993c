package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/tasktracker/internal/config"
	"github.com/locvowork/tasktracker/internal/database"
	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/locvowork/tasktracker/internal/handler"
	"github.com/locvowork/tasktracker/internal/logger"
	"github.com/locvowork/tasktracker/internal/repository"
	"github.com/locvowork/tasktracker/internal/seed"
	"github.com/locvowork/tasktracker/internal/service"
	"github.com/locvowork/tasktracker/internal/store"
	"github.com/locvowork/tasktracker/pkg/googlecloud"
	"github.com/locvowork/tasktracker/pkg/search"
)

// Seed file values with a special meaning.
const (
	SeedNone    = "none"
	SeedDefault = "default"
)

type App struct {
	Echo    *echo.Echo
	DB      *sql.DB
	GCP     *googlecloud.Client
	Store   *store.Store
	Search  *search.Indexer
	Service service.TaskListService

	driver string
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

// Initialize wires the application. On failure every backend it opened is
// closed again.
func (a *App) Initialize(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			if cerr := a.Close(); cerr != nil {
				logger.ErrorLog(ctx, fmt.Sprintf("failed to release backends: %v", cerr))
			}
		}
	}()

	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLoggingWithLevel(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	repo, err := a.initRepository(ctx)
	if err != nil {
		return err
	}

	var opts []service.Option
	if cfg.ELASTIC_URL != "" {
		ix, err := search.NewIndexer(cfg.ELASTIC_URL, cfg.ELASTIC_INDEX)
		if err != nil {
			return fmt.Errorf("failed to initialize search: %w", err)
		}
		if err := ix.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("failed to initialize search index: %w", err)
		}
		a.Search = ix
		opts = append(opts, service.WithIndexer(ix))
		logger.InfoLog(ctx, fmt.Sprintf("Search enabled on %s index %s", cfg.ELASTIC_URL, cfg.ELASTIC_INDEX))
	}
	if cfg.EXPORT_TEMPLATE != "" {
		tpl, err := os.ReadFile(cfg.EXPORT_TEMPLATE)
		if err != nil {
			return fmt.Errorf("failed to read export template: %w", err)
		}
		opts = append(opts, service.WithExportTemplate(string(tpl)))
	}
	a.Service = service.NewTaskListService(repo, opts...)

	if err := a.seed(ctx); err != nil {
		return err
	}
	if a.Search != nil {
		if _, err := a.Service.Reindex(ctx); err != nil {
			logger.ErrorLog(ctx, fmt.Sprintf("failed to reindex task lists: %v", err))
		}
	}

	// Register Middlewares
	a.RegisterMiddlewares()

	// Register Routes
	a.RegisterRoutes()

	return nil
}

func (a *App) initRepository(ctx context.Context) (domain.TaskListRepository, error) {
	cfg := config.DefaultEnvConfig
	a.driver = cfg.STORAGE_DRIVER

	switch a.driver {
	case config.DriverPostgres:
		dbConfig := database.Config{
			Host:            cfg.DB_HOST,
			Port:            cfg.DB_PORT,
			User:            cfg.DB_USER,
			Password:        cfg.DB_PASSWORD,
			DBName:          cfg.DB_NAME,
			SSLMode:         cfg.DB_SSL_MODE,
			MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
		}
		db, err := database.NewPostgresDB(ctx, dbConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		if err := repository.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		logger.InfoLog(ctx, "Using PostgreSQL storage")
		return repository.NewTaskListRepository(db), nil

	case config.DriverDatastore:
		gcpClient, err := googlecloud.NewClient(ctx, cfg.GCP_PROJECT_ID, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCP client: %w", err)
		}
		a.GCP = gcpClient
		logger.InfoLog(ctx, fmt.Sprintf("Using Datastore storage in project %s", cfg.GCP_PROJECT_ID))
		return gcpClient, nil

	default:
		a.Store = store.New()
		logger.InfoLog(ctx, "Using in-memory storage")
		return store.NewRepository(a.Store), nil
	}
}

// seed imports SEED_FILE. The memory driver loads the built-in sample data
// unless SEED_FILE says otherwise.
func (a *App) seed(ctx context.Context) error {
	cfg := config.DefaultEnvConfig
	source := strings.TrimSpace(cfg.SEED_FILE)
	if source == "" && a.driver == config.DriverMemory {
		source = SeedDefault
	}

	var f *seed.File
	switch source {
	case "", SeedNone:
		return nil
	case SeedDefault:
		f = seed.Default()
	default:
		var err error
		if f, err = seed.LoadFile(source); err != nil {
			return err
		}
	}

	im := seed.NewImporter(a.Service,
		seed.WithWorkers(cfg.SEED_WORKERS),
		seed.WithRetryBackoff(cfg.SEED_RETRY_BACKOFF),
	)
	if _, err := im.Import(ctx, f); err != nil {
		return fmt.Errorf("failed to seed task lists: %w", err)
	}
	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
		},
	}))
	a.Echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			msg := fmt.Sprintf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			if v.Error != nil {
				logger.ErrorLog(c.Request().Context(), msg+": "+v.Error.Error())
				return nil
			}
			logger.InfoLog(c.Request().Context(), msg)
			return nil
		},
	}))
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes() {
	listHandler := handler.NewTaskListHandler(a.Service)
	taskHandler := handler.NewTaskHandler(a.Service)
	healthHandler := handler.NewHealthHandler(a.driver, a.Search != nil)

	a.Echo.GET("/health", healthHandler.HealthHandler)
	a.Echo.GET("/summary", listHandler.SummaryHandler)
	a.Echo.GET("/search", listHandler.SearchHandler)
	a.Echo.POST("/search/reindex", listHandler.ReindexHandler)

	lists := a.Echo.Group("/task-lists")
	lists.GET("", listHandler.ListHandler)
	lists.POST("", listHandler.CreateHandler)
	lists.GET("/:id", listHandler.GetHandler)
	lists.PUT("/:id", listHandler.UpdateHandler)
	lists.DELETE("/:id", listHandler.DeleteHandler)
	lists.GET("/:id/stats", listHandler.StatsHandler)
	lists.GET("/:id/export", listHandler.ExportHandler)

	lists.GET("/:id/tasks", taskHandler.ListHandler)
	lists.POST("/:id/tasks", taskHandler.CreateHandler)
	lists.GET("/:id/tasks/:taskId", taskHandler.GetHandler)
	lists.PUT("/:id/tasks/:taskId", taskHandler.UpdateHandler)
	lists.DELETE("/:id/tasks/:taskId", taskHandler.DeleteHandler)

	// Change notifications only exist for the in-process store.
	if a.Store != nil {
		events := handler.NewEventsHandler(a.Store)
		a.Echo.Server.RegisterOnShutdown(events.Close)
		a.Echo.GET("/events", events.StreamHandler)
	}
}

// Run serves HTTP until Shutdown is called.
func (a *App) Run() error {
	err := a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close releases the storage backends. Calling it again is a no-op.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
		a.DB = nil
	}
	if a.GCP != nil {
		errs = append(errs, a.GCP.Close())
		a.GCP = nil
	}
	return errors.Join(errs...)
}
