package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"listTracker/internal/config"
	"listTracker/internal/handlers"
	"listTracker/internal/logger"
	"listTracker/internal/middleware"
	"listTracker/internal/repository/list/inmemory"
	"listTracker/internal/repository/list/postgres"
	"listTracker/internal/service"
	"listTracker/internal/session"
	"listTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	handler    http.Handler
	repository service.ListRepository
	service    *service.ListService
	sessions   *session.Manager
	auditor    *worker.IndexAuditor
	shutdowns  []func() // функции для graceful shutdown, вызываются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init собирает зависимости: логгер, хранилище, сервис, сессии, роутер и воркер.
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development, a.config.Logging.Level); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repo, repoType, err := a.initRepository(ctx)
	if err != nil {
		return err
	}
	a.repository = repo

	svc := service.NewListService(repo, repoType)
	a.service = &svc

	sessions, err := session.NewManager(a.config.Auth.Secret, a.config.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("инициализация сессий: %w", err)
	}
	a.sessions = sessions

	h := handlers.NewListHandler(a.service)
	a.handler = NewRouter(&h, sessions, a.config.Server)

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if a.config.Worker.Enabled {
		interval, batch := a.config.Worker.Interval, a.config.Worker.BatchSize
		a.auditor = worker.NewIndexAuditor(repo, a.service, &interval, &batch)
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", string(repoType)),
		zap.String("addr", a.server.Addr),
		zap.Bool("worker", a.auditor != nil))
	return nil
}

func (a *App) initRepository(ctx context.Context) (service.ListRepository, service.RepoType, error) {
	switch a.config.Repository.Type {
	case "postgres":
		db := a.config.Database
		storage, err := postgres.New(ctx, db.URL,
			postgres.WithMaxConns(db.MaxConnections),
			postgres.WithMinConns(db.MinConnections),
			postgres.WithIdleTimeout(db.IdleTimeout),
			postgres.WithConnectRetries(db.ConnectRetries))
		if err != nil {
			return nil, "", fmt.Errorf("подключение к postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений...")
			storage.Close()
		})

		if db.Migrate {
			if err := storage.Migrate(ctx); err != nil {
				return nil, "", fmt.Errorf("миграции: %w", err)
			}
		}
		return storage, service.DBType, nil
	default:
		return inmemory.NewListStorage(), service.InMemoryType, nil
	}
}

// NewRouter собирает маршруты сервиса. /health открыт, остальное за сессией.
func NewRouter(h *handlers.ListHandler, sessions middleware.SessionParser, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	if cfg.RateLimit > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimit))
	}

	r.Get("/health", h.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sessions))
		h.Routes(r)
	})

	return otelhttp.NewHandler(r, "listTracker")
}

// Handler отдаёт собранный роутер; для тестов.
func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Run блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	if a.auditor != nil {
		g.Go(func() error {
			return a.auditor.Start(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close освобождает ресурсы в порядке, обратном созданию.
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
