package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"google.golang.org/api/option"

	"github.com/johnfenner/beecker-sub000/internal/config"
	apierrors "github.com/johnfenner/beecker-sub000/internal/errors"
	"github.com/johnfenner/beecker-sub000/internal/infrastructure"
	customMiddleware "github.com/johnfenner/beecker-sub000/internal/middleware"
	"github.com/johnfenner/beecker-sub000/internal/pages"
	"github.com/johnfenner/beecker-sub000/internal/services"
	"github.com/johnfenner/beecker-sub000/internal/sources"
	handlers "github.com/johnfenner/beecker-sub000/internal/transport/http"
	"github.com/johnfenner/beecker-sub000/pkg/contracts"
)

// AppName is the human readable service name
const AppName = "ProspectPulse - Prospecting Funnel Dashboard"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Pages         *pages.Registry
	FunnelService *services.FunnelService
	HealthService *services.HealthService

	provider      services.SourceProvider
	sheetsOptions []option.ClientOption
	startTime     time.Time

	mu       sync.Mutex
	listener net.Listener
}

// Option customizes an Application before its services are built
type Option func(*Application)

// WithSourceProvider replaces the source factory built from the config
func WithSourceProvider(p services.SourceProvider) Option {
	return func(a *Application) { a.provider = p }
}

// WithSheetsOptions adds client options to the Google Sheets service
func WithSheetsOptions(opts ...option.ClientOption) Option {
	return func(a *Application) { a.sheetsOptions = append(a.sheetsOptions, opts...) }
}

// NewApplication loads the configuration and builds the application
func NewApplication(opts ...Option) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewWithConfig(cfg, logger, opts...)
}

// NewWithConfig builds the application from an already loaded config
func NewWithConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		startTime:     time.Now(),
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds metrics, the page registry and the services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics
	if err := infrastructure.RegisterRuntimeGauges(a.OTelProviders.Meter, a.startTime); err != nil {
		return fmt.Errorf("failed to register runtime gauges: %w", err)
	}

	defs, err := config.LoadPages(a.Config.Pages.File)
	if err != nil {
		return fmt.Errorf("failed to load pages: %w", err)
	}
	compiled, err := pages.CompileAll(defs)
	if err != nil {
		return fmt.Errorf("failed to compile pages: %w", err)
	}
	a.Pages = pages.NewRegistry(compiled)
	a.Logger.Info("Pages loaded",
		slog.Int("count", len(compiled)),
		slog.String("ids", strings.Join(a.Pages.IDs(), ",")),
		slog.String("file", a.Config.Pages.File))

	if a.provider == nil {
		factory, err := a.sourceFactory(defs)
		if err != nil {
			return err
		}
		a.provider = factory
	}

	a.FunnelService = services.NewFunnelService(a.Pages, a.provider, a.Logger,
		services.WithMetrics(a.Metrics),
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithMaxParallel(a.Config.Pages.MaxParallel),
	)
	a.HealthService = services.NewHealthService(a.FunnelService, a.Logger)
	return nil
}

// sourceFactory creates the Sheets client only when a page needs it.
// Missing credentials are not fatal; readiness reports the affected pages.
func (a *Application) sourceFactory(defs []config.PageDefinition) (*sources.Factory, error) {
	factory := &sources.Factory{
		DefaultSpreadsheetID: a.Config.Sheets.DefaultSpreadsheetID,
		Timeout:              a.Config.Sheets.RequestTimeout,
		Logger:               a.Logger,
	}

	needsSheets := false
	for _, def := range defs {
		if def.Source.Kind == config.SourceSheets {
			needsSheets = true
			break
		}
	}
	if !needsSheets {
		return factory, nil
	}
	if !a.Config.Sheets.HasCredentials() && len(a.sheetsOptions) == 0 {
		a.Logger.Warn("Google Sheets credentials are not configured; sheet pages will be unavailable")
		return factory, nil
	}

	srv, err := sources.NewSheetsService(context.Background(), a.Config.Sheets, a.sheetsOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets service: %w", err)
	}
	factory.Sheets = srv
	return factory, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Telemetry.Environment == "development")

	// RequestID → RealIP → OTel → Logger → Recoverer
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(errorHandler))

	r.Use(customMiddleware.SecurityHeaders)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			errorHandler,
			a.Logger,
		).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r, errorHandler)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.StripSlashes)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)
		})

		// Renders fetch sheets, so they get their own budget.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RenderTimeout))
			r.Use(customMiddleware.Compress(5))

			funnelHandler := handlers.NewFunnelHandler(
				a.FunnelService,
				customMiddleware.NewValidator(a.Logger),
				errorHandler,
				a.Logger,
			)
			r.Mount("/pages", funnelHandler.Routes())
			r.Get("/overview", funnelHandler.GetOverview)
		})
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Addr returns the address the server listens on, or "" before Start
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Start binds the listener and serves in the background. A serve error
// calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}
	return nil
}

// performStartupHealthCheck reports pages whose source cannot be built
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var errs []error
	for page, err := range a.FunnelService.CheckSources() {
		if err != nil {
			errs = append(errs, fmt.Errorf("page %s: %w", page, err))
		}
	}
	return errors.Join(errs...)
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped")
	}

	return a.Stop(context.Background())
}
