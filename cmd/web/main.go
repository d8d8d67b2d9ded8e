package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Passbob/dopamine-travel-front/internal/cms"
	"github.com/Passbob/dopamine-travel-front/internal/config"
	handlersPkg "github.com/Passbob/dopamine-travel-front/internal/handlers"
	"github.com/Passbob/dopamine-travel-front/internal/i18n"
	mw "github.com/Passbob/dopamine-travel-front/internal/middleware"
	"github.com/Passbob/dopamine-travel-front/internal/observability"
	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

const (
	siteName       = "도파민 여행"
	requestTimeout = 30 * time.Second
)

// app carries the collaborators shared by every handler.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	travel    travelapi.Service
	store     *workflow.Store
	sessions  *mw.Sessions
	bundle    *i18n.Bundle
	pages     *cms.Store
	views     *renderer
	site      seo.Site
	analytics handlersPkg.Analytics
	// rand overrides the selection random source; nil uses math/rand/v2.
	rand selection.Rand
	// player replays plans for the frame streams.
	player *selection.Player
}

// appDeps lets tests swap the backend, clocks and random source.
type appDeps struct {
	Travel      travelapi.Service
	Rand        selection.Rand
	Clock       func() time.Time
	PlayerClock selection.Clock
}

func newApp(cfg config.Config, logger *zap.Logger, deps appDeps) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bundle, err := i18n.Load(cfg.Web.LocalesDir, cfg.Web.DefaultLang, []string{"ko", "en"})
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}
	views, err := newRenderer(cfg.Web.TemplatesDir, cfg.Web.DevMode, bundle)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	sessions, err := mw.NewSessions(mw.SessionConfig{
		CookieName: cfg.Session.CookieName,
		HashKey:    []byte(cfg.Session.HashKey),
		BlockKey:   []byte(cfg.Session.BlockKey),
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return nil, err
	}
	if sessions.Ephemeral() {
		logger.Warn("session hash key not configured; sessions reset on restart")
	}

	travel := deps.Travel
	if travel == nil {
		travel, err = newTravelService(cfg.Backend, logger)
		if err != nil {
			return nil, err
		}
	}

	cacheTTL := 5 * time.Minute
	if cfg.Web.DevMode {
		cacheTTL = 0
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		travel:   travel,
		store:    workflow.NewStore(workflow.StoreDeps{TTL: cfg.Session.WorkflowTTL, Clock: deps.Clock}),
		sessions: sessions,
		bundle:   bundle,
		pages:    cms.NewStore(cfg.Web.ContentDir, cacheTTL, cfg.Web.DefaultLang, "ko", "en"),
		views:    views,
		site: seo.Site{
			Name:         siteName,
			BaseURL:      cfg.Web.SiteURL,
			DefaultImage: cfg.Web.SiteURL + "/assets/img/og.png",
		},
		analytics: handlersPkg.AnalyticsFromConfig(cfg.Analytics),
		rand:      deps.Rand,
		player:    selection.NewPlayer(deps.PlayerClock),
	}, nil
}

// newTravelService uses the HTTP backend when configured and the built-in dataset otherwise.
func newTravelService(cfg config.BackendConfig, logger *zap.Logger) (travelapi.Service, error) {
	if cfg.BaseURL == "" {
		logger.Info("travel backend not configured; serving static sample data")
		return travelapi.NewStaticService(), nil
	}
	svc, err := travelapi.NewHTTPService(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func newRouter(a *app) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(middleware.RealIP)
	r.Use(mw.HTMX)
	r.Use(mw.Logger(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/assets/*", http.StripPrefix("/assets", mw.Assets(filepath.Join(a.cfg.Web.PublicDir, "assets"), a.cfg.Web.DevMode)))

	limit := func(next http.Handler) http.Handler { return next }
	if n := a.cfg.RateLimits.SpinPerMinute; n > 0 {
		limit = httprate.Limit(n, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(mw.TooManyRequests),
		)
	}

	r.Group(func(r chi.Router) {
		r.Use(a.sessions.Middleware)
		r.Use(mw.Locale(a.bundle))
		r.Use(mw.CSRF(mw.CSRFConfig{Secure: a.cfg.Session.Secure}))
		r.Use(mw.VaryLocale)

		// Frame streams stay open for the length of an animation and skip the request timeout.
		r.Get("/random/frames", a.framesHandler(provinceStep))
		r.Get("/random/city/frames", a.framesHandler(cityStep))
		r.Get("/random/theme/frames", a.framesHandler(themeStep))
		r.Get("/course/frames", a.framesHandler(courseStep))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/", a.HomeHandler)
			r.Get("/about", a.AboutHandler)

			r.Get("/random", a.ProvinceHandler)
			r.Get("/random/reveal", a.ProvinceRevealFrag)
			r.Post("/random/confirm", a.ProvinceConfirmHandler)

			r.Get("/random/city", a.CityHandler)
			r.Get("/random/city/reveal", a.CityRevealFrag)
			r.Post("/random/city/confirm", a.CityConfirmHandler)

			r.Get("/random/theme", a.ThemeHandler)
			r.Get("/random/theme/reveal", a.ThemeRevealFrag)
			r.Post("/random/theme/confirm", a.ThemeConfirmHandler)

			r.Get("/course", a.CourseHandler)
			r.Get("/course/reveal", a.CourseRevealFrag)
			r.Post("/course/pick", a.CoursePickHandler)

			r.Get("/postResult", a.ResultHandler)
			r.Get("/postResult/export.txt", a.ResultExportHandler)

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/random/spin", a.ProvinceSpinHandler)
				r.Post("/random/city/spin", a.CitySpinHandler)
				r.Post("/random/theme/spin", a.ThemeSpinHandler)
				r.Post("/course/draw", a.CourseDrawHandler)
			})
		})
	})

	r.NotFound(a.NotFoundHandler)
	return r
}

func main() {
	envFile := flag.String("env-file", ".env", "optional .env file with TRAVEL_WEB_* overrides")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "web: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, logger, appDeps{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.store.Run(observability.WithLogger(ctx, logger))

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", srv.Addr),
			zap.Bool("dev_mode", cfg.Web.DevMode),
			zap.String("backend", cfg.Backend.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
