package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"gymdesk/internal/attendance/admission"
	"gymdesk/internal/attendance/events"
	attendanceHandler "gymdesk/internal/attendance/handler"
	attendanceMetrics "gymdesk/internal/attendance/metrics"
	"gymdesk/internal/attendance/service"
	"gymdesk/internal/attendance/sweeper"
	daypassService "gymdesk/internal/daypass/service"
	jwttoken "gymdesk/internal/jwt_token"
	"gymdesk/internal/platform/config"
	"gymdesk/internal/platform/httpserver"
	"gymdesk/internal/platform/logger"
	"gymdesk/internal/platform/metrics"
	"gymdesk/internal/platform/tracing"
	"gymdesk/internal/ratelimit"
	"gymdesk/pkg/platform/httputil"
	"gymdesk/pkg/platform/middleware/metadata"
	"gymdesk/pkg/platform/middleware/requestid"
	"gymdesk/pkg/platform/middleware/requesttime"
)

const (
	shutdownTimeout = 15 * time.Second
	eventBuffer     = 1024
)

// main wires dependencies, serves the HTTP API and runs the sweeper until
// SIGINT or SIGTERM. Business logic lives in internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	loc := cfg.Location()
	attendance := attendanceMetrics.New()

	var publisher service.Publisher = events.NopPublisher{}
	var async *events.AsyncPublisher
	if infra.events != nil {
		async = events.NewAsyncPublisher(infra.events, eventBuffer, log)
		publisher = async
	}

	passes, err := daypassService.New(infra.passes,
		daypassService.WithLogger(log),
		daypassService.WithLocation(loc),
	)
	if err != nil {
		return err
	}
	validator, err := admission.New(infra.records, infra.members, passes,
		admission.WithLogger(log),
		admission.WithLocation(loc),
		admission.WithMetrics(attendance),
	)
	if err != nil {
		return err
	}
	attendanceService, err := service.New(infra.records, infra.members, passes, validator,
		service.WithLogger(log),
		service.WithLocation(loc),
		service.WithMetrics(attendance),
		service.WithPublisher(publisher),
		service.WithLocker(infra.locker),
		service.WithTxRunner(infra.tx),
	)
	if err != nil {
		return err
	}
	sweeps, err := sweeper.New(infra.records,
		sweeper.WithLogger(log),
		sweeper.WithLocation(loc),
		sweeper.WithMetrics(attendance),
		sweeper.WithPublisher(publisher),
		sweeper.WithPassExpirer(passes),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(metadata.ClientMetadata)
	router.Use(chimiddleware.RequestID)
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(chimiddleware.Recoverer)
	router.Use(metrics.New().Middleware)
	router.Get("/healthz", healthHandler(infra))
	router.Handle("/metrics", metrics.Handler())
	var handlerOpts []attendanceHandler.Option
	if cfg.RateLimit.Enabled {
		handlerOpts = append(handlerOpts, attendanceHandler.WithKioskMiddleware(ratelimit.Middleware(infra.limiter, ratelimit.Policy{
			Name:     "kiosk",
			Requests: cfg.RateLimit.KioskRequests,
			Window:   cfg.RateLimit.KioskWindow,
		}, log)))
	}
	attendanceHandler.New(attendanceService, validator, jwttoken.NewMiddlewareVerifier(jwtService), log, handlerOpts...).Register(router)
	attendanceHandler.NewAdmin(sweeps, cfg.Auth.AdminToken, log).Register(router)

	srv := httpserver.New(cfg.Addr, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gymdesk", "addr", cfg.Addr, "environment", cfg.Environment, "in_memory", cfg.InMemory())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	if async != nil {
		g.Go(func() error { return async.Run(gctx) })
	}
	if cfg.Sweeper.Enabled {
		scheduler := sweeper.NewScheduler(log,
			sweeper.Every(sweeper.PassAutoCheckout, cfg.Sweeper.Interval, func(ctx context.Context) error {
				_, err := sweeps.AutoCheckoutPass(ctx)
				return err
			}),
			sweeper.DailyAt(sweeper.PassStaleCleanup, cfg.Sweeper.CleanupHour, loc, func(ctx context.Context) error {
				_, err := sweeps.StaleCleanupPass(ctx)
				return err
			}),
			sweeper.DailyAt(sweeper.PassDayPassExpiry, cfg.Sweeper.PassExpiryHour, loc, func(ctx context.Context) error {
				_, err := sweeps.ExpireDayPasses(ctx)
				return err
			}),
		)
		g.Go(func() error { return scheduler.Run(gctx) })
	}

	return g.Wait()
}

// healthHandler reports liveness and the reachability of configured backends.
func healthHandler(infra *infrastructure) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := infra.Health(ctx)
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, err := range checks {
			if err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
