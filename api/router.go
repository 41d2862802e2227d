// Package api wires the HTTP endpoints of the rating service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/tripscore/api/drivers"
	"github.com/kilianp07/tripscore/api/predictions"
	"github.com/kilianp07/tripscore/api/respond"
	"github.com/kilianp07/tripscore/api/runs"
	"github.com/kilianp07/tripscore/api/simulations"
	"github.com/kilianp07/tripscore/core/logger"
	"github.com/kilianp07/tripscore/core/runlog"
)

// Backend is the serving context behind the API.
type Backend interface {
	predictions.Scorer
	simulations.Simulator
	drivers.KPISource
}

// Options configure the router.
type Options struct {
	// RunLog enables GET /api/runs when set.
	RunLog        runlog.Store
	Token         string
	TopLimit      int
	WindowMins    int
	ToleranceMins int
	CORSOrigins   []string
	// Metrics is served on /metrics. Nil uses the default Prometheus
	// gatherer.
	Metrics http.Handler
	Logger  logger.Logger
}

// NewRouter builds the API. A nil backend answers 503 on every model
// endpoint while /health and /metrics stay available.
func NewRouter(b Backend, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logger.NopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics)

	r.Group(func(r chi.Router) {
		if b == nil {
			r.Use(unavailable)
			b = unloaded{}
		}
		r.Get("/prediction/top/{n}", predictions.NewTopHandler(b, opts.TopLimit))
		r.Get("/prediction/{ride_id}", predictions.NewPredictionHandler(b))
		r.Get("/simulate", simulations.NewCompareHandler(b, opts.WindowMins, opts.ToleranceMins))
		r.Route("/api", func(r chi.Router) {
			r.Get("/driver-days", simulations.NewDriverDaysHandler(b))
			r.Get("/simulation", simulations.NewSimulationHandler(b, opts.WindowMins))
			r.Get("/drivers/{id}/kpis", drivers.NewKPIHandler(b))
			if opts.RunLog != nil {
				r.Get("/runs", runs.NewLogHandler(opts.RunLog, opts.Token))
			}
		})
	})
	return r
}

func unavailable(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusServiceUnavailable, "model not loaded")
	})
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debugw("http request", map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": chimiddleware.GetReqID(r.Context()),
			})
		})
	}
}
