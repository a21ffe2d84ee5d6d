package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/metrics"
	"github.com/secmon-lab/riskcascade/pkg/utils/async"
	"github.com/secmon-lab/riskcascade/pkg/utils/errutil"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
)

type StatisticsUseCase interface {
	List(ctx context.Context) ([]*model.RiskStatistics, error)
	ListByRisk(ctx context.Context, riskID types.RiskID) ([]*model.RiskStatistics, error)
	Get(ctx context.Context, riskID types.RiskID, scenario types.Scenario) (*model.RiskStatistics, error)
}

type SimulationUseCase interface {
	RunBatchWithID(ctx context.Context, id model.BatchID, snapshot *model.CatalogueSnapshot) (*model.Batch, error)
}

// Dispatcher runs fn outside of the request lifecycle
type Dispatcher func(ctx context.Context, fn func(ctx context.Context) error)

type Server struct {
	router     *chi.Mux
	statistics StatisticsUseCase
	simulation SimulationUseCase
	registry   *metrics.Registry
	dispatch   Dispatcher
}

type Options func(*Server)

func WithSimulation(uc SimulationUseCase) Options {
	return func(s *Server) {
		s.simulation = uc
	}
}

func WithMetrics(registry *metrics.Registry) Options {
	return func(s *Server) {
		s.registry = registry
	}
}

func WithDispatcher(d Dispatcher) Options {
	return func(s *Server) {
		s.dispatch = d
	}
}

func New(statistics StatisticsUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:     r,
		statistics: statistics,
		dispatch:   async.Dispatch,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	if s.registry != nil {
		r.Use(metricsMiddleware(s.registry))
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	if s.registry != nil {
		r.Handle("/metrics", s.registry.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/statistics", func(r chi.Router) {
			r.Get("/", listStatisticsHandler(s.statistics))
			r.Get("/{riskID}", riskStatisticsHandler(s.statistics))
			r.Get("/{riskID}/{scenario}", getStatisticsHandler(s.statistics))
		})

		// Batches run asynchronously; only accepted when a simulation is wired
		if s.simulation != nil {
			r.Post("/batches", runBatchHandler(s.simulation, s.dispatch))
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}
