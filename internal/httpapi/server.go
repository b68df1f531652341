package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	apimw "github.com/hamed0406/uptimemonitor/internal/httpapi/middleware"
	"github.com/hamed0406/uptimemonitor/internal/repo"
	"github.com/hamed0406/uptimemonitor/internal/scheduler"
	"github.com/hamed0406/uptimemonitor/internal/telemetry"
)

// Trigger runs or joins a check cycle and returns its snapshot.
type Trigger interface {
	Trigger(ctx context.Context, reason string) (domain.CycleSnapshot, error)
}

// MetricsSource exposes collected metric points.
type MetricsSource interface {
	Collect(ctx context.Context) ([]telemetry.Point, error)
}

type Server struct {
	Logger    *zap.Logger
	Registry  *domain.Registry
	Store     repo.SnapshotStore
	Scheduler Trigger

	// Optional.
	History repo.HistoryReader
	Metrics MetricsSource
}

type Options struct {
	Keys           apimw.Keys
	AllowedOrigins []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
}

func NewServer(l *zap.Logger, reg *domain.Registry, store repo.SnapshotStore, sched Trigger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Registry: reg, Store: store, Scheduler: sched}
}

func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins(opts.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(opts.Keys))
		r.Use(apimw.RateLimit(opts.PublicRPM, opts.PublicBurst))
		r.Get("/api/status", s.handleStatus)
		r.Get("/api/targets", s.handleListTargets)
		r.Get("/api/targets/{id}", s.handleGetTarget)
		r.Get("/api/targets/{id}/history", s.handleHistory)
		r.Get("/api/metrics", s.handleMetrics)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(opts.Keys))
		r.Use(apimw.RateLimit(opts.AdminRPM, opts.AdminBurst))
		r.Post("/api/check", s.handleCheck)
	})

	return r
}

func origins(in []string) []string {
	if len(in) == 0 {
		return []string{"*"}
	}
	return in
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Current())
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Scheduler.Trigger(r.Context(), scheduler.ReasonManual)
	if err == nil {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.Logger.Info("manual_check_abandoned", zap.Error(err))
		return
	}
	if errors.Is(err, scheduler.ErrStopped) {
		apimw.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.Logger.Error("manual_check_failed", zap.Error(err))
	body := map[string]any{"error": err.Error(), "snapshot": s.Store.Current()}
	var cerr *domain.CycleError
	if errors.As(err, &cerr) {
		body["errorKind"] = cerr.Kind()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Registry.Targets())
}

func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	id := targetID(r)
	if _, ok := s.Registry.Get(id); !ok {
		apimw.Error(w, http.StatusNotFound, domain.ErrUnknownTarget.Error())
		return
	}
	view, ok := s.Store.Current().Find(id)
	if !ok {
		apimw.Error(w, http.StatusNotFound, "target not checked yet")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		apimw.Error(w, http.StatusNotImplemented, "history storage not configured")
		return
	}
	id := targetID(r)
	if _, ok := s.Registry.Get(id); !ok {
		apimw.Error(w, http.StatusNotFound, domain.ErrUnknownTarget.Error())
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			apimw.Error(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	rows, err := s.History.History(r.Context(), id, limit)
	if err != nil {
		s.Logger.Warn("history_error", zap.String("target_id", string(id)), zap.Error(err))
		apimw.Error(w, http.StatusInternalServerError, "history error")
		return
	}
	if rows == nil {
		rows = []domain.Outcome{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.Metrics == nil {
		writeJSON(w, http.StatusOK, []telemetry.Point{})
		return
	}
	points, err := s.Metrics.Collect(r.Context())
	if err != nil {
		apimw.Error(w, http.StatusInternalServerError, "metrics error")
		return
	}
	if points == nil {
		points = []telemetry.Point{}
	}
	writeJSON(w, http.StatusOK, points)
}

func targetID(r *http.Request) domain.TargetID {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return domain.TargetID(id)
	}
	return domain.TargetID(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
