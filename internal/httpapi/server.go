package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	apimw "github.com/hamed0406/healthwatch/internal/httpapi/middleware"
	"github.com/hamed0406/healthwatch/internal/notify"
	"github.com/hamed0406/healthwatch/internal/repo"
	"github.com/hamed0406/healthwatch/internal/sampler"
)

// Server is the management API. It only reads engine state; the pipeline
// is the single writer. The exception is manual alert resolution, which
// goes through the store's guarded write path.
type Server struct {
	Logger     *zap.Logger
	Sampler    *sampler.Sampler
	Samples    repo.SampleStore
	Alerts     repo.AlertStore
	Metadata   repo.MetadataStore
	Dispatcher *notify.Dispatcher
}

func NewServer(
	l *zap.Logger,
	smp *sampler.Sampler,
	samples repo.SampleStore,
	alerts repo.AlertStore,
	metadata repo.MetadataStore,
	disp *notify.Dispatcher,
) *Server {
	return &Server{
		Logger:     l,
		Sampler:    smp,
		Samples:    samples,
		Alerts:     alerts,
		Metadata:   metadata,
		Dispatcher: disp,
	}
}

func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, publicBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()

	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// read endpoints: any key
	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Use(apimw.RateLimit(publicRPM, publicBurst))
		r.Get("/api/metrics", s.handleCurrentMetrics)
		r.Get("/api/metrics/history", s.handleMetricsHistory)
		r.Get("/api/alerts", s.handleListAlerts)
		r.Get("/api/metadata", s.handleListMetadata)
	})

	// mutating endpoints: admin key
	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Use(apimw.RateLimit(adminRPM, adminBurst))
		r.Put("/api/alerts/{id}/resolve", s.handleResolveAlert)
		r.Post("/api/metadata", s.handleUpsertMetadata)
		r.Delete("/api/metadata/{name}", s.handleDeleteMetadata)
		r.Post("/api/test-notification", s.handleTestNotification)
	})

	return r
}

func (s *Server) handleCurrentMetrics(w http.ResponseWriter, r *http.Request) {
	samples, errs := s.Sampler.Sample(r.Context())
	resp := map[string]any{"samples": samples}
	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		resp["errors"] = msgs
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetricsHistory(w http.ResponseWriter, r *http.Request) {
	minutes := 60
	if v := r.URL.Query().Get("minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "bad minutes", http.StatusBadRequest)
			return
		}
		minutes = n
	}
	kind := domain.MetricKind(r.URL.Query().Get("kind"))

	since := time.Now().UTC().Add(-time.Duration(minutes) * time.Minute)
	hist, err := s.Samples.History(r.Context(), kind, since)
	if err != nil {
		s.Logger.Warn("history_error", zap.Error(err))
		http.Error(w, "history error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	f := repo.AlertFilter{
		Status: domain.AlertStatus(r.URL.Query().Get("status")),
		Kind:   domain.MetricKind(r.URL.Query().Get("kind")),
	}
	alerts, err := s.Alerts.List(r.Context(), f)
	if err != nil {
		s.Logger.Warn("list_alerts_error", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id := domain.AlertID(chi.URLParam(r, "id"))
	a, err := s.Alerts.Resolve(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "alert not found", http.StatusNotFound)
			return
		}
		s.Logger.Warn("resolve_error", zap.String("alert_id", string(id)), zap.Error(err))
		http.Error(w, "resolve error", http.StatusInternalServerError)
		return
	}

	// best-effort notification, decoupled from the write
	s.Dispatcher.Dispatch(domain.NotificationEvent{
		AlertID: a.ID,
		Kind:    a.Kind,
		Event:   domain.EventResolved,
		Value:   a.TriggeredValue,
		Limit:   a.Limit,
		At:      time.Now().UTC(),
	})

	s.Logger.Info("alert_resolved_manually", zap.String("alert_id", string(a.ID)))
	writeJSON(w, http.StatusOK, a)
}

type metadataPayload struct {
	Name        string `json:"name"`
	Environment string `json:"environment"`
	Location    string `json:"location"`
}

func (p metadataPayload) valid() bool {
	for _, v := range []string{p.Name, p.Environment, p.Location} {
		if len(v) < 1 || len(v) > 50 {
			return false
		}
	}
	return true
}

func (s *Server) handleUpsertMetadata(w http.ResponseWriter, r *http.Request) {
	var p metadataPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || !p.valid() {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	md := &domain.Metadata{
		Name:        p.Name,
		Environment: p.Environment,
		Location:    p.Location,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.Metadata.UpsertMetadata(r.Context(), md); err != nil {
		s.Logger.Warn("metadata_upsert_error", zap.Error(err))
		http.Error(w, "could not save", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func (s *Server) handleListMetadata(w http.ResponseWriter, r *http.Request) {
	all, err := s.Metadata.ListMetadata(r.Context())
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	if all == nil {
		all = []domain.Metadata{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleDeleteMetadata(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ok, err := s.Metadata.DeleteMetadata(r.Context(), name)
	if err != nil {
		http.Error(w, "delete error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "metadata not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

// handleTestNotification sends a synthetic event directly to the channel
// and reports the outcome synchronously, independent of any open alerts.
func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	res := s.Dispatcher.Test(r.Context())
	if res.Err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"sent":     false,
			"attempts": res.Attempts,
			"error":    res.Err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sent":     true,
		"attempts": res.Attempts,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
