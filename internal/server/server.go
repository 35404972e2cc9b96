package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"forum-bot/internal/export"
	"forum-bot/internal/util"
)

// Store is what the HTTP surface reads.
type Store interface {
	export.Source
	Ping(ctx context.Context) error
}

type Options struct {
	Addr         string
	ExportSecret string
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
	Now          func() time.Time
}

func New(store Store, opts Options) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           Router(store, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Router serves health, metrics and the token-protected CSV export.
func Router(store Store, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "http")
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			log.Warn("health check", "err", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	// CSV export (admin-only link with token = HMAC); off without a secret
	if opts.ExportSecret == "" {
		log.Warn("EXPORT_SECRET is empty, CSV export endpoint disabled")
		return r
	}
	r.Get("/export/registrations.csv", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "token required", http.StatusBadRequest)
			return
		}
		if !util.ValidExportToken(opts.ExportSecret, token) {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		data, n, err := export.Build(r.Context(), store)
		if err != nil {
			log.Error("export", "request_id", middleware.GetReqID(r.Context()), "err", err)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}
		log.Info("export served", "rows", n, "request_id", middleware.GetReqID(r.Context()))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(opts.Now())+`"`)
		_, _ = w.Write(data)
	})

	return r
}
