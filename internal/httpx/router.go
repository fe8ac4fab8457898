package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AngelCh415/agency-ops/internal/export"
	"github.com/AngelCh415/agency-ops/internal/ingest"
	"github.com/AngelCh415/agency-ops/internal/metrics"
	"github.com/AngelCh415/agency-ops/internal/utils"
)

type Options struct {
	AllowedOrigins []string
	// Registry backs /metrics and the request collectors. nil disables both.
	Registry *prometheus.Registry
}

// NewRouter wires the report API. etl may be nil when no backend is
// configured; /ingest/run then answers 503.
func NewRouter(log *zap.Logger, etl *ingest.ETL, svc *metrics.Service, opts Options) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	if opts.Registry != nil {
		mux.Use(utils.NewHTTPMetrics(opts.Registry).Middleware(routePattern))
	}
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
			MaxAge:         300,
		}))
	}

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ready(r.Context()); err != nil {
			log.Warn("not ready", zap.Error(err))
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})

	mux.Post("/ingest/run", func(w http.ResponseWriter, r *http.Request) {
		if etl == nil {
			http.Error(w, "backend not configured", http.StatusServiceUnavailable)
			return
		}
		res, err := etl.Run(r.Context())
		if err != nil {
			log.Error("ingest failed", zap.Error(err), zap.String("rid", utils.RID(r.Context())))
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, res)
	})

	mux.Route("/reports", func(rr chi.Router) {
		rr.Get("/funnel", report(log, svc, svc.Funnel))
		rr.Get("/sources", report(log, svc, svc.Sources))
		rr.Get("/capacity", report(log, svc, svc.Capacity))
		rr.Get("/revenue", report(log, svc, svc.Revenue))
		rr.Get("/earnings", report(log, svc, svc.Earnings))
		rr.Get("/revenue.xlsx", func(w http.ResponseWriter, r *http.Request) {
			rep, err := svc.Revenue(r.Context(), svc.ParseQuery(r.URL.Query()))
			if err != nil {
				storeError(w, r, log, err)
				return
			}
			w.Header().Set("Content-Disposition", `attachment; filename="revenue.xlsx"`)
			writeReport(w, r, log, export.XLSX, rep)
		})
	})

	if opts.Registry != nil {
		mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}
	return mux
}

// report adapts a Service report method into a handler honouring ?format=.
func report[T any](log *zap.Logger, svc *metrics.Service, fn func(context.Context, metrics.Query) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rep, err := fn(r.Context(), svc.ParseQuery(r.URL.Query()))
		if err != nil {
			storeError(w, r, log, err)
			return
		}
		writeReport(w, r, log, f, rep)
	}
}

func writeReport(w http.ResponseWriter, r *http.Request, log *zap.Logger, f export.Format, v any) {
	var buf bytes.Buffer
	if err := export.Write(&buf, f, v); err != nil {
		if f == export.XLSX {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error("encode report", zap.Error(err), zap.String("rid", utils.RID(r.Context())))
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Write(buf.Bytes())
}

func storeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	log.Error("report failed", zap.Error(err), zap.String("path", r.URL.Path), zap.String("rid", utils.RID(r.Context())))
	http.Error(w, "store unavailable", http.StatusInternalServerError)
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
