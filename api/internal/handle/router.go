package handle

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

func NewRouter(h *Handle, log *zerolog.Logger, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, accessLog(log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Timeout"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", h.Root)
	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/health", h.Health)
		ar.Post("/evaluate/single", h.EvaluateSingle)
		ar.Post("/evaluate/multiple", h.EvaluateMultiple)
		ar.Get("/assignments/{assignmentId}/statistics", h.Statistics)
		ar.Get("/batches/{batchId}", h.Batch)
	})

	r.Route("/evaluations", func(er chi.Router) {
		er.Get("/assignment/{assignmentId}", h.ByAssignment)
		er.Get("/{evaluationId}", h.ByID)
	})
	return r
}

// accessLog writes one zerolog line per request.
func accessLog(log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("http request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
