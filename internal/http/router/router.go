// Package router wires the student handlers onto a chi router together with
// the middleware stack every request passes through.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/student-marks-api/internal/http/handlers/student"
	"github.com/aanand-mishra/student-marks-api/internal/storage"
)

// New returns the HTTP handler for the whole API.
//
// Route table:
//
//	GET    /health              → storage ping
//	GET    /metrics             → Prometheus metrics
//	POST   /api/students        → create a student (and its first mark)
//	GET    /api/students        → list students, paginated, with marks
//	GET    /api/students/{id}   → one student with its latest mark
//	PUT    /api/students/{id}   → update a student (and upsert its mark)
//	DELETE /api/students/{id}   → delete a student and its marks
func New(store storage.Storage, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(instrument)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", student.Health(store))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/students", func(r chi.Router) {
		r.Post("/", student.New(store))
		r.Get("/", student.GetList(store))
		r.Get("/{id}", student.GetByID(store))
		r.Put("/{id}", student.Update(store))
		r.Delete("/{id}", student.Delete(store))
	})

	return r
}

// requestLogger writes one slog line per request once the handler returns.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			slog.Info("request completed",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
