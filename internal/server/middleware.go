package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/54b3r/ragmanual-go/internal/logging"
)

// requestLogger is chi middleware that:
//  1. Injects a child [*slog.Logger] carrying chi's request ID into the
//     request context.
//  2. Logs status code and latency on completion.
//  3. Records the HTTP request counter and latency histogram, labelled by
//     route pattern rather than raw path.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := s.log.With(
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		r = r.WithContext(logging.WithLogger(r.Context(), log))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		log.Info("request",
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
		)
	})
}
